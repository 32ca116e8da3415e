package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"FinPrep/internal/domain/models"
	domrepo "FinPrep/internal/domain/repository"
	pkgch "FinPrep/pkg/clickhouse"
	applogger "FinPrep/pkg/logger"
)

// CHBarStore implements BarStore backed by ClickHouse. One table per
// timeframe; ReplacingMergeTree on (symbol, ts) folds re-ingested
// bars into the latest version.
type CHBarStore struct {
	client *pkgch.Client
	db     *sql.DB
	l      *applogger.Logger
}

func NewCHBarStore(ch *pkgch.Client) *CHBarStore {
	return &CHBarStore{client: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHBarStore) SetLogger(l *applogger.Logger) { s.l = l }

const chBarsDDL = `
CREATE TABLE IF NOT EXISTS %s (
    symbol LowCardinality(String),
    ts     DateTime('UTC'),
    open   Float64,
    high   Float64,
    low    Float64,
    close  Float64,
    volume Int64,
    spread Int32
) ENGINE = ReplacingMergeTree
ORDER BY (symbol, ts)`

// Init ensures the database and one bars table per timeframe exist.
func (s *CHBarStore) Init(ctx context.Context) error {
	stmts := []string{"CREATE DATABASE IF NOT EXISTS finprep"}
	for _, tf := range domrepo.AllTimeframes() {
		table, err := chBarsTable(tf)
		if err != nil {
			return err
		}
		stmts = append(stmts, fmt.Sprintf(chBarsDDL, table))
	}
	return s.client.InitSchema(ctx, stmts)
}

func (s *CHBarStore) StoreBars(ctx context.Context, tf domrepo.Timeframe, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	start := time.Now()
	table, err := chBarsTable(tf)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bar batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (symbol, ts, open, high, low, close, volume, spread)", table))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare bar batch: %w", err)
	}
	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx,
			b.Symbol, b.Time, b.Open, b.High, b.Low, b.Close, b.Volume, b.Spread); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("append bar: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bar batch: %w", err)
	}

	if s.l != nil {
		s.l.Debug("clickhouse store_bars ok",
			applogger.String("table", table),
			applogger.Int("rows", len(bars)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHBarStore) GetBars(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Bar, error) {
	start := time.Now()
	table, err := chBarsTable(tf)
	if err != nil {
		return nil, err
	}
	const qtpl = `
        SELECT symbol, ts, open, high, low, close, volume, spread
        FROM %s FINAL
        WHERE symbol = ? AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, table), symbol, from, to)
	if err != nil {
		s.logQueryError("get_bars", table, symbol, err)
		return nil, fmt.Errorf("get bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0, 1024)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Symbol, &b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Spread); err != nil {
			s.logQueryError("get_bars scan", table, symbol, err)
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		s.logQueryError("get_bars rows", table, symbol, err)
		return nil, fmt.Errorf("rows: %w", err)
	}

	if s.l != nil {
		s.l.Info("clickhouse get_bars ok",
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHBarStore) GetLatestBars(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Bar, error) {
	start := time.Now()
	table, err := chBarsTable(tf)
	if err != nil {
		return nil, err
	}
	const qtpl = `
        SELECT symbol, ts, open, high, low, close, volume, spread
        FROM %s FINAL
        WHERE symbol = ?
        ORDER BY ts DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, table), symbol, n)
	if err != nil {
		s.logQueryError("latest_bars", table, symbol, err)
		return nil, fmt.Errorf("get latest bars: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.Bar, 0, n)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Symbol, &b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Spread); err != nil {
			s.logQueryError("latest_bars scan", table, symbol, err)
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		tmp = append(tmp, b)
	}
	if err := rows.Err(); err != nil {
		s.logQueryError("latest_bars rows", table, symbol, err)
		return nil, fmt.Errorf("rows: %w", err)
	}

	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}

	if s.l != nil {
		s.l.Info("clickhouse latest_bars ok",
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.Int("limit", n),
			applogger.Int("rows", len(tmp)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return tmp, nil
}

func (s *CHBarStore) Symbols(ctx context.Context, tf domrepo.Timeframe) ([]string, error) {
	table, err := chBarsTable(tf)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT DISTINCT symbol FROM %s ORDER BY symbol", table))
	if err != nil {
		s.logQueryError("symbols", table, "", err)
		return nil, fmt.Errorf("symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHBarStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *CHBarStore) Close() error {
	return s.client.Close()
}

func (s *CHBarStore) logQueryError(op, table, symbol string, err error) {
	if s.l == nil {
		return
	}
	s.l.Error("clickhouse "+op+" error",
		applogger.String("table", table),
		applogger.String("symbol", symbol),
		applogger.Error(err),
	)
}

func chBarsTable(tf domrepo.Timeframe) (string, error) {
	if !domrepo.IsValidTimeframe(tf) {
		return "", fmt.Errorf("unsupported timeframe: %s", tf)
	}
	return "finprep.bars_" + string(tf), nil
}
