package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"FinPrep/internal/domain/models"
	domrepo "FinPrep/internal/domain/repository"
	applogger "FinPrep/pkg/logger"
)

// SQLiteBarStore implements BarStore on a local SQLite file, the
// zero-infrastructure backend for development and backtests.
// Timestamps are stored as unix seconds so reads do not depend on the
// driver's datetime parsing.
type SQLiteBarStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewSQLiteBarStore(path string) (*SQLiteBarStore, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// one writer at a time keeps SQLITE_BUSY away
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	return &SQLiteBarStore{db: db}, nil
}

// SetLogger injects a structured logger.
func (s *SQLiteBarStore) SetLogger(l *applogger.Logger) { s.l = l }

const sqliteBarsDDL = `
CREATE TABLE IF NOT EXISTS bars (
    symbol TEXT    NOT NULL,
    tf     TEXT    NOT NULL,
    ts     INTEGER NOT NULL,
    open   REAL    NOT NULL,
    high   REAL    NOT NULL,
    low    REAL    NOT NULL,
    close  REAL    NOT NULL,
    volume INTEGER NOT NULL,
    spread INTEGER NOT NULL,
    PRIMARY KEY (symbol, tf, ts)
)`

const sqliteUpsertBar = `
INSERT INTO bars (symbol, tf, ts, open, high, low, close, volume, spread)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(symbol, tf, ts) DO UPDATE SET
    open = excluded.open, high = excluded.high, low = excluded.low,
    close = excluded.close, volume = excluded.volume, spread = excluded.spread`

// Init ensures the bars table exists.
func (s *SQLiteBarStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteBarsDDL); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *SQLiteBarStore) StoreBars(ctx context.Context, tf domrepo.Timeframe, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	if !domrepo.IsValidTimeframe(tf) {
		return fmt.Errorf("unsupported timeframe: %s", tf)
	}
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bar batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, sqliteUpsertBar)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare bar batch: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx,
			b.Symbol, string(tf), b.Time.UTC().Unix(),
			b.Open, b.High, b.Low, b.Close, b.Volume, b.Spread); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert bar: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bar batch: %w", err)
	}

	if s.l != nil {
		s.l.Debug("sqlite store_bars ok",
			applogger.String("tf", string(tf)),
			applogger.Int("rows", len(bars)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *SQLiteBarStore) GetBars(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Bar, error) {
	const q = `
        SELECT symbol, ts, open, high, low, close, volume, spread
        FROM bars
        WHERE symbol = ? AND tf = ? AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, string(tf), from.UTC().Unix(), to.UTC().Unix())
	if err != nil {
		return nil, fmt.Errorf("get bars: %w", err)
	}
	defer rows.Close()
	return scanUnixBars(rows)
}

func (s *SQLiteBarStore) GetLatestBars(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Bar, error) {
	const q = `
        SELECT symbol, ts, open, high, low, close, volume, spread
        FROM bars
        WHERE symbol = ? AND tf = ?
        ORDER BY ts DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, string(tf), n)
	if err != nil {
		return nil, fmt.Errorf("get latest bars: %w", err)
	}
	defer rows.Close()

	out, err := scanUnixBars(rows)
	if err != nil {
		return nil, err
	}
	// reverse to ASC
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *SQLiteBarStore) Symbols(ctx context.Context, tf domrepo.Timeframe) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT symbol FROM bars WHERE tf = ? ORDER BY symbol", string(tf))
	if err != nil {
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

func (s *SQLiteBarStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteBarStore) Close() error {
	return s.db.Close()
}

func scanUnixBars(rows *sql.Rows) ([]models.Bar, error) {
	out := make([]models.Bar, 0, 256)
	for rows.Next() {
		var (
			b  models.Bar
			ts int64
		)
		if err := rows.Scan(&b.Symbol, &ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Spread); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Time = time.Unix(ts, 0).UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
