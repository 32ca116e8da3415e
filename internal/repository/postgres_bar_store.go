package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"FinPrep/internal/domain/models"
	domrepo "FinPrep/internal/domain/repository"
	applogger "FinPrep/pkg/logger"
)

// PGBarStore implements BarStore backed by PostgreSQL. All timeframes
// share one table keyed by (symbol, tf, ts); re-ingested bars upsert
// the existing row.
type PGBarStore struct {
	db *sql.DB
	l  *applogger.Logger
}

// PGConfig holds the PostgreSQL connection settings.
type PGConfig struct {
	Host         string
	Port         int
	Database     string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

func NewPGBarStore(cfg PGConfig) (*PGBarStore, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &PGBarStore{db: db}, nil
}

// SetLogger injects a structured logger.
func (s *PGBarStore) SetLogger(l *applogger.Logger) { s.l = l }

const pgBarsDDL = `
CREATE TABLE IF NOT EXISTS bars (
    symbol TEXT             NOT NULL,
    tf     TEXT             NOT NULL,
    ts     TIMESTAMPTZ      NOT NULL,
    open   DOUBLE PRECISION NOT NULL,
    high   DOUBLE PRECISION NOT NULL,
    low    DOUBLE PRECISION NOT NULL,
    close  DOUBLE PRECISION NOT NULL,
    volume BIGINT           NOT NULL,
    spread INTEGER          NOT NULL,
    PRIMARY KEY (symbol, tf, ts)
)`

const pgUpsertBar = `
INSERT INTO bars (symbol, tf, ts, open, high, low, close, volume, spread)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (symbol, tf, ts) DO UPDATE SET
    open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
    close = EXCLUDED.close, volume = EXCLUDED.volume, spread = EXCLUDED.spread`

// Init ensures the bars table exists.
func (s *PGBarStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, pgBarsDDL); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *PGBarStore) StoreBars(ctx context.Context, tf domrepo.Timeframe, bars []models.Bar) error {
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
	stmt, err := tx.PrepareContext(ctx, pgUpsertBar)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare bar batch: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx,
			b.Symbol, string(tf), b.Time, b.Open, b.High, b.Low, b.Close, b.Volume, b.Spread); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert bar: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bar batch: %w", err)
	}

	if s.l != nil {
		s.l.Debug("postgres store_bars ok",
			applogger.String("tf", string(tf)),
			applogger.Int("rows", len(bars)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *PGBarStore) GetBars(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Bar, error) {
	const q = `
        SELECT symbol, ts, open, high, low, close, volume, spread
        FROM bars
        WHERE symbol = $1 AND tf = $2 AND ts >= $3 AND ts <= $4
        ORDER BY ts ASC
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, string(tf), from, to)
	if err != nil {
		return nil, fmt.Errorf("get bars: %w", err)
	}
	defer rows.Close()
	return scanBars(rows)
}

func (s *PGBarStore) GetLatestBars(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Bar, error) {
	const q = `
        SELECT symbol, ts, open, high, low, close, volume, spread
        FROM bars
        WHERE symbol = $1 AND tf = $2
        ORDER BY ts DESC
        LIMIT $3
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, string(tf), n)
	if err != nil {
		return nil, fmt.Errorf("get latest bars: %w", err)
	}
	defer rows.Close()

	out, err := scanBars(rows)
	if err != nil {
		return nil, err
	}
	// reverse to ASC
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *PGBarStore) Symbols(ctx context.Context, tf domrepo.Timeframe) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT symbol FROM bars WHERE tf = $1 ORDER BY symbol", string(tf))
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

func (s *PGBarStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PGBarStore) Close() error {
	return s.db.Close()
}

// scanBars drains a bar result set in column order symbol, ts, open,
// high, low, close, volume, spread.
func scanBars(rows *sql.Rows) ([]models.Bar, error) {
	out := make([]models.Bar, 0, 256)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Symbol, &b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Spread); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
