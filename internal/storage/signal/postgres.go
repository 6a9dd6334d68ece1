package signal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/newthinker/sentinel/internal/core"
	"go.uber.org/zap"
)

// querier is the subset of pgxpool.Pool used by the store.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const signalColumns = `id, asset_symbol, signal_type, source, entry_price, stop_loss,
	target_1, target_2, target_3, confidence, risk_reward_ratio, entry_reason,
	created_at, expiry_time, current_price, status, current_pnl_pct, max_profit_pct,
	max_loss_pct, final_pnl_pct, target_hit, trailing_stop, closed_at`

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS trading_signals (
		id BIGINT PRIMARY KEY,
		asset_symbol VARCHAR(20) NOT NULL,
		signal_type VARCHAR(4) NOT NULL,
		source VARCHAR(16) NOT NULL,
		entry_price DOUBLE PRECISION NOT NULL,
		stop_loss DOUBLE PRECISION NOT NULL,
		target_1 DOUBLE PRECISION NOT NULL,
		target_2 DOUBLE PRECISION NOT NULL,
		target_3 DOUBLE PRECISION NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		risk_reward_ratio DOUBLE PRECISION NOT NULL,
		entry_reason TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		expiry_time TIMESTAMPTZ NOT NULL,
		current_price DOUBLE PRECISION NOT NULL DEFAULT 0,
		status VARCHAR(16) NOT NULL,
		current_pnl_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
		max_profit_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
		max_loss_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
		final_pnl_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
		target_hit SMALLINT NOT NULL DEFAULT 0,
		trailing_stop DOUBLE PRECISION NOT NULL DEFAULT 0,
		closed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trading_signals_symbol ON trading_signals(asset_symbol)`,
	`CREATE INDEX IF NOT EXISTS idx_trading_signals_status ON trading_signals(status)`,
	`CREATE INDEX IF NOT EXISTS idx_trading_signals_created_at ON trading_signals(created_at)`,
}

// PostgresStore persists signals in PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	db     querier
	logger *zap.Logger
}

// NewPostgresStore connects, pings and migrates.
func NewPostgresStore(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, fmt.Errorf("parse dsn: %w", err))
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, fmt.Errorf("create pool: %w", err))
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, core.WrapError(core.ErrStoreFailed, fmt.Errorf("ping: %w", err))
	}

	s := &PostgresStore{pool: pool, db: pool, logger: logger}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("connected to postgres signal store", zap.String("database", poolConfig.ConnConfig.Database))
	return s, nil
}

// Migrate creates the signals table and its indexes.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return core.WrapError(core.ErrStoreFailed, fmt.Errorf("migrate: %w", err))
		}
	}
	return nil
}

// Save upserts the signal row.
func (s *PostgresStore) Save(ctx context.Context, sig core.Signal) error {
	query := `INSERT INTO trading_signals (` + signalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (id) DO UPDATE SET
			current_price = EXCLUDED.current_price,
			status = EXCLUDED.status,
			current_pnl_pct = EXCLUDED.current_pnl_pct,
			max_profit_pct = EXCLUDED.max_profit_pct,
			max_loss_pct = EXCLUDED.max_loss_pct,
			final_pnl_pct = EXCLUDED.final_pnl_pct,
			target_hit = EXCLUDED.target_hit,
			trailing_stop = EXCLUDED.trailing_stop,
			closed_at = EXCLUDED.closed_at`

	_, err := s.db.Exec(ctx, query,
		sig.ID, sig.Symbol, string(sig.Type), string(sig.Source), sig.EntryPrice, sig.StopLoss,
		sig.Target1, sig.Target2, sig.Target3, sig.Confidence, sig.RiskReward, sig.EntryReason,
		sig.CreatedAt, sig.ExpiresAt, sig.CurrentPrice, string(sig.Status), sig.CurrentPnL, sig.MaxProfit,
		sig.MaxLoss, sig.FinalPnL, sig.TargetHit, sig.TrailingStop, sig.ClosedAt,
	)
	if err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}
	return nil
}

// GetByID retrieves a signal by ID.
func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*core.Signal, error) {
	row := s.db.QueryRow(ctx, `SELECT `+signalColumns+` FROM trading_signals WHERE id = $1`, id)
	sig, err := scanSignal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrSignalNotFound
	}
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	return sig, nil
}

// List returns matching signals, newest first.
func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]core.Signal, error) {
	where, args := buildWhere(filter)
	query := `SELECT ` + signalColumns + ` FROM trading_signals` + where + ` ORDER BY id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	defer rows.Close()

	out := []core.Signal{}
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, core.WrapError(core.ErrStoreFailed, err)
		}
		out = append(out, *sig)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	return out, nil
}

// Count returns the number of matching signals.
func (s *PostgresStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := buildWhere(filter)
	var n int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM trading_signals`+where, args...).Scan(&n); err != nil {
		return 0, core.WrapError(core.ErrStoreFailed, err)
	}
	return n, nil
}

// DeleteClosedBefore removes closed signals that closed before cutoff.
func (s *PostgresStore) DeleteClosedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM trading_signals WHERE status <> $1 AND closed_at IS NOT NULL AND closed_at < $2`,
		string(core.StatusActive), cutoff)
	if err != nil {
		return 0, core.WrapError(core.ErrStoreFailed, err)
	}
	return int(tag.RowsAffected()), nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// buildWhere renders the filter as a WHERE clause with positional arguments.
func buildWhere(f ListFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Symbol != "" {
		add("asset_symbol = $%d", f.Symbol)
	}
	if f.Type != "" {
		add("signal_type = $%d", string(f.Type))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.Source != "" {
		add("source = $%d", string(f.Source))
	}
	if !f.From.IsZero() {
		add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("created_at <= $%d", f.To)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanSignal(row pgx.Row) (*core.Signal, error) {
	var (
		sig                 core.Signal
		typ, source, status string
	)
	err := row.Scan(
		&sig.ID, &sig.Symbol, &typ, &source, &sig.EntryPrice, &sig.StopLoss,
		&sig.Target1, &sig.Target2, &sig.Target3, &sig.Confidence, &sig.RiskReward, &sig.EntryReason,
		&sig.CreatedAt, &sig.ExpiresAt, &sig.CurrentPrice, &status, &sig.CurrentPnL, &sig.MaxProfit,
		&sig.MaxLoss, &sig.FinalPnL, &sig.TargetHit, &sig.TrailingStop, &sig.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	sig.Type = core.SignalType(typ)
	sig.Source = core.Source(source)
	sig.Status = core.Status(status)
	return &sig, nil
}
