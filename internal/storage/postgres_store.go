package storage

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sandeepkv93/todo/internal/metrics"
	"github.com/sandeepkv93/todo/internal/model"
	"go.uber.org/zap"
)

const (
	driverPostgres = "postgres"
	writeTimeout   = 30 * time.Second
)

// PostgresStore keeps the same contract as SQLiteStore. Live lists are driven by the
// in-process change tracker, so only writes made through this store are observed.
type PostgresStore struct {
	pool    *pgxpool.Pool
	tracker *changeTracker
	logger  *zap.Logger
	closed  atomic.Bool
}

func OpenPostgres(ctx context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	o := buildOptions(opts)
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, unavailable("create postgres pool", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, unavailable("ping postgres", err)
	}

	o.logger.Info("postgres store opened",
		zap.String("host", cfg.ConnConfig.Host),
		zap.Uint16("port", cfg.ConnConfig.Port),
		zap.String("db", cfg.ConnConfig.Database),
	)
	return NewPostgresStore(pool, opts...), nil
}

func NewPostgresStore(pool *pgxpool.Pool, opts ...Option) *PostgresStore {
	o := buildOptions(opts)
	return &PostgresStore{pool: pool, tracker: newChangeTracker(), logger: o.logger}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	exec := func(ctx context.Context, stmt string) error {
		_, err := s.pool.Exec(ctx, stmt)
		return err
	}
	if err := applyMigrations(ctx, exec, dialectPostgres, ".up.sql"); err != nil {
		return classifyPostgres("migrate", err)
	}
	return nil
}

func (s *PostgresStore) migrateDown(ctx context.Context) error {
	exec := func(ctx context.Context, stmt string) error {
		_, err := s.pool.Exec(ctx, stmt)
		return err
	}
	return applyMigrations(ctx, exec, dialectPostgres, ".down.sql")
}

func (s *PostgresStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.pool.Close()
	s.logger.Info("postgres store closed")
	return nil
}

func (s *PostgresStore) Observe(ctx context.Context) <-chan ListResult {
	return observe(ctx, s.tracker, s.List, s.logger)
}

func (s *PostgresStore) List(ctx context.Context) ([]model.Task, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	defer s.track("list", time.Now())

	rows, err := s.pool.Query(ctx, `SELECT id, title, description, due_date FROM task ORDER BY due_date ASC, id ASC`)
	if err != nil {
		return nil, classifyPostgres("list tasks", err)
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.DueDate); err != nil {
			return nil, classifyPostgres("scan task", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyPostgres("list tasks", err)
	}
	return out, nil
}

func (s *PostgresStore) Insert(ctx context.Context, in model.Task) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	ctx, cancel, err := writeContext(ctx)
	if err != nil {
		return 0, err
	}
	defer cancel()
	defer s.track("insert", time.Now())

	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO task (title, description, due_date) VALUES ($1, $2, $3) RETURNING id`,
		in.Title, in.Description, in.DueDate,
	).Scan(&id)
	if err != nil {
		return 0, classifyPostgres("insert task", err)
	}
	s.tracker.notify()
	return id, nil
}

func (s *PostgresStore) Update(ctx context.Context, in model.Task) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	ctx, cancel, err := writeContext(ctx)
	if err != nil {
		return 0, err
	}
	defer cancel()
	defer s.track("update", time.Now())

	tag, err := s.pool.Exec(ctx,
		`UPDATE task SET title = $1, description = $2, due_date = $3 WHERE id = $4`,
		in.Title, in.Description, in.DueDate, in.ID,
	)
	if err != nil {
		return 0, classifyPostgres("update task", err)
	}
	return s.afterWrite(tag), nil
}

func (s *PostgresStore) Delete(ctx context.Context, in model.Task) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	ctx, cancel, err := writeContext(ctx)
	if err != nil {
		return 0, err
	}
	defer cancel()
	defer s.track("delete", time.Now())

	tag, err := s.pool.Exec(ctx, `DELETE FROM task WHERE id = $1`, in.ID)
	if err != nil {
		return 0, classifyPostgres("delete task", err)
	}
	return s.afterWrite(tag), nil
}

// writeContext detaches a write from its caller's cancellation once it is dispatched.
// A statement cancelled mid-flight may still commit on the server, which would leave
// the caller with a context error for a write that happened and the live view without
// its change notification. Writes are bounded by writeTimeout instead.
func writeContext(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	return wctx, cancel, nil
}

func (s *PostgresStore) afterWrite(tag pgconn.CommandTag) int64 {
	affected := tag.RowsAffected()
	if affected > 0 {
		s.tracker.notify()
	}
	return affected
}

func (s *PostgresStore) track(op string, start time.Time) {
	took := time.Since(start)
	metrics.RecordStoreQuery(driverPostgres, op, took)
	if took > slowQueryThreshold {
		s.logger.Warn("slow-query", zap.String("driver", driverPostgres), zap.String("operation", op), zap.Duration("took", took))
	}
}

func classifyPostgres(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return unavailable(op, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 08: connection exception, class 53: insufficient resources
		if len(pgErr.Code) == 5 && (pgErr.Code[:2] == "08" || pgErr.Code[:2] == "53") {
			return unavailable(op, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
