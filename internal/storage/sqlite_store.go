package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/sandeepkv93/todo/internal/metrics"
	"github.com/sandeepkv93/todo/internal/model"
	"go.uber.org/zap"
)

const (
	driverSQLite       = "sqlite"
	slowQueryThreshold = 100 * time.Millisecond
)

type SQLiteStore struct {
	db      *sql.DB
	tracker *changeTracker
	logger  *zap.Logger
	closed  atomic.Bool
}

// NewSQLiteStore wraps an open handle. Writes are serialized through a single pooled
// connection, which also keeps ":memory:" databases alive for the store's lifetime.
func NewSQLiteStore(db *sql.DB, opts ...Option) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	o := buildOptions(opts)
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	return &SQLiteStore{db: db, tracker: newChangeTracker(), logger: o.logger}, nil
}

func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage: empty sqlite path")
	}
	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, unavailable("open sqlite", err)
	}
	store, err := NewSQLiteStore(db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, classifySQLite("ping sqlite", err)
	}
	store.logger.Info("sqlite store opened", zap.String("path", path))
	return store, nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000"
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if err := MigrateUp(ctx, s.db); err != nil {
		return classifySQLite("migrate", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.logger.Info("sqlite store closed")
	return s.db.Close()
}

func (s *SQLiteStore) Observe(ctx context.Context) <-chan ListResult {
	return observe(ctx, s.tracker, s.List, s.logger)
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.Task, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	defer s.track("list", time.Now())

	rows, err := s.db.QueryContext(ctx, `SELECT id, title, description, dueDate FROM Task ORDER BY dueDate ASC, id ASC`)
	if err != nil {
		return nil, classifySQLite("list tasks", err)
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, classifySQLite("scan task", scanErr)
		}
		out = append(out, task)
	}
	if err := rows.Err(); err != nil {
		return nil, classifySQLite("list tasks", err)
	}
	return out, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, in model.Task) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	defer s.track("insert", time.Now())

	res, err := s.db.ExecContext(ctx, `INSERT INTO Task (title, description, dueDate) VALUES (?, ?, ?)`,
		in.Title, in.Description, in.DueDate,
	)
	if err != nil {
		return 0, classifySQLite("insert task", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, classifySQLite("insert task", err)
	}
	s.tracker.notify()
	return id, nil
}

func (s *SQLiteStore) Update(ctx context.Context, in model.Task) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	defer s.track("update", time.Now())

	res, err := s.db.ExecContext(ctx, `UPDATE Task SET title = ?, description = ?, dueDate = ? WHERE id = ?`,
		in.Title, in.Description, in.DueDate, in.ID,
	)
	if err != nil {
		return 0, classifySQLite("update task", err)
	}
	return s.afterWrite(res, "update task")
}

func (s *SQLiteStore) Delete(ctx context.Context, in model.Task) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	defer s.track("delete", time.Now())

	res, err := s.db.ExecContext(ctx, `DELETE FROM Task WHERE id = ?`, in.ID)
	if err != nil {
		return 0, classifySQLite("delete task", err)
	}
	return s.afterWrite(res, "delete task")
}

// afterWrite notifies live lists only when a row actually changed.
func (s *SQLiteStore) afterWrite(res sql.Result, op string) (int64, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, classifySQLite(op, err)
	}
	if affected > 0 {
		s.tracker.notify()
	}
	return affected, nil
}

func (s *SQLiteStore) track(op string, start time.Time) {
	took := time.Since(start)
	metrics.RecordStoreQuery(driverSQLite, op, took)
	if took > slowQueryThreshold {
		s.logger.Warn("slow-query", zap.String("driver", driverSQLite), zap.String("operation", op), zap.Duration("took", took))
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (model.Task, error) {
	var out model.Task
	var title, description sql.NullString
	if err := s.Scan(&out.ID, &title, &description, &out.DueDate); err != nil {
		return model.Task{}, err
	}
	out.Title = title.String
	out.Description = description.String
	return out, nil
}

func classifySQLite(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, sql.ErrConnDone) {
		return unavailable(op, err)
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.Code {
		case sqlite3.ErrCantOpen, sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrIoErr,
			sqlite3.ErrFull, sqlite3.ErrReadonly, sqlite3.ErrNotADB, sqlite3.ErrCorrupt, sqlite3.ErrPerm:
			return unavailable(op, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
