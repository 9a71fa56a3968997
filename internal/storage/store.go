package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/sandeepkv93/todo/internal/config"
	"github.com/sandeepkv93/todo/internal/model"
	"go.uber.org/zap"
)

var (
	// ErrUnavailable marks failures of the underlying storage itself. Callers treat it as fatal.
	ErrUnavailable = errors.New("storage: unavailable")
	ErrClosed      = fmt.Errorf("%w: store closed", ErrUnavailable)
)

// ListResult is one delivery of the live task list. A non-nil Err ends the sequence.
type ListResult struct {
	Tasks []model.Task
	Err   error
}

type TaskStore interface {
	// Observe streams the full task list ordered by due date: once on subscription and
	// again after every committed write, until ctx ends.
	Observe(ctx context.Context) <-chan ListResult
	List(ctx context.Context) ([]model.Task, error)
	Insert(ctx context.Context, in model.Task) (int64, error)
	Update(ctx context.Context, in model.Task) (int64, error)
	Delete(ctx context.Context, in model.Task) (int64, error)
	Close() error
}

// Open builds the store selected by cfg and brings its schema up to date.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (TaskStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Driver {
	case config.DriverSQLite, "":
		store, err := OpenSQLite(cfg.Path, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	case config.DriverPostgres:
		store, err := OpenPostgres(ctx, cfg.DSN, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}

type options struct {
	logger *zap.Logger
}

type Option func(*options)

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
