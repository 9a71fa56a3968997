package controller

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sandeepkv93/todo/internal/metrics"
	"github.com/sandeepkv93/todo/internal/model"
	"github.com/sandeepkv93/todo/internal/registry"
)

// TaskRegistry is what a controller needs from the shared live view.
type TaskRegistry interface {
	Subscribe() *registry.Subscription
	Value() []model.Task
	Insert(ctx context.Context, in model.Task) (int64, error)
	Update(ctx context.Context, in model.Task) (int64, error)
	Delete(ctx context.Context, in model.Task) (int64, error)
}

// Controller adapts the registry to one presentation surface. Mutations run on
// goroutines owned by the controller and are cancelled by Close.
type Controller struct {
	reg     TaskRegistry
	logger  *zap.Logger
	session string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

type Option func(*Controller)

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

func New(parent context.Context, reg TaskRegistry, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(parent)
	c := &Controller{
		reg:     reg,
		logger:  zap.NewNop(),
		session: uuid.NewString(),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("session", c.session))
	return c
}

func (c *Controller) Session() string {
	return c.session
}

// Tasks exposes the registry's live view unchanged.
func (c *Controller) Tasks() *registry.Subscription {
	return c.reg.Subscribe()
}

// Task looks id up in the last list the live view delivered. It never reads the
// store, so a task inserted moments ago is missing until the view catches up.
func (c *Controller) Task(id int64) (model.Task, bool) {
	return model.Find(c.reg.Value(), id)
}

func (c *Controller) Insert(in model.Task) *Pending {
	return c.submit(OpInsert, in, c.reg.Insert)
}

func (c *Controller) Update(in model.Task) *Pending {
	return c.submit(OpUpdate, in, c.reg.Update)
}

func (c *Controller) Delete(in model.Task) *Pending {
	return c.submit(OpDelete, in, c.reg.Delete)
}

// Close cancels unfinished mutations and waits for their goroutines.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	c.logger.Debug("controller closed")
}

type mutateFunc func(ctx context.Context, in model.Task) (int64, error)

func (c *Controller) submit(op Op, in model.Task, fn mutateFunc) *Pending {
	p := newPending()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		p.finish(c.settle(op, in, 0, context.Canceled, 0))
		return p
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		start := time.Now()
		if err := c.ctx.Err(); err != nil {
			p.finish(c.settle(op, in, 0, err, time.Since(start)))
			return
		}
		n, err := fn(c.ctx, in)
		p.finish(c.settle(op, in, n, err, time.Since(start)))
	}()
	return p
}

func (c *Controller) settle(op Op, in model.Task, n int64, err error, took time.Duration) Outcome {
	out := Outcome{Op: op, TaskID: in.ID, Err: classify(op, err)}
	if out.Err == nil {
		if op == OpInsert {
			out.TaskID = n
			out.Affected = 1
		} else {
			out.Affected = n
		}
	}

	kind := out.Kind()
	label := string(kind)
	if kind == KindNone {
		label = "ok"
	}
	metrics.IncrementMutation(string(op), label)

	fields := []zap.Field{
		zap.String("op", string(op)),
		zap.Int64("task_id", out.TaskID),
		zap.Int64("affected", out.Affected),
		zap.Duration("took", took),
	}
	switch kind {
	case KindNone:
		c.logger.Debug("mutation applied", fields...)
	case KindCanceled:
		c.logger.Info("mutation canceled", append(fields, zap.Error(out.Err))...)
	default:
		c.logger.Error("mutation failed", append(fields, zap.String("kind", label), zap.Error(out.Err))...)
	}
	return out
}
