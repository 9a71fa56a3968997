package registry

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sandeepkv93/todo/internal/metrics"
	"github.com/sandeepkv93/todo/internal/model"
	"github.com/sandeepkv93/todo/internal/storage"
)

const DefaultGracePeriod = 5 * time.Second

var ErrClosed = errors.New("registry: closed")

// Source is the part of a task store the registry depends on.
type Source interface {
	Observe(ctx context.Context) <-chan storage.ListResult
	Insert(ctx context.Context, in model.Task) (int64, error)
	Update(ctx context.Context, in model.Task) (int64, error)
	Delete(ctx context.Context, in model.Task) (int64, error)
}

// Registry holds the one shared live view of all tasks. The store subscription is
// started on the first Subscribe and kept warm for a grace period after the last
// subscriber leaves.
type Registry struct {
	src    Source
	grace  time.Duration
	logger *zap.Logger

	mu       sync.Mutex
	value    []model.Task
	subs     map[*Subscription]struct{}
	up       *upstream
	teardown *time.Timer
	gen      uint64
	lastErr  error
	closed   bool
}

type upstream struct {
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Registry)

// WithGracePeriod sets how long the upstream outlives its last subscriber. Zero stops
// it immediately.
func WithGracePeriod(d time.Duration) Option {
	return func(r *Registry) {
		if d >= 0 {
			r.grace = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

func New(src Source, opts ...Option) *Registry {
	r := &Registry{
		src:    src,
		grace:  DefaultGracePeriod,
		logger: zap.NewNop(),
		value:  []model.Task{},
		subs:   make(map[*Subscription]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscription receives the current list on creation and every distinct list after
// it. Only the latest undelivered list is kept.
type Subscription struct {
	r  *Registry
	ch chan []model.Task
}

func (s *Subscription) C() <-chan []model.Task {
	return s.ch
}

// Close detaches the subscription and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.r.detach(s)
}

func (r *Registry) Subscribe() *Subscription {
	sub := &Subscription{r: r, ch: make(chan []model.Task, 1)}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		close(sub.ch)
		return sub
	}

	sub.ch <- slices.Clone(r.value)
	r.subs[sub] = struct{}{}
	metrics.SetLiveViewSubscribers(len(r.subs))

	r.cancelTeardownLocked()
	if r.up == nil {
		r.startLocked()
	}
	return sub
}

// Value returns the most recently published list. It survives upstream teardown.
func (r *Registry) Value() []model.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.value)
}

func (r *Registry) Subscribers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// Active reports whether the store subscription is currently running.
func (r *Registry) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.up != nil
}

// Err returns the failure that ended the last upstream, if any.
func (r *Registry) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

func (r *Registry) Insert(ctx context.Context, in model.Task) (int64, error) {
	if r.isClosed() {
		return 0, ErrClosed
	}
	return r.src.Insert(ctx, in)
}

func (r *Registry) Update(ctx context.Context, in model.Task) (int64, error) {
	if r.isClosed() {
		return 0, ErrClosed
	}
	return r.src.Update(ctx, in)
}

func (r *Registry) Delete(ctx context.Context, in model.Task) (int64, error) {
	if r.isClosed() {
		return 0, ErrClosed
	}
	return r.src.Delete(ctx, in)
}

// Close stops the upstream without waiting for the grace period and closes every
// subscription.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.cancelTeardownLocked()
	up := r.up
	r.up = nil
	for sub := range r.subs {
		close(sub.ch)
	}
	clear(r.subs)
	metrics.SetLiveViewSubscribers(0)
	r.mu.Unlock()

	if up != nil {
		up.cancel()
		<-up.done
	}
	r.logger.Info("registry closed")
}

func (r *Registry) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Registry) detach(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[sub]; !ok {
		return
	}
	delete(r.subs, sub)
	close(sub.ch)
	metrics.SetLiveViewSubscribers(len(r.subs))

	if len(r.subs) > 0 || r.up == nil {
		return
	}
	if r.grace <= 0 {
		r.stopLocked("last subscriber left")
		return
	}
	r.gen++
	gen := r.gen
	r.teardown = time.AfterFunc(r.grace, func() { r.expire(gen) })
	r.logger.Debug("live view teardown scheduled", zap.Duration("grace", r.grace))
}

func (r *Registry) expire(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen || len(r.subs) > 0 || r.up == nil {
		return
	}
	r.teardown = nil
	r.stopLocked("grace period elapsed")
}

func (r *Registry) cancelTeardownLocked() {
	r.gen++
	if r.teardown != nil {
		r.teardown.Stop()
		r.teardown = nil
	}
}

func (r *Registry) startLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	up := &upstream{cancel: cancel, done: make(chan struct{})}
	r.up = up
	r.lastErr = nil
	feed := r.src.Observe(ctx)
	metrics.LiveViewUpstreamStarts.Inc()
	r.logger.Debug("live view upstream started")
	go r.run(up, feed)
}

// stopLocked cancels the upstream without waiting: run needs r.mu to finish.
func (r *Registry) stopLocked(reason string) {
	if r.up == nil {
		return
	}
	r.up.cancel()
	r.up = nil
	r.logger.Debug("live view upstream stopped", zap.String("reason", reason))
}

func (r *Registry) run(up *upstream, feed <-chan storage.ListResult) {
	defer close(up.done)
	var failure error
	for res := range feed {
		if res.Err != nil {
			failure = res.Err
			continue
		}
		r.publish(up, res.Tasks)
	}

	r.mu.Lock()
	if r.up == up {
		r.up = nil
		if failure != nil {
			r.failLocked(failure)
		}
	}
	r.mu.Unlock()
	up.cancel()
}

// failLocked records err and ends every current subscription, so consumers see the
// live view stop instead of a list that silently stops changing. The next Subscribe
// starts a fresh upstream.
func (r *Registry) failLocked(err error) {
	r.lastErr = err
	r.logger.Error("live view upstream failed", zap.Error(err), zap.Int("subscribers", len(r.subs)))
	r.cancelTeardownLocked()
	for sub := range r.subs {
		close(sub.ch)
	}
	clear(r.subs)
	metrics.SetLiveViewSubscribers(0)
}

func (r *Registry) publish(up *upstream, tasks []model.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.up != up || slices.Equal(r.value, tasks) {
		return
	}
	r.value = slices.Clone(tasks)
	for sub := range r.subs {
		offer(sub.ch, slices.Clone(tasks))
	}
	metrics.LiveViewDeliveries.Inc()
}

// offer replaces an unread list. Only the registry sends on ch, under r.mu, so the
// send after draining never blocks.
func offer(ch chan []model.Task, tasks []model.Task) {
	select {
	case <-ch:
	default:
	}
	ch <- tasks
}
