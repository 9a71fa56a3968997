package storage

import (
	"context"
	"sync"

	"github.com/sandeepkv93/todo/internal/model"
	"go.uber.org/zap"
)

// changeTracker fans a "table changed" signal out to every live list. Signals coalesce:
// a listener that has not consumed the previous one sees a single pending change.
type changeTracker struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]chan struct{}
}

func newChangeTracker() *changeTracker {
	return &changeTracker{listeners: make(map[int]chan struct{})}
}

func (t *changeTracker) listen() (<-chan struct{}, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	ch := make(chan struct{}, 1)
	t.listeners[id] = ch
	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.listeners, id)
	}
}

func (t *changeTracker) notify() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ch := range t.listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (t *changeTracker) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.listeners)
}

type listFunc func(ctx context.Context) ([]model.Task, error)

// observe re-runs list after every change signal. The listener is registered before
// the first query so no committed write can slip between the two.
func observe(ctx context.Context, tracker *changeTracker, list listFunc, logger *zap.Logger) <-chan ListResult {
	out := make(chan ListResult, 1)
	changes, stop := tracker.listen()
	go func() {
		defer close(out)
		defer stop()
		for {
			tasks, err := list(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				logger.Error("live task list query failed", zap.Error(err))
				deliver(out, ListResult{Err: err})
				return
			}
			deliver(out, ListResult{Tasks: tasks})

			select {
			case <-changes:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// deliver replaces an unread value so readers always see the latest list.
func deliver(out chan ListResult, res ListResult) {
	select {
	case <-out:
	default:
	}
	out <- res
}
