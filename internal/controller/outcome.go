package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/sandeepkv93/todo/internal/registry"
	"github.com/sandeepkv93/todo/internal/storage"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

type ErrorKind string

const (
	KindNone        ErrorKind = ""
	KindUnavailable ErrorKind = "unavailable"
	KindCanceled    ErrorKind = "canceled"
	KindUnexpected  ErrorKind = "unexpected"
)

type MutationError struct {
	Op   Op
	Kind ErrorKind
	Err  error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s task: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// Outcome reports what a mutation did. A missing row on update or delete is not an
// error: Affected is simply 0.
type Outcome struct {
	Op       Op
	TaskID   int64
	Affected int64
	Err      error
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

func (o Outcome) Kind() ErrorKind {
	var me *MutationError
	if errors.As(o.Err, &me) {
		return me.Kind
	}
	if o.Err != nil {
		return KindUnexpected
	}
	return KindNone
}

func classify(op Op, err error) error {
	if err == nil {
		return nil
	}
	kind := KindUnexpected
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, registry.ErrClosed):
		kind = KindCanceled
	case errors.Is(err, storage.ErrUnavailable):
		kind = KindUnavailable
	}
	return &MutationError{Op: op, Kind: kind, Err: err}
}

// Pending is the handle for a mutation running in the background. Callers that do not
// care about the result can drop it.
type Pending struct {
	done    chan struct{}
	outcome Outcome
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) finish(o Outcome) {
	p.outcome = o
	close(p.done)
}

func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Outcome blocks until the mutation has finished.
func (p *Pending) Outcome() Outcome {
	<-p.done
	return p.outcome
}

// Wait is Outcome bounded by ctx.
func (p *Pending) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-p.done:
		return p.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}
