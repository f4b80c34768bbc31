// Package task runs background work where only the most recent request
// matters.
package task

import (
	"context"
	"sync"
)

// Result is delivered on Latest.Results for a finished task.
type Result[T any] struct {
	Seq   uint64
	Value T
	Err   error
}

// Latest runs at most one live task. Submitting a new task cancels the
// previous one, and results from superseded or cancelled tasks are never
// delivered. Results travel over one channel read by a single consumer.
type Latest[T any] struct {
	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	results chan Result[T]
	done    chan struct{}
	closed  bool
}

func NewLatest[T any]() *Latest[T] {
	return &Latest[T]{
		results: make(chan Result[T], 1),
		done:    make(chan struct{}),
	}
}

// Submit starts fn in a new goroutine and returns its sequence number. fn
// must check ctx and return early once it is cancelled.
func (l *Latest[T]) Submit(parent context.Context, fn func(ctx context.Context) (T, error)) uint64 {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return 0
	}
	if l.cancel != nil {
		l.cancel()
	}
	l.seq++
	seq := l.seq
	ctx, cancel := context.WithCancel(parent)
	l.cancel = cancel
	l.mu.Unlock()

	go func() {
		v, err := fn(ctx)
		if ctx.Err() != nil || !l.IsCurrent(seq) {
			return
		}
		select {
		case l.results <- Result[T]{Seq: seq, Value: v, Err: err}:
		case <-ctx.Done():
		case <-l.done:
		}
	}()
	return seq
}

// Results delivers finished tasks. A result may become stale between send
// and receive, so consumers should check IsCurrent before applying it.
func (l *Latest[T]) Results() <-chan Result[T] { return l.results }

// IsCurrent reports whether seq is the latest submitted task.
func (l *Latest[T]) IsCurrent(seq uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return seq != 0 && seq == l.seq && !l.closed
}

// Cancel stops the in-flight task, if any, and marks it stale.
func (l *Latest[T]) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.seq++
}

// Close cancels outstanding work. Submit is a no-op afterwards.
func (l *Latest[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	close(l.done)
}
