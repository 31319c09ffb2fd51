package bridge

import (
	"context"
	"sync"
)

// Worker is a pool slot holding a lazily initialized value.
type Worker[T any] struct {
	id    int
	init  func(id int) (T, error)
	once  sync.Once
	ready bool
	val   T
	err   error
}

func (w *Worker[T]) ID() int { return w.id }

// Value initializes the worker on first use. A failed initialization is
// not retried.
func (w *Worker[T]) Value() (T, error) {
	w.once.Do(func() {
		w.val, w.err = w.init(w.id)
		w.ready = true
	})
	return w.val, w.err
}

// Pool hands out a fixed number of workers, each to one caller at a
// time. Acquiring blocks until a worker is free.
type Pool[T any] struct {
	workers   []*Worker[T]
	free      chan *Worker[T]
	done      chan struct{}
	closeOnce sync.Once
}

// NewPool creates a pool of size workers. init runs at most once per
// worker, on its first use. A size below 1 is treated as 1.
func NewPool[T any](size int, init func(id int) (T, error)) *Pool[T] {
	size = max(size, 1)
	p := &Pool[T]{
		workers: make([]*Worker[T], size),
		free:    make(chan *Worker[T], size),
		done:    make(chan struct{}),
	}
	for i := range p.workers {
		w := &Worker[T]{id: i, init: init}
		p.workers[i] = w
		p.free <- w
	}
	return p
}

func (p *Pool[T]) Size() int { return len(p.workers) }

func (p *Pool[T]) Acquire(ctx context.Context) (*Worker[T], error) {
	select {
	case <-p.done:
		return nil, ErrPoolClosed
	default:
	}
	select {
	case w := <-p.free:
		return w, nil
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pool[T]) Release(w *Worker[T]) {
	p.free <- w
}

// Do runs fn with an initialized worker value.
func (p *Pool[T]) Do(ctx context.Context, fn func(T) error) error {
	w, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(w)
	val, err := w.Value()
	if err != nil {
		return err
	}
	return fn(val)
}

// Close waits for all workers to be released and calls fn on every
// successfully initialized value. Later acquisitions fail with
// ErrPoolClosed.
func (p *Pool[T]) Close(fn func(T)) {
	p.closeOnce.Do(func() {
		close(p.done)
		for range len(p.workers) {
			w := <-p.free
			if fn != nil && w.ready && w.err == nil {
				fn(w.val)
			}
		}
	})
}
