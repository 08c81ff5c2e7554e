package sqlasync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hata-go/hata/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// FUTURE
// ══════════════════════════════════════════════════════════════════════════════

// Future is the pending result of a job submitted to the worker.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func failedFuture[T any](err error) *Future[T] {
	f := newFuture[T]()
	f.err = err
	close(f.done)
	return f
}

// Done is closed once the job finished.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the job finished or ctx is done. A cancelled wait does
// not cancel the job; it still runs to completion on the worker.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// WORKER
// ══════════════════════════════════════════════════════════════════════════════

// worker runs every job on one goroutine in submission order.
type worker struct {
	jobs    chan func()
	done    chan struct{}
	log     *logger.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
}

func newWorker(queueSize int, timeout time.Duration, log *logger.Logger) *worker {
	w := &worker{
		jobs:    make(chan func(), queueSize),
		done:    make(chan struct{}),
		log:     log,
		timeout: timeout,
	}
	go w.loop()
	return w
}

func (w *worker) loop() {
	defer close(w.done)
	for job := range w.jobs {
		job()
	}
}

// enqueue hands a job to the worker. It blocks while the queue is full.
func (w *worker) enqueue(ctx context.Context, job func()) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return ErrEngineClosed
	}

	select {
	case w.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shutdown runs final after every queued job, stops the worker and waits
// for it to exit. Later calls only wait.
func (w *worker) shutdown(final func()) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	if final != nil {
		w.jobs <- final
	}
	close(w.jobs)
	w.mu.Unlock()

	<-w.done
}

// statementContext detaches a job from the caller's cancellation and bounds
// it by the statement timeout instead.
func (w *worker) statementContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if w.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, w.timeout)
}

func (w *worker) isClosed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.closed
}

// submit schedules fn on the worker and returns its future.
func submit[T any](ctx context.Context, w *worker, fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	job := func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				w.log.Error("sqlasync job panicked", logger.Any("panic", r))
				f.err = fmt.Errorf("%w: %v", ErrWorkerPanic, r)
			}
		}()
		f.value, f.err = fn()
	}
	if err := w.enqueue(ctx, job); err != nil {
		return failedFuture[T](err)
	}
	return f
}

// run submits fn and waits for it.
func run[T any](ctx context.Context, w *worker, fn func() (T, error)) (T, error) {
	return submit(ctx, w, fn).Wait(ctx)
}

// claim runs fn like run, but a value produced after the caller stopped
// waiting is handed to release on the worker instead of leaking.
func claim[T any](ctx context.Context, w *worker, fn func() (T, error), release func(T)) (T, error) {
	var (
		mu        sync.Mutex
		finished  bool
		abandoned bool
	)
	f := submit(ctx, w, func() (T, error) {
		v, err := fn()
		mu.Lock()
		defer mu.Unlock()
		finished = true
		if err == nil && abandoned {
			release(v)
		}
		return v, err
	})

	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
	}

	mu.Lock()
	if !finished {
		abandoned = true
		mu.Unlock()
		var zero T
		return zero, ctx.Err()
	}
	mu.Unlock()
	<-f.done
	return f.value, f.err
}
