// Package worker runs CPU-bound image work on a fixed set of goroutines so
// request handlers never decode or encode on their own stacks.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var ErrPoolClosed = errors.New("worker pool closed")

// Job is one unit of work. ctx is the submitter's context.
type Job func(ctx context.Context) error

type task struct {
	ctx  context.Context
	job  Job
	done chan error
}

type Pool struct {
	tasks   chan task
	quit    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	logger  *zap.Logger
	size    int
	active  atomic.Int64
	pending atomic.Int64
}

// NewPool starts size workers. A job may fan out further on its own, so
// size bounds jobs in flight, not goroutines.
func NewPool(size int, logger *zap.Logger) *Pool {
	if size < 1 {
		size = 1
	}

	p := &Pool{
		tasks:  make(chan task),
		quit:   make(chan struct{}),
		logger: logger,
		size:   size,
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.run(i)
	}

	logger.Info("Worker pool started", zap.Int("workers", size))
	return p
}

// Submit blocks until job has run or ctx is done. When ctx ends first the
// job may still be running; it sees the same cancelled ctx and is expected
// to stop early.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	t := task{ctx: ctx, job: job, done: make(chan error, 1)}

	p.pending.Add(1)
	select {
	case p.tasks <- t:
		p.pending.Add(-1)
	case <-ctx.Done():
		p.pending.Add(-1)
		return ctx.Err()
	case <-p.quit:
		p.pending.Add(-1)
		return ErrPoolClosed
	}

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) run(workerID int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.quit:
			return
		case t := <-p.tasks:
			t.done <- p.execute(workerID, t)
		}
	}
}

func (p *Pool) execute(workerID int, t task) (err error) {
	if err := t.ctx.Err(); err != nil {
		return err
	}

	p.active.Add(1)
	defer p.active.Add(-1)

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Worker recovered from panic",
				zap.Int("worker_id", workerID),
				zap.Any("panic", r))
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()

	return t.job(t.ctx)
}

// Close stops accepting work and waits for running jobs to finish.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.quit)
		p.wg.Wait()
		p.logger.Info("Worker pool stopped")
	})
}

type Stats struct {
	Workers int   `json:"workers"`
	Active  int64 `json:"active"`
	Pending int64 `json:"pending"`
}

func (p *Pool) Stats() Stats {
	return Stats{
		Workers: p.size,
		Active:  p.active.Load(),
		Pending: p.pending.Load(),
	}
}
