package utils

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Task is a unit of work run by Parallel.
type Task func(ctx context.Context) error

// Parallel runs every task concurrently and returns the first error.
// The context passed to the tasks is cancelled as soon as one fails.
func Parallel(ctx context.Context, tasks ...Task) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			return task(ctx)
		})
	}
	return g.Wait()
}

// WorkerPool runs fire-and-forget jobs on a fixed number of goroutines.
type WorkerPool struct {
	taskChan chan func()
	wg       sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

// NewWorkerPool starts maxWorkers workers. The queue holds twice as many jobs
// before Submit blocks.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	pool := &WorkerPool{
		taskChan: make(chan func(), maxWorkers*2),
	}

	for i := 0; i < maxWorkers; i++ {
		go pool.worker()
	}

	return pool
}

func (p *WorkerPool) worker() {
	for task := range p.taskChan {
		task()
		p.wg.Done()
	}
}

// Submit queues a job. It reports false and drops the job once the pool
// has been closed.
func (p *WorkerPool) Submit(task func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	p.wg.Add(1)
	p.taskChan <- task
	return true
}

// Wait blocks until every submitted job has finished.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

// Close stops accepting jobs and waits for the queued ones.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.taskChan)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
