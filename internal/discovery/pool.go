package discovery

import (
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrPoolExhausted is returned when the pool's queue is full.
	ErrPoolExhausted = errors.New("worker pool queue is full")
	// ErrPoolClosed is returned when submitting to a closed pool.
	ErrPoolClosed = errors.New("worker pool is closed")
)

// Pool runs submitted tasks on a bounded set of workers.
type Pool interface {
	// Submit queues task without blocking. It fails when the pool cannot
	// accept more work.
	Submit(task func()) error
	// Close stops accepting tasks and waits for queued ones to finish.
	Close()
}

// PoolFactory creates a pool for one scan pass.
type PoolFactory func(workers, queue int) Pool

// WorkerPool is a fixed number of workers draining a bounded queue.
type WorkerPool struct {
	mu     sync.RWMutex
	tasks  chan func()
	closed bool
	g      errgroup.Group
}

// NewWorkerPool starts workers goroutines sharing a queue of the given size.
func NewWorkerPool(workers, queue int) Pool {
	if workers < 1 {
		workers = 1
	}
	if queue < 0 {
		queue = 0
	}

	p := &WorkerPool{tasks: make(chan func(), queue)}
	p.g.SetLimit(workers)
	for i := 0; i < workers; i++ {
		p.g.Go(func() error {
			for task := range p.tasks {
				task()
			}
			return nil
		})
	}
	return p
}

// Submit queues task for the next free worker.
func (p *WorkerPool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolExhausted
	}
}

// Close stops the pool once the queue drains.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	_ = p.g.Wait()
}
