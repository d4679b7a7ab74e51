// Package pool bounds concurrent query execution with an ants worker pool.
package pool

import (
	"errors"

	"github.com/panjf2000/ants/v2"
)

// ErrOverloaded is returned when the pool and its waiting queue are full.
// Handlers map it to 503 so callers back off instead of piling up.
var ErrOverloaded = errors.New("worker pool overloaded")

// Config sizes the pool.
type Config struct {
	// Capacity is the number of concurrently running tasks.
	Capacity int
	// MaxWaiting is how many submitters may block waiting for a worker
	// before submissions are rejected. 0 rejects immediately when full.
	MaxWaiting int
}

// Pool is a bounded task runner.
type Pool struct {
	inner *ants.Pool
}

// New creates a pool.
func New(cfg Config) (*Pool, error) {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 64
	}
	inner, err := ants.NewPool(cfg.Capacity,
		ants.WithNonblocking(cfg.MaxWaiting <= 0),
		ants.WithMaxBlockingTasks(cfg.MaxWaiting),
	)
	if err != nil {
		return nil, err
	}
	return &Pool{inner: inner}, nil
}

// Submit schedules a task. Returns ErrOverloaded when the pool cannot
// accept it.
func (p *Pool) Submit(task func()) error {
	err := p.inner.Submit(task)
	if errors.Is(err, ants.ErrPoolOverload) {
		return ErrOverloaded
	}
	return err
}

// Running returns the number of tasks currently executing.
func (p *Pool) Running() int {
	return p.inner.Running()
}

// Release stops the pool.
func (p *Pool) Release() {
	p.inner.Release()
}
