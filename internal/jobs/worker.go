// Package jobs runs the background index job worker.
package jobs

import (
	"context"
	"log"
	"time"
)

// Processor handles one unit of queued work. ok is false when the queue was
// empty, so the worker sleeps instead of polling hot.
type Processor interface {
	ProcessNext(ctx context.Context) (ok bool, err error)
}

// Worker polls a Processor on an interval until stopped.
type Worker struct {
	processor Processor
	interval  time.Duration
	stopChan  chan struct{}
	doneChan  chan struct{}
}

// NewWorker creates a Worker.
func NewWorker(processor Processor, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Worker{
		processor: processor,
		interval:  interval,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Start launches the polling loop in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop signals the loop and waits for it to exit.
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.doneChan)
	log.Printf("jobs: worker started (interval=%s)", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			log.Println("jobs: worker stopped")
			return
		case <-ctx.Done():
			log.Println("jobs: worker context cancelled")
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain processes jobs until the queue is empty or the worker is stopped.
func (w *Worker) drain(ctx context.Context) {
	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		default:
		}

		ok, err := w.processor.ProcessNext(ctx)
		if err != nil {
			log.Printf("jobs: processing job: %v", err)
			return
		}
		if !ok {
			return
		}
	}
}
