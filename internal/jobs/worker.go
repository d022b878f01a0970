package jobs

import (
	"context"
	"log"
	"time"
)

// JobProcessor defines the interface for processing a batch of jobs.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker polls a JobProcessor at a fixed interval.
type Worker struct {
	name         string
	processor    JobProcessor
	pollInterval time.Duration
	stopChan     chan struct{}
	doneChan     chan struct{}
}

// NewWorker creates a new Worker instance.
func NewWorker(name string, processor JobProcessor, pollInterval time.Duration) *Worker {
	return &Worker{
		name:         name,
		processor:    processor,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start begins the worker's polling loop. It blocks until the context is
// cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("worker %s started (poll interval %v)", w.name, w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("worker %s stopped: context cancelled", w.name)
			return
		case <-w.stopChan:
			log.Printf("worker %s stopped: stop signal received", w.name)
			return
		case <-ticker.C:
			if err := w.processor.ProcessJobs(ctx); err != nil {
				log.Printf("worker %s: error processing jobs: %v", w.name, err)
			}
		}
	}
}

// Stop gracefully stops the worker and waits for the loop to exit.
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
	log.Printf("worker %s shutdown complete", w.name)
}
