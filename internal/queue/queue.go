package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

var ErrShuttingDown = errors.New("request queue is shutting down")

type Job struct {
	Fn   func() error
	Errc chan error
}

// RequestQueueManager runs handler jobs on a fixed pool of workers so the
// number of in-flight backend calls stays bounded.
type RequestQueueManager struct {
	JobQueue   chan Job
	MaxWorkers int
	log        zerolog.Logger
	wg         sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewRequestQueueManager(queueSize int, maxWorkers int, log zerolog.Logger) *RequestQueueManager {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	manager := &RequestQueueManager{
		JobQueue:   make(chan Job, queueSize),
		MaxWorkers: maxWorkers,
		log:        log.With().Str("component", "queue").Logger(),
	}
	manager.startWorkers()
	return manager
}

func (rqm *RequestQueueManager) startWorkers() {
	for i := 0; i < rqm.MaxWorkers; i++ {
		rqm.wg.Add(1)
		go func(workerID int) {
			defer rqm.wg.Done()
			rqm.log.Debug().Int("worker", workerID).Msg("worker started")
			for job := range rqm.JobQueue {
				err := job.Fn()
				if job.Errc != nil {
					job.Errc <- err
				}
			}
			rqm.log.Debug().Int("worker", workerID).Msg("worker stopped")
		}(i)
	}
}

// EnqueueJob blocks until a worker slot accepts job, ctx is done, or the
// queue shuts down. Errc must be buffered.
func (rqm *RequestQueueManager) EnqueueJob(ctx context.Context, job Job) error {
	rqm.mu.RLock()
	defer rqm.mu.RUnlock()
	if rqm.closed {
		return ErrShuttingDown
	}

	select {
	case rqm.JobQueue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish.
func (rqm *RequestQueueManager) Shutdown() {
	rqm.mu.Lock()
	if rqm.closed {
		rqm.mu.Unlock()
		return
	}
	rqm.closed = true
	close(rqm.JobQueue)
	rqm.mu.Unlock()

	rqm.wg.Wait()
	rqm.log.Info().Msg("request queue drained")
}
