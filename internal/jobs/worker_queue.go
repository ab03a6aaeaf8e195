package jobs

import (
	"strings"

	"github.com/vytor/flashdeck/internal/worker"
)

// WorkerQueue implements JobQueue using a worker pool
type WorkerQueue struct {
	pool       *worker.Pool
	multimedia worker.MultimediaPreviewer
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(pool *worker.Pool, multimedia worker.MultimediaPreviewer) JobQueue {
	return &WorkerQueue{pool: pool, multimedia: multimedia}
}

func (q *WorkerQueue) EnqueuePrefetch(word string) error {
	return q.pool.Submit(&worker.PrefetchMultimediaJob{
		Multimedia: q.multimedia,
		Word:       strings.TrimSpace(word),
	})
}
