package thumbs

import (
	"sync"
	"time"

	"imsdly/internal/metrics"
)

// job is one unit of pending generation work.
type job struct {
	key    string
	path   string
	width  int
	height int
}

// jobQueue is a FIFO work queue supporting batched timed dequeue and
// front promotion of pending jobs. Channels cannot reorder buffered
// elements and sync.Cond has no timed wait, so the queue is a mutexed
// slice with a one-slot signal channel.
type jobQueue struct {
	mu     sync.Mutex
	jobs   []job
	signal chan struct{}
}

func newJobQueue() *jobQueue {
	return &jobQueue{signal: make(chan struct{}, 1)}
}

// Push appends a job to the back of the queue.
func (q *jobQueue) Push(j job) {
	q.mu.Lock()
	q.jobs = append(q.jobs, j)
	depth := len(q.jobs)
	q.mu.Unlock()

	metrics.ThumbnailQueueDepth.Set(float64(depth))
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// PopBatch removes up to max jobs from the front of the queue, waiting
// up to timeout for the first job. It returns nil when the timeout
// expires with the queue empty.
func (q *jobQueue) PopBatch(max int, timeout time.Duration) []job {
	deadline := time.Now().Add(timeout)
	for {
		q.mu.Lock()
		if len(q.jobs) > 0 {
			n := max
			if n > len(q.jobs) {
				n = len(q.jobs)
			}
			batch := make([]job, n)
			copy(batch, q.jobs[:n])
			q.jobs = q.jobs[n:]
			depth := len(q.jobs)
			q.mu.Unlock()

			metrics.ThumbnailQueueDepth.Set(float64(depth))
			if depth > 0 {
				// More work remains; wake another waiter.
				select {
				case q.signal <- struct{}{}:
				default:
				}
			}
			return batch
		}
		q.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}
		select {
		case <-q.signal:
		case <-time.After(remaining):
			return nil
		}
	}
}

// Promote moves the jobs whose keys are in the given set to the front
// of the queue, preserving their relative order. Jobs already dequeued
// are unaffected.
func (q *jobQueue) Promote(keys map[string]bool) {
	if len(keys) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	front := make([]job, 0, len(keys))
	rest := make([]job, 0, len(q.jobs))
	for _, j := range q.jobs {
		if keys[j.key] {
			front = append(front, j)
		} else {
			rest = append(rest, j)
		}
	}
	q.jobs = append(front, rest...)
}

// Drain removes and returns all pending jobs.
func (q *jobQueue) Drain() []job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.jobs
	q.jobs = nil
	metrics.ThumbnailQueueDepth.Set(0)
	return out
}

// Len returns the number of pending jobs.
func (q *jobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}
