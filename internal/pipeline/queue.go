package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/sadopc/inkwell/internal/logging"
	"github.com/sirupsen/logrus"
)

// Analyzer is what the queue workers call for each entry id.
type Analyzer interface {
	Analyze(ctx context.Context, entryID string) (Result, error)
}

// Queue runs analysis off the caller's path. Writers hand over an entry id
// and move on; failures are logged and dropped.
type Queue struct {
	analyzer Analyzer
	jobs     chan string
	timeout  time.Duration
	log      logrus.FieldLogger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewQueue starts workers goroutines reading from a buffer of size ids.
func NewQueue(a Analyzer, workers, size int, log logrus.FieldLogger) *Queue {
	if workers < 1 {
		workers = 1
	}
	if size < 0 {
		size = 0
	}
	if log == nil {
		log = logging.Discard()
	}
	q := &Queue{
		analyzer: a,
		jobs:     make(chan string, size),
		timeout:  30 * time.Second,
		log:      log,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	return q
}

func (q *Queue) work() {
	defer q.wg.Done()
	for id := range q.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		if _, err := q.analyzer.Analyze(ctx, id); err != nil {
			q.log.WithError(err).WithField("entry_id", id).Warn("background analysis failed")
		}
		cancel()
	}
}

// Enqueue schedules entryID for analysis without blocking. It returns false
// when the queue is full or closed.
func (q *Queue) Enqueue(entryID string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.jobs <- entryID:
		return true
	default:
		q.log.WithField("entry_id", entryID).Warn("analysis queue full, dropping entry")
		return false
	}
}

// Close stops accepting work and waits for queued ids to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()
	q.wg.Wait()
}
