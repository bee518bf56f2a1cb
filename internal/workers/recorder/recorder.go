// Package recorder appends completed assessments to the analysis log from a
// small pool of background workers, so request handlers never wait on storage.
package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"phishguard/internal/domain"
	"phishguard/internal/metrics"
	"phishguard/internal/ports"
)

const (
	DefaultQueueSize    = 256
	DefaultWorkers      = 2
	DefaultWriteTimeout = 5 * time.Second
)

type Options struct {
	QueueSize    int
	Workers      int
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

type Recorder struct {
	log     ports.AnalysisLog
	queue   chan domain.Record
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var _ ports.Recorder = (*Recorder)(nil)

// Start launches the workers. Call Close to drain the queue.
func Start(log ports.AnalysisLog, opts Options) *Recorder {
	if opts.QueueSize < 1 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Workers < 1 {
		opts.Workers = DefaultWorkers
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	r := &Recorder{
		log:     log,
		queue:   make(chan domain.Record, opts.QueueSize),
		timeout: opts.WriteTimeout,
		logger:  opts.Logger,
	}
	for i := 0; i < opts.Workers; i++ {
		r.wg.Add(1)
		go r.work(i)
	}
	return r
}

// Enqueue never blocks. It reports false when the queue is full or closed.
func (r *Recorder) Enqueue(rec domain.Record) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false
	}
	select {
	case r.queue <- rec:
		metrics.RecorderQueueDepth.Set(float64(len(r.queue)))
		return true
	default:
		metrics.AnalysisLogAppends.WithLabelValues("dropped").Inc()
		return false
	}
}

// Close stops accepting records and waits for the queue to drain or ctx to
// end, whichever comes first.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) work(idx int) {
	defer r.wg.Done()
	for rec := range r.queue {
		metrics.RecorderQueueDepth.Set(float64(len(r.queue)))
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		err := r.log.Append(ctx, rec)
		cancel()
		if err != nil {
			pf := &domain.PersistenceFailure{RecordID: rec.ID.String(), Err: err}
			metrics.AnalysisLogAppends.WithLabelValues("error").Inc()
			r.logger.Error("analysis log append failed",
				slog.Int("worker", idx),
				slog.String("error", pf.Error()))
			continue
		}
		metrics.AnalysisLogAppends.WithLabelValues("ok").Inc()
	}
}
