package recorder_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phishguard/internal/domain"
	"phishguard/internal/workers/recorder"
)

type stubLog struct {
	mu       sync.Mutex
	records  []domain.Record
	onAppend func(ctx context.Context, rec domain.Record) error
}

func (s *stubLog) Append(ctx context.Context, rec domain.Record) error {
	if s.onAppend != nil {
		if err := s.onAppend(ctx, rec); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *stubLog) Scan(context.Context, func(domain.Record) error) error { return nil }
func (s *stubLog) Close() error                                          { return nil }

func (s *stubLog) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func rec() domain.Record {
	return domain.Record{Assessment: domain.Assessment{ID: uuid.New()}}
}

func TestRecorder_DrainsOnClose(t *testing.T) {
	log := &stubLog{}
	r := recorder.Start(log, recorder.Options{QueueSize: 64, Workers: 3, Logger: quiet()})

	for i := 0; i < 50; i++ {
		require.True(t, r.Enqueue(rec()))
	}
	require.NoError(t, r.Close(context.Background()))

	assert.Equal(t, 50, log.len())
}

func TestRecorder_FullQueueDropsWithoutBlocking(t *testing.T) {
	release := make(chan struct{})
	log := &stubLog{onAppend: func(context.Context, domain.Record) error {
		<-release
		return nil
	}}
	r := recorder.Start(log, recorder.Options{QueueSize: 1, Workers: 1, Logger: quiet()})

	accepted := 0
	start := time.Now()
	for i := 0; i < 10; i++ {
		if r.Enqueue(rec()) {
			accepted++
		}
	}

	assert.Less(t, time.Since(start), time.Second)
	// one held by the blocked worker at most, one in the buffer
	assert.LessOrEqual(t, accepted, 2)
	assert.GreaterOrEqual(t, accepted, 1)

	close(release)
	require.NoError(t, r.Close(context.Background()))
	assert.Equal(t, accepted, log.len())
}

func TestRecorder_EnqueueAfterClose(t *testing.T) {
	r := recorder.Start(&stubLog{}, recorder.Options{Logger: quiet()})
	require.NoError(t, r.Close(context.Background()))

	assert.False(t, r.Enqueue(rec()))
	// Closing twice is harmless.
	assert.NoError(t, r.Close(context.Background()))
}

func TestRecorder_AppendErrorsAreAbsorbed(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	log := &stubLog{onAppend: func(context.Context, domain.Record) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return errors.New("disk full")
		}
		return nil
	}}
	r := recorder.Start(log, recorder.Options{Workers: 1, Logger: quiet()})

	r.Enqueue(rec())
	r.Enqueue(rec())
	require.NoError(t, r.Close(context.Background()))

	assert.Equal(t, 1, log.len())
}

func TestRecorder_CloseHonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	log := &stubLog{onAppend: func(context.Context, domain.Record) error {
		<-release
		return nil
	}}
	r := recorder.Start(log, recorder.Options{Workers: 1, Logger: quiet()})
	require.True(t, r.Enqueue(rec()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, r.Close(ctx), context.DeadlineExceeded)
}
