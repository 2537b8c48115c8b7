package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (f *fakeExpirer) ExpireEnded(_ context.Context, today time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, today)
	return int64(len(f.calls)), f.err
}

func TestScheduler_AddExpirySweep(t *testing.T) {
	t.Run("rejects an invalid schedule", func(t *testing.T) {
		s := New()
		err := s.AddExpirySweep("every day", &fakeExpirer{}, time.Second)
		assert.Error(t, err)
	})

	t.Run("empty schedule registers nothing", func(t *testing.T) {
		s := New()
		require.NoError(t, s.AddExpirySweep("", &fakeExpirer{}, time.Second))
		assert.Empty(t, s.cron.Entries())
	})

	t.Run("registers a valid schedule", func(t *testing.T) {
		s := New()
		require.NoError(t, s.AddExpirySweep("0 3 * * *", &fakeExpirer{}, time.Second))
		assert.Len(t, s.cron.Entries(), 1)
	})
}

func TestScheduler_RunExpirySweep(t *testing.T) {
	t.Run("passes the current UTC time", func(t *testing.T) {
		fixed := time.Date(2026, 10, 19, 3, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
		s := New()
		s.now = func() time.Time { return fixed }

		e := &fakeExpirer{}
		s.RunExpirySweep(e, time.Second)

		require.Len(t, e.calls, 1)
		assert.Equal(t, time.UTC, e.calls[0].Location())
		assert.True(t, fixed.Equal(e.calls[0]))
	})

	t.Run("survives expirer errors", func(t *testing.T) {
		s := New()
		e := &fakeExpirer{err: errors.New("database is locked")}

		assert.NotPanics(t, func() { s.RunExpirySweep(e, time.Second) })
		assert.Len(t, e.calls, 1)
	})

	t.Run("stop without start returns", func(t *testing.T) {
		s := New()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	})
}
