package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dukerupert/mesa/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepRemovesExpiredSessions(t *testing.T) {
	store := session.NewStore(time.Nanosecond)

	_, err := store.Create()
	require.NoError(t, err)
	_, err = store.Create()
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	sweeper := NewSessionSweeper(store, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	sweeper.sweep()

	assert.Equal(t, 0, store.Len())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := session.NewStore(time.Hour)
	sweeper := NewSessionSweeper(store, time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
