package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReactorCompletes(t *testing.T) {
	r := newReactor(context.Background(), "http://x", time.Second)
	assert.Equal(t, statePending, r.state)
	r.start(func(ctx context.Context) {
		r.post(func() { r.complete() })
	})
	assert.NoError(t, r.run())
	assert.Equal(t, stateCompleted, r.state)
	assert.Equal(t, 1, r.stops)
}

func TestReactorStopsOnlyOnce(t *testing.T) {
	r := newReactor(context.Background(), "http://x", time.Second)
	firstErr := errors.New("first")
	r.start(func(ctx context.Context) {
		r.post(func() {
			r.fail(firstErr)
			r.complete()
			r.fail(errors.New("second"))
		})
	})
	assert.Equal(t, firstErr, r.run())
	assert.Equal(t, stateFailed, r.state)
	assert.Equal(t, 1, r.stops)
}

func TestReactorPostAfterStopIsDropped(t *testing.T) {
	r := newReactor(context.Background(), "http://x", time.Second)
	posted := make(chan bool, 1)
	r.start(func(ctx context.Context) {
		r.post(func() { r.complete() })
		posted <- r.post(func() { panic("should not run") })
	})
	require.NoError(t, r.run())
	assert.False(t, <-posted)
}

func TestReactorWithoutTimeoutUsesDefault(t *testing.T) {
	for _, timeout := range []time.Duration{0, -time.Second} {
		before := time.Now()
		r := newReactor(context.Background(), "http://x", timeout)
		deadline, ok := r.ctx.Deadline()
		require.True(t, ok)
		assert.False(t, deadline.Before(before.Add(DefaultRequestTimeout)))
		assert.True(t, deadline.Before(time.Now().Add(DefaultRequestTimeout+time.Second)))
		r.cancel()
	}
}

func TestReactorTimesOut(t *testing.T) {
	r := newReactor(context.Background(), "http://x/sub/1", time.Millisecond*50)
	r.start(func(ctx context.Context) {
		<-ctx.Done()
	})
	err := r.run()
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "http://x/sub/1", terr.URL)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 1, r.stops)
}

func TestReactorStopsWhenHandlerPanics(t *testing.T) {
	r := newReactor(context.Background(), "http://x", time.Second)
	r.start(func(ctx context.Context) {
		r.post(func() { panic("boom") })
	})
	assert.PanicsWithValue(t, "boom", func() { _ = r.run() })
	assert.Equal(t, stateFailed, r.state)
	assert.Equal(t, 1, r.stops)
	assert.Error(t, r.ctx.Err(), "context should be cancelled")
}

func TestReactorCannotStartTwice(t *testing.T) {
	r := newReactor(context.Background(), "http://x", time.Second)
	r.start(func(ctx context.Context) {})
	assert.Panics(t, func() { r.start(func(ctx context.Context) {}) })
	r.cancel()
}
