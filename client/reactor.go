package client

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type callState int

const (
	statePending callState = iota
	stateInFlight
	stateCompleted
	stateFailed
)

func (s callState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateInFlight:
		return "in flight"
	case stateCompleted:
		return "completed"
	case stateFailed:
		return "failed"
	default:
		return fmt.Sprintf("callState(%d)", int(s))
	}
}

func (s callState) terminal() bool {
	return s == stateCompleted || s == stateFailed
}

// reactor is the event loop for a single verification call.
//
// Network I/O happens on a separate goroutine, but it never touches the call's state: it
// posts events, and every event runs on the goroutine that called run. The only way out of
// the loop is finish, which moves the call to a terminal state and stops the reactor. finish
// ignores every call after the first, so the reactor is stopped exactly once no matter how
// many of the response, error, end-of-stream and timeout paths fire.
type reactor struct {
	url      string
	ctx      context.Context
	cancel   context.CancelFunc
	events   chan func()
	state    callState
	err      error
	received strings.Builder
	stops    int
}

// newReactor creates a reactor whose call ends after timeout. A non-positive timeout means
// DefaultRequestTimeout; there is no way to create a call without a time limit.
func newReactor(parent context.Context, url string, timeout time.Duration) *reactor {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	return &reactor{
		url:    url,
		ctx:    ctx,
		cancel: cancel,
		events: make(chan func()),
	}
}

// start moves the call from pending to in flight and begins its I/O.
func (r *reactor) start(io func(ctx context.Context)) {
	if r.state != statePending {
		panic("reactor started twice")
	}
	r.state = stateInFlight
	go io(r.ctx)
}

// post schedules fn to run on the loop. It returns false without running fn once the
// reactor has stopped.
func (r *reactor) post(fn func()) bool {
	select {
	case r.events <- fn:
		return true
	case <-r.ctx.Done():
		return false
	}
}

// run processes events until the call reaches a terminal state, and returns the call's
// error if it failed. A panic in an event handler fails the call before being passed on.
func (r *reactor) run() (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.fail(fmt.Errorf("panic while handling response from %s: %v", r.url, p))
			panic(p)
		}
	}()
	for !r.state.terminal() {
		select {
		case fn := <-r.events:
			fn()
		case <-r.ctx.Done():
			r.fail(&TransportError{URL: r.url, Partial: r.received.String(), Err: r.ctx.Err()})
		}
	}
	return r.err
}

func (r *reactor) complete() {
	r.finish(stateCompleted, nil)
}

func (r *reactor) fail(err error) {
	r.finish(stateFailed, err)
}

func (r *reactor) finish(state callState, err error) {
	if r.state.terminal() {
		return
	}
	r.state = state
	r.err = err
	r.stops++
	r.cancel()
}
