package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ErrEmptyToken is returned when a payment token is blank.
var ErrEmptyToken = errors.New("payment token is empty")

// RemoteService is the server the dispatcher talks to.
type RemoteService interface {
	// CurrentUser returns the signed-in user, or nil when nobody is signed in.
	CurrentUser(ctx context.Context) (*UserRecord, error)
	// SubmitPaymentToken charges the token and returns the updated user.
	SubmitPaymentToken(ctx context.Context, token string) (*UserRecord, error)
}

// Sink receives the events produced by completed tasks.
type Sink interface {
	Submit(ctx context.Context, e Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e Event) error

// Submit calls f.
func (f SinkFunc) Submit(ctx context.Context, e Event) error { return f(ctx, e) }

// DispatchSink delivers events straight to st, bypassing the apply loop.
// Submit returns once the event has been applied and announced, so it must
// not be called from a listener of st.
func DispatchSink(st *Store) Sink {
	return SinkFunc(func(_ context.Context, e Event) error { return st.dispatchAndWait(e) })
}

// Task is the pending result of one dispatched action.
type Task struct {
	done  chan struct{}
	event Event
	err   error
}

func newTask() *Task { return &Task{done: make(chan struct{})} }

func (t *Task) resolve(e Event, err error) {
	t.event, t.err = e, err
	close(t.done)
}

// Done is closed once the task has resolved.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task resolves or ctx is done. On success it returns
// the event that was handed to the sink.
func (t *Task) Wait(ctx context.Context) (Event, error) {
	select {
	case <-t.done:
		return t.event, t.err
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Dispatcher turns intents into remote calls and their results into events.
// Concurrent calls are neither coalesced nor ordered: events reach the sink
// in completion order.
type Dispatcher struct {
	remote RemoteService
	sink   Sink
	log    zerolog.Logger
}

// NewDispatcher returns a dispatcher that calls remote and delivers to sink.
func NewDispatcher(remote RemoteService, sink Sink, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{remote: remote, sink: sink, log: log}
}

// FetchCurrentUser asks the server who is signed in.
func (d *Dispatcher) FetchCurrentUser(ctx context.Context) *Task {
	return d.run(ctx, "fetch_current_user", func(ctx context.Context) (*UserRecord, error) {
		return d.remote.CurrentUser(ctx)
	})
}

// SubmitPaymentToken sends a payment provider token to the server, which
// charges it and credits the account.
func (d *Dispatcher) SubmitPaymentToken(ctx context.Context, token string) *Task {
	if strings.TrimSpace(token) == "" {
		t := newTask()
		t.resolve(Event{}, ErrEmptyToken)
		return t
	}
	return d.run(ctx, "submit_payment_token", func(ctx context.Context) (*UserRecord, error) {
		u, err := d.remote.SubmitPaymentToken(ctx, token)
		if err == nil && u == nil {
			err = fmt.Errorf("submit payment token: empty response")
		}
		return u, err
	})
}

func (d *Dispatcher) run(ctx context.Context, action string, call func(context.Context) (*UserRecord, error)) *Task {
	t := newTask()
	go func() {
		u, err := call(ctx)
		if err != nil {
			d.log.Debug().Err(err).Str("action", action).Msg("remote call failed")
			t.resolve(Event{}, fmt.Errorf("%s: %w", action, err))
			return
		}
		e := UserFetched(u)
		// The hand-off outlives the caller's context.
		if err := d.sink.Submit(context.WithoutCancel(ctx), e); err != nil {
			t.resolve(Event{}, fmt.Errorf("%s: deliver: %w", action, err))
			return
		}
		t.resolve(e, nil)
	}()
	return t
}
