package client

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

var (
	// ErrMalformedEvent is returned by Dispatch for events whose payload fails validation.
	ErrMalformedEvent = errors.New("malformed event")
	// ErrStoreClosed is returned by Submit once the apply loop has stopped.
	ErrStoreClosed = errors.New("store closed")
)

const defaultInboxSize = 16

// Listener is called with the new state after every applied event.
type Listener func(State)

type subscription struct {
	id uint64
	fn Listener
}

// Store holds the session state. State only changes through Dispatch.
type Store struct {
	mu        sync.Mutex
	state     State
	version   uint64
	listeners []subscription
	nextID    uint64
	pending   []pendingEvent
	applying  bool

	inbox   chan Event
	done    chan struct{}
	closing sync.RWMutex
	runOnce sync.Once
	log     zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used by the apply loop.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithInboxSize sets the capacity of the Submit queue.
func WithInboxSize(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.inbox = make(chan Event, n)
		}
	}
}

// NewStore returns a store in the initial (unknown) state.
func NewStore(opts ...Option) *Store {
	s := &Store{
		state: InitialState(),
		inbox: make(chan Event, defaultInboxSize),
		done:  make(chan struct{}),
		log:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// GetState returns the current state.
func (s *Store) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Version returns the number of events applied so far.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Subscribe registers fn and returns a function that removes it. Listeners
// are notified in registration order.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Dispatch reduces e into the held state and notifies every listener in
// registration order. An application and its notifications form one unit:
// if another application is in progress, on this goroutine (a listener
// dispatching) or another, e is queued and the goroutine running that
// application applies it before returning. Otherwise e has been applied and
// announced when Dispatch returns.
func (s *Store) Dispatch(e Event) error {
	if err := e.validate(); err != nil {
		return err
	}
	s.enqueue(pendingEvent{event: e})
	return nil
}

// dispatchAndWait is Dispatch, but returns only after e has been applied
// and announced. It must not be called from a listener.
func (s *Store) dispatchAndWait(e Event) error {
	if err := e.validate(); err != nil {
		return err
	}
	applied := make(chan struct{})
	s.enqueue(pendingEvent{event: e, applied: applied})
	<-applied
	return nil
}

type pendingEvent struct {
	event   Event
	applied chan struct{}
}

func (s *Store) enqueue(p pendingEvent) {
	s.mu.Lock()
	s.pending = append(s.pending, p)
	if s.applying {
		s.mu.Unlock()
		return
	}
	s.applying = true
	s.mu.Unlock()
	s.drain()
}

// drain applies queued events one at a time until the queue is empty.
func (s *Store) drain() {
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.applying = false
			s.mu.Unlock()
			panic(r)
		}
	}()

	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.applying = false
			s.mu.Unlock()
			return
		}
		p := s.pending[0]
		s.pending[0] = pendingEvent{}
		s.pending = s.pending[1:]

		s.state = Reduce(s.state, p.event)
		s.version++
		next := s.state
		listeners := make([]subscription, len(s.listeners))
		copy(listeners, s.listeners)
		s.mu.Unlock()

		for _, sub := range listeners {
			sub.fn(next)
		}
		if p.applied != nil {
			close(p.applied)
		}
	}
}

// Submit queues e for the apply loop started by Run. An event accepted by
// Submit is applied even if Run is stopping.
func (s *Store) Submit(ctx context.Context, e Event) error {
	s.closing.RLock()
	defer s.closing.RUnlock()

	select {
	case <-s.done:
		return ErrStoreClosed
	default:
	}
	select {
	case s.inbox <- e:
		return nil
	case <-s.done:
		return ErrStoreClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run applies queued events in arrival order until ctx is done. On the way
// out it applies whatever Submit already accepted. Only the first call runs
// the loop; later calls return an error.
func (s *Store) Run(ctx context.Context) error {
	started := false
	s.runOnce.Do(func() { started = true })
	if !started {
		return errors.New("store: Run called twice")
	}

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return ctx.Err()
		case e := <-s.inbox:
			s.apply(e)
		}
	}
}

// shutdown closes the store to new submissions, waits for in-flight Submit
// calls, then applies everything left in the inbox.
func (s *Store) shutdown() {
	close(s.done)

	s.closing.Lock()
	var left []Event
	for drained := false; !drained; {
		select {
		case e := <-s.inbox:
			left = append(left, e)
		default:
			drained = true
		}
	}
	s.closing.Unlock()

	for _, e := range left {
		s.apply(e)
	}
}

func (s *Store) apply(e Event) {
	if err := s.Dispatch(e); err != nil {
		s.log.Error().Err(err).Str("kind", string(e.Kind)).Msg("event rejected")
	}
}
