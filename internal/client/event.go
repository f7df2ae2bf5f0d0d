package client

import "fmt"

// EventKind names an event type.
type EventKind string

// KindUserFetched carries the latest user document from the server.
const KindUserFetched EventKind = "USER_FETCHED"

// Event describes something that happened, to be reduced into State.
type Event struct {
	Kind EventKind
	// Payload is the fetched user, or nil when nobody is signed in.
	Payload *UserRecord
}

// UserFetched builds a KindUserFetched event. A nil u means unauthenticated.
func UserFetched(u *UserRecord) Event {
	if u == nil {
		return Event{Kind: KindUserFetched}
	}
	cp := *u
	return Event{Kind: KindUserFetched, Payload: &cp}
}

func (e Event) validate() error {
	if e.Kind == KindUserFetched && e.Payload != nil {
		if err := e.Payload.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
	}
	return nil
}
