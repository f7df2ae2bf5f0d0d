package client

// Reduce returns the state that follows s once e is applied. It never
// mutates s or e; payloads are copied into the returned state.
func Reduce(s State, e Event) State {
	switch e.Kind {
	case KindUserFetched:
		if e.Payload == nil {
			return State{Auth: Unauthenticated()}
		}
		return State{Auth: Authenticated(*e.Payload)}
	default:
		return s
	}
}
