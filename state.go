package session

// State is the lifecycle state of the client session.
type State string

const (
	// StateUninitialized means the controller has not started yet.
	StateUninitialized State = "uninitialized"
	// StateLoading means a sign-in event is being resolved into claims.
	StateLoading State = "loading"
	// StateAuthenticated means a principal exists and usable claims are
	// held (possibly stale while a refresh is in flight).
	StateAuthenticated State = "authenticated"
	// StateUnauthenticated means no session exists.
	StateUnauthenticated State = "unauthenticated"
)

// stateTransitions is the legality table for session state changes. The
// refreshing sub-state is a flag on the controller, not a state: the UI keeps
// seeing Authenticated with stale claims while claims re-resolve.
var stateTransitions = map[State]map[State]struct{}{
	StateUninitialized: {
		StateLoading:         {},
		StateUnauthenticated: {},
	},
	StateLoading: {
		StateAuthenticated:   {},
		StateUnauthenticated: {},
	},
	StateAuthenticated: {
		StateLoading:         {},
		StateUnauthenticated: {},
	},
	StateUnauthenticated: {
		StateLoading: {},
	},
}

func canTransition(from, to State) bool {
	if from == to {
		return true
	}
	allowed, ok := stateTransitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// Snapshot is the read model guards and redirect policies consume. It is a
// value copy; mutating it has no effect on the session.
type Snapshot struct {
	State      State
	Principal  *Principal
	Claims     TenantClaims
	Refreshing bool
}

// IsLoading reports whether the session is still resolving.
func (s Snapshot) IsLoading() bool {
	return s.State == StateUninitialized || s.State == StateLoading
}

// IsAuthenticated reports whether a principal with usable claims is held.
func (s Snapshot) IsAuthenticated() bool {
	return s.State == StateAuthenticated && s.Principal != nil && s.Claims != nil
}
