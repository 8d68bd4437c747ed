package session

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported session activity categories.
type ActivityEventType string

const (
	ActivityEventSignInSuccess  ActivityEventType = "session.signin.success"
	ActivityEventSignInFailure  ActivityEventType = "session.signin.failure"
	ActivityEventSignOut        ActivityEventType = "session.signout"
	ActivityEventRefreshSuccess ActivityEventType = "session.refresh.success"
	ActivityEventRefreshFailure ActivityEventType = "session.refresh.failure"
	ActivityEventInactivity     ActivityEventType = "session.inactivity.signout"
	ActivityEventGraceRecovery  ActivityEventType = "session.grace.recovered"
	ActivityEventPasswordReset  ActivityEventType = "session.password.reset"
)

// ActivityEvent captures audit-friendly information about a session event.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	FromState  State
	ToState    State
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
