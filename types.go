package session

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Principal is the authenticated identity handle returned by the provider.
// It is opaque to the session layer beyond its identifiers.
type Principal struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
}

// IdentityProvider is the boundary to the external identity service. Tokens
// and error codes come from the provider; the session layer never verifies
// signatures itself.
type IdentityProvider interface {
	SignIn(ctx context.Context, identifier, password string) (*Principal, error)
	SignOut(ctx context.Context) error
	CurrentPrincipal(ctx context.Context) (*Principal, error)
	// IDToken returns a signed token for the current principal. When force
	// is true the provider must mint a fresh token instead of serving a
	// cached one.
	IDToken(ctx context.Context, force bool) (string, error)
	SendPasswordReset(ctx context.Context, email string) error
	// VerifyPasswordResetCode checks an out-of-band reset code and returns
	// the email address it was issued for.
	VerifyPasswordResetCode(ctx context.Context, code string) (string, error)
	ConfirmPasswordReset(ctx context.Context, code, newPassword string) error
	// OnAuthStateChanged registers a callback fired with the current
	// principal (nil when signed out). The returned function detaches it.
	OnAuthStateChanged(fn func(*Principal)) (unsubscribe func())
}

// TokenSource yields a token suitable for authenticating outbound API calls.
// Controller implements it on top of the last known good token.
type TokenSource interface {
	IDToken(ctx context.Context) (string, error)
}

// TokenVerifier validates externally issued tokens. Optional: the guard works
// on unverified decoded claims by default, deployments that terminate trust
// locally can plug a JWKS-backed verifier.
type TokenVerifier interface {
	Verify(tokenString string) (TenantClaims, error)
}

// Config holds session options
type Config interface {
	// GetRefreshInterval is the periodic claims refresh cadence. Must be
	// substantially shorter than the provider's token lifetime.
	GetRefreshInterval() time.Duration
	// GetSignOutGrace is how long a provider signed-out event is held back
	// when a valid session existed moments before.
	GetSignOutGrace() time.Duration
	// GetInactivityTimeout enables forced sign-out after no tracked
	// activity for the given duration. Zero disables the countdown.
	GetInactivityTimeout() time.Duration
	GetContextKey() string
	GetRejectedRouteKey() string
	GetRejectedRouteDefault() string
	GetPublicRoutes() []string
	GetDebug() bool
}

// NewDefaultLogger returns the printf fallback logger used when no Logger
// is injected.
func NewDefaultLogger() Logger {
	return defLogger{}
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
