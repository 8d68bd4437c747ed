package session

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeTokenExpired      = "AUTH_TOKEN_EXPIRED"
	textCodeTokenRevoked      = "AUTH_TOKEN_REVOKED"
	textCodeAccountDisabled   = "AUTH_ACCOUNT_DISABLED"
	textCodeAccountNotFound   = "AUTH_ACCOUNT_NOT_FOUND"
	textCodeInvalidCredential = "AUTH_INVALID_CREDENTIAL"
	textCodeNetwork           = "AUTH_NETWORK"
	textCodeTimeout           = "AUTH_TIMEOUT"
	textCodeClaimShape        = "AUTH_CLAIM_SHAPE"
	textCodeInvalidTransition = "INVALID_SESSION_TRANSITION"
)

// Critical auth errors: terminal, force sign-out.
var (
	ErrTokenExpired = goerrors.New("authentication token is expired", goerrors.CategoryAuth).
			WithTextCode(textCodeTokenExpired).
			WithCode(goerrors.CodeUnauthorized)

	ErrTokenRevoked = goerrors.New("authentication token was revoked", goerrors.CategoryAuth).
			WithTextCode(textCodeTokenRevoked).
			WithCode(goerrors.CodeUnauthorized)

	ErrAccountDisabled = goerrors.New("account is disabled", goerrors.CategoryAuth).
				WithTextCode(textCodeAccountDisabled).
				WithCode(goerrors.CodeUnauthorized)

	ErrAccountNotFound = goerrors.New("account not found", goerrors.CategoryAuth).
				WithTextCode(textCodeAccountNotFound).
				WithCode(goerrors.CodeUnauthorized)

	ErrInvalidCredential = goerrors.New("invalid credential", goerrors.CategoryAuth).
				WithTextCode(textCodeInvalidCredential).
				WithCode(goerrors.CodeUnauthorized)
)

// Recoverable errors: the session is kept alive and the refresh retried on
// the next periodic cycle.
var (
	ErrNetwork = goerrors.New("network error reaching identity provider", goerrors.CategoryOperation).
			WithTextCode(textCodeNetwork)

	ErrTimeout = goerrors.New("identity provider timed out", goerrors.CategoryOperation).
			WithTextCode(textCodeTimeout)
)

// ErrClaimShape is returned when a decoded token is missing required claim
// fields. Criticality depends on whether valid claims are already held; see
// Controller.refresh.
var ErrClaimShape = goerrors.New("token claims are missing required fields", goerrors.CategoryValidation).
	WithTextCode(textCodeClaimShape).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidTransition is returned when a requested session state change is
// not allowed by the transition table.
var ErrInvalidTransition = goerrors.New("invalid session state transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// ErrNoToken is returned by the TokenSource when no session token is held.
var ErrNoToken = goerrors.New("no session token available", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

var criticalTextCodes = map[string]struct{}{
	textCodeTokenExpired:      {},
	textCodeTokenRevoked:      {},
	textCodeAccountDisabled:   {},
	textCodeAccountNotFound:   {},
	textCodeInvalidCredential: {},
}

// IsCriticalAuthError reports whether err ends the session. Anything the
// taxonomy does not recognize is treated as recoverable so flaky
// connectivity never produces a spurious logout.
func IsCriticalAuthError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}

	_, ok := criticalTextCodes[richErr.TextCode]
	return ok
}

// IsRecoverableAuthError reports whether err should be retried on the next
// refresh cycle with the session kept alive.
func IsRecoverableAuthError(err error) bool {
	if err == nil {
		return false
	}
	return !IsCriticalAuthError(err)
}

// ErrorFromWireCode maps a provider error code string onto the taxonomy.
// Unknown codes map to ErrNetwork so they stay recoverable.
func ErrorFromWireCode(code string) *goerrors.Error {
	switch code {
	case "auth/id-token-expired", "auth/user-token-expired":
		return ErrTokenExpired
	case "auth/id-token-revoked":
		return ErrTokenRevoked
	case "auth/user-disabled":
		return ErrAccountDisabled
	case "auth/user-not-found":
		return ErrAccountNotFound
	case "auth/invalid-credential", "auth/wrong-password", "auth/invalid-email":
		return ErrInvalidCredential
	case "auth/network-request-failed":
		return ErrNetwork
	case "auth/timeout":
		return ErrTimeout
	default:
		clone := ErrNetwork.Clone()
		if clone == nil {
			return ErrNetwork
		}
		return clone.WithMetadata(map[string]any{"code": code})
	}
}
