package session

// Requirement is the declarative access rule attached to a navigation
// subtree. Zero values mean "not required".
type Requirement struct {
	// RequireAuth demands an authenticated session with usable claims.
	RequireAuth bool
	// TenantType restricts access to sessions of one vertical.
	TenantType TenantType
	// MinimumRole demands at least the given role within the session's
	// role hierarchy.
	MinimumRole Role
}

// Decision is the outcome of evaluating a Requirement against a Snapshot.
type Decision int

const (
	// DecisionAllow renders the protected content.
	DecisionAllow Decision = iota
	// DecisionLoading means the session is still resolving; show a
	// placeholder instead of deciding.
	DecisionLoading
	// DecisionLoginRedirect sends the request to the login route,
	// preserving the originally requested path.
	DecisionLoginRedirect
	// DecisionHomeRedirect sends a tenant-type mismatch to the generic
	// fallback route.
	DecisionHomeRedirect
	// DecisionTenantHomeRedirect sends an under-privileged request to its
	// own tenant's home route.
	DecisionTenantHomeRedirect
)

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionLoading:
		return "loading"
	case DecisionLoginRedirect:
		return "redirect-login"
	case DecisionHomeRedirect:
		return "redirect-home"
	case DecisionTenantHomeRedirect:
		return "redirect-tenant-home"
	default:
		return "unknown"
	}
}

// Evaluate applies the guard rules in order, first match wins:
//
//  1. a resolving session renders a placeholder, nothing else is decided
//  2. a principal without usable claims is a corrupted/expired session and
//     goes back to login
//  3. no principal goes to login with the requested path preserved
//  4. a tenant-type mismatch falls back to the generic route
//  5. an unmet role requirement falls back to the session's own tenant home
//  6. otherwise the children render
//
// Authentication failures (2, 3) are deliberately distinguished from
// authorization failures (4, 5), and tenant mismatch is checked before the
// finer-grained role check.
func Evaluate(snap Snapshot, req Requirement) Decision {
	if snap.IsLoading() {
		return DecisionLoading
	}

	if req.RequireAuth {
		if snap.Principal != nil && snap.Claims == nil {
			return DecisionLoginRedirect
		}
		if snap.Principal == nil {
			return DecisionLoginRedirect
		}
	}

	if req.TenantType != "" {
		if snap.Claims == nil || snap.Claims.TenantType() != req.TenantType {
			return DecisionHomeRedirect
		}
	}

	if req.MinimumRole != "" {
		if snap.Claims == nil || !snap.Claims.IsAtLeast(req.MinimumRole) {
			return DecisionTenantHomeRedirect
		}
	}

	return DecisionAllow
}
