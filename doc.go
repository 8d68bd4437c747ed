// Package session implements the client-side session machinery for the
// merxus multi-tenant phone-assistant platform: claim decoding, the session
// lifecycle controller, route guards, and post-login routing.
//
// Session lifecycle:
//   - Controller owns the session state machine. It subscribes to an
//     IdentityProvider's auth-state events, resolves tenant claims from
//     freshly issued tokens, runs the periodic refresh loop, and applies the
//     sign-out grace window so a flaky provider does not log users out.
//   - Claims are decoded without local signature verification (the provider
//     issues them over a secure channel) and swapped into the Store as a
//     whole value so readers never observe a half-updated claim set.
//
// Route guards:
//   - Requirement describes the access rules for a navigation subtree
//     (authentication, tenant type, minimum role). Evaluate is a pure
//     function over a session Snapshot; GuardMiddleware maps decisions onto
//     go-router redirects while preserving the originally requested path.
//
// Activity sinks:
//   - ActivitySink is a best-effort audit emitter used by the Controller to
//     describe sign-in, refresh, sign-out, and inactivity events. Sink errors
//     are logged, never propagated, so telemetry cannot break a session.
package session
