// Package httpident implements session.IdentityProvider over the identity
// service's REST surface. Wire error codes are mapped onto the session
// error taxonomy so the lifecycle controller can classify failures as
// critical or recoverable without knowing the transport.
package httpident
