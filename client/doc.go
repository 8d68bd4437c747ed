// Package client wraps the tenant REST API: estate listings/leads/showings,
// voice routing rules and settings, restaurant users and analytics, and the
// cross-tenant merxus surface. Calls carry a bearer token from a
// session.TokenSource; failures surface as transient errors for the calling
// page to present, never as automatic retries.
package client
