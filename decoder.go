package session

import (
	"github.com/golang-jwt/jwt/v5"
)

// DecodeTokenPayload extracts the payload segment of a compact signed token
// without verifying its signature; trust derives from the token having been
// freshly issued by the provider over a secure channel.
//
// It returns nil for any malformed input (wrong segment count, bad encoding,
// invalid JSON) and never panics. Callers treat nil as "no claims
// available", not as a fatal condition.
func DecodeTokenPayload(raw string) *TokenPayload {
	if raw == "" {
		return nil
	}

	payload := &TokenPayload{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, payload); err != nil {
		return nil
	}

	return payload
}

// DecodeTenantClaims decodes a raw token and parses it into a tagged claim
// variant in one step. The bool reports whether usable claims were present.
func DecodeTenantClaims(raw string) (TenantClaims, bool) {
	payload := DecodeTokenPayload(raw)
	if payload == nil {
		return nil, false
	}

	claims, err := ParseTenantClaims(payload)
	if err != nil {
		return nil, false
	}

	return claims, true
}
