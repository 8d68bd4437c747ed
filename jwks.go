package session

import (
	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// JWKSVerifier validates provider-issued tokens against a remote key set.
// The session layer itself never verifies signatures; this exists for
// deployments that terminate trust at the guard instead of the provider.
type JWKSVerifier struct {
	keyfunc jwt.Keyfunc
	logger  Logger
}

var _ TokenVerifier = (*JWKSVerifier)(nil)

// NewJWKSVerifier fetches the given JWK set URLs and returns a verifier.
func NewJWKSVerifier(jwksURLs []string) (*JWKSVerifier, error) {
	if len(jwksURLs) == 0 {
		return nil, goerrors.New("at least one JWKS URL is required", goerrors.CategoryValidation)
	}

	if len(jwksURLs) == 1 {
		jwks, err := keyfunc.Get(jwksURLs[0], keyfunc.Options{})
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to fetch JWK set")
		}
		return &JWKSVerifier{keyfunc: jwks.Keyfunc, logger: defLogger{}}, nil
	}

	opts := make(map[string]keyfunc.Options, len(jwksURLs))
	for _, url := range jwksURLs {
		opts[url] = keyfunc.Options{}
	}

	multi, err := keyfunc.GetMultiple(opts, keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to fetch JWK sets")
	}

	return &JWKSVerifier{keyfunc: multi.Keyfunc, logger: defLogger{}}, nil
}

func (v *JWKSVerifier) WithLogger(logger Logger) *JWKSVerifier {
	if logger != nil {
		v.logger = logger
	}
	return v
}

// Verify parses and validates a token signature, then applies the same
// claim-shape rules the unverified path uses.
func (v *JWKSVerifier) Verify(tokenString string) (TenantClaims, error) {
	payload := &TokenPayload{}
	token, err := jwt.ParseWithClaims(tokenString, payload, v.keyfunc)
	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "token signature validation failed").
			WithCode(goerrors.CodeUnauthorized)
	}

	if !token.Valid {
		v.logger.Error("JWKS verifier rejected token")
		return nil, ErrInvalidCredential
	}

	return ParseTenantClaims(payload)
}
