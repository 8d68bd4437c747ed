package httpident

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	session "github.com/merxus/go-session"
)

// tokenExpiryLeeway is how close to expiry the cached token may get before
// an unforced fetch mints a replacement through the refresh grant.
const tokenExpiryLeeway = 5 * time.Minute

// Provider talks to the identity service and fans auth-state changes out to
// subscribers. It caches the most recent token so unforced fetches do not
// hit the network.
type Provider struct {
	cfg    Config
	client *http.Client
	logger session.Logger

	mu           sync.Mutex
	principal    *session.Principal
	cachedToken  string
	refreshToken string
	listeners    map[int]func(*session.Principal)
	nextListener int
}

var _ session.IdentityProvider = (*Provider)(nil)

// New returns a Provider for the given endpoint configuration.
func New(cfg Config) *Provider {
	return &Provider{
		cfg:       cfg,
		client:    cfg.httpClient(),
		logger:    session.NewDefaultLogger(),
		listeners: map[int]func(*session.Principal){},
	}
}

func (p *Provider) WithLogger(logger session.Logger) *Provider {
	if logger != nil {
		p.logger = logger
	}
	return p
}

type wireError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type signInResponse struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

type tokenResponse struct {
	IDToken string `json:"idToken"`
}

type verifyCodeResponse struct {
	Email string `json:"email"`
}

// SignIn exchanges credentials for a principal and a fresh token, then
// notifies auth-state subscribers.
func (p *Provider) SignIn(ctx context.Context, identifier, password string) (*session.Principal, error) {
	var resp signInResponse
	err := p.post(ctx, "/v1/accounts:signIn", map[string]any{
		"email":    identifier,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}

	principal := &session.Principal{UID: resp.UID, Email: resp.Email}

	p.mu.Lock()
	p.principal = principal
	p.cachedToken = resp.IDToken
	p.refreshToken = resp.RefreshToken
	listeners := p.snapshotListeners()
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(principal)
	}

	return principal, nil
}

// SignOut invalidates the refresh token server-side and notifies
// subscribers with a nil principal.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	refreshToken := p.refreshToken
	p.principal = nil
	p.cachedToken = ""
	p.refreshToken = ""
	listeners := p.snapshotListeners()
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(nil)
	}

	if refreshToken == "" {
		return nil
	}

	if err := p.post(ctx, "/v1/accounts:signOut", map[string]any{
		"refreshToken": refreshToken,
	}, nil); err != nil {
		// Local state is already cleared; a failed revocation is not a
		// session error.
		p.logger.Warn("SignOut revocation error", "error", err)
		return err
	}
	return nil
}

// CurrentPrincipal returns the locally known principal, nil when signed out.
func (p *Provider) CurrentPrincipal(ctx context.Context) (*session.Principal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.principal == nil {
		return nil, nil
	}
	principal := *p.principal
	return &principal, nil
}

// IDToken returns a token for the current principal. force always mints a
// fresh one through the refresh grant; otherwise the cached token is served
// until it is expired or near expiry, so the periodic refresh cycle rotates
// tokens and picks up claim changes without forcing every tick.
func (p *Provider) IDToken(ctx context.Context, force bool) (string, error) {
	p.mu.Lock()
	cached := p.cachedToken
	refreshToken := p.refreshToken
	signedIn := p.principal != nil
	p.mu.Unlock()

	if !signedIn {
		return "", session.ErrNoToken
	}

	if !force && cached != "" && !tokenExpiring(cached, time.Now()) {
		return cached, nil
	}

	var resp tokenResponse
	if err := p.post(ctx, "/v1/token", map[string]any{
		"grantType":    "refresh_token",
		"refreshToken": refreshToken,
	}, &resp); err != nil {
		// An unforced caller accepts the stale cached token over nothing
		// when the mint fails recoverably; revocations still surface.
		if !force && cached != "" && !session.IsCriticalAuthError(err) {
			p.logger.Warn("Token mint failed, serving cached token", "error", err)
			return cached, nil
		}
		return "", err
	}

	p.mu.Lock()
	p.cachedToken = resp.IDToken
	p.mu.Unlock()

	return resp.IDToken, nil
}

// tokenExpiring reports whether the token carries an exp claim inside the
// leeway window. Opaque tokens and tokens without exp cannot be aged out
// locally and are treated as current.
func tokenExpiring(token string, now time.Time) bool {
	payload := session.DecodeTokenPayload(token)
	if payload == nil || payload.ExpiresAt == nil {
		return false
	}
	return payload.ExpiresAt.Time.Sub(now) <= tokenExpiryLeeway
}

func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	return p.post(ctx, "/v1/accounts:sendOobCode", map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, nil)
}

func (p *Provider) VerifyPasswordResetCode(ctx context.Context, code string) (string, error) {
	var resp verifyCodeResponse
	if err := p.post(ctx, "/v1/accounts:verifyResetCode", map[string]any{
		"oobCode": code,
	}, &resp); err != nil {
		return "", err
	}
	return resp.Email, nil
}

func (p *Provider) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	return p.post(ctx, "/v1/accounts:resetPassword", map[string]any{
		"oobCode":     code,
		"newPassword": newPassword,
	}, nil)
}

// OnAuthStateChanged registers a subscriber and fires it immediately with
// the current principal, matching the provider's event semantics.
func (p *Provider) OnAuthStateChanged(fn func(*session.Principal)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	p.mu.Lock()
	id := p.nextListener
	p.nextListener++
	p.listeners[id] = fn
	current := p.principal
	p.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

// snapshotListeners copies the listener set; callers hold p.mu.
func (p *Provider) snapshotListeners() []func(*session.Principal) {
	out := make([]func(*session.Principal), 0, len(p.listeners))
	for _, fn := range p.listeners {
		out = append(out, fn)
	}
	return out
}

func (p *Provider) post(ctx context.Context, path string, payload map[string]any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode identity request")
	}

	url := p.cfg.BaseURL + path
	if p.cfg.APIKey != "" {
		url = fmt.Sprintf("%s?key=%s", url, p.cfg.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build identity request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return session.ErrTimeout
		}
		return session.ErrNetwork
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var wireErr wireError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&wireErr); decodeErr == nil && wireErr.Error.Code != "" {
			return session.ErrorFromWireCode(wireErr.Error.Code)
		}
		return goerrors.New("identity service error", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized).
			WithMetadata(map[string]any{"status": resp.StatusCode})
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to decode identity response")
	}
	return nil
}
