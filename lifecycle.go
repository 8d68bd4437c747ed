package session

import (
	"context"
	"sync"
	"time"
)

const defaultRefreshInterval = 10 * time.Minute
const defaultSignOutGrace = 3 * time.Second

// TokenCache persists the last known good token per account so a restart or
// a flaky provider does not force a re-authentication. Implementations live
// behind this interface; see SessionRecords for the bundled sqlite cache.
type TokenCache interface {
	Load(ctx context.Context, accountKey string) (string, error)
	Save(ctx context.Context, accountKey, token string) error
	Delete(ctx context.Context, accountKey string) error
}

// Controller owns the session state machine. It is the only component that
// mutates session state; guards, redirect policies, and dashboards observe
// it through Snapshot and the claims Store.
type Controller struct {
	provider IdentityProvider
	store    *Store
	cache    TokenCache
	cfg      Config
	logger   Logger
	sink     ActivitySink
	now      func() time.Time

	mu              sync.Mutex
	state           State
	principal       *Principal
	lastToken       string
	refreshing      bool
	refreshInFlight bool
	closed          bool
	ready           chan struct{}

	unsubscribe     func()
	refreshStop     chan struct{}
	graceTimer      *time.Timer
	inactivityTimer *time.Timer
}

// NewController returns a stopped controller. Call Start to attach it to the
// provider's auth-state events.
func NewController(provider IdentityProvider, cfg Config) *Controller {
	ready := make(chan struct{})
	close(ready)

	return &Controller{
		provider: provider,
		cfg:      cfg,
		store:    NewStore(),
		logger:   defLogger{},
		sink:     noopActivitySink{},
		now:      time.Now,
		state:    StateUninitialized,
		ready:    ready,
	}
}

func (c *Controller) WithLogger(logger Logger) *Controller {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithActivitySink configures an ActivitySink for emitting session events.
func (c *Controller) WithActivitySink(sink ActivitySink) *Controller {
	c.sink = normalizeActivitySink(sink)
	return c
}

// WithStore replaces the claims store, letting several components share one.
func (c *Controller) WithStore(store *Store) *Controller {
	if store != nil {
		c.store = store
	}
	return c
}

// WithTokenCache enables persisting the last known good token per account.
func (c *Controller) WithTokenCache(cache TokenCache) *Controller {
	c.cache = cache
	return c
}

// WithClock injects a custom clock (useful for tests).
func (c *Controller) WithClock(clock func() time.Time) *Controller {
	if clock != nil {
		c.now = clock
	}
	return c
}

// Store returns the claims store this controller publishes into.
func (c *Controller) Store() *Store {
	return c.store
}

// Start subscribes to the provider's auth-state events, seeds the session
// from the current principal, and starts the periodic refresh loop.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrInvalidTransition.WithMetadata(map[string]any{"reason": "controller is closed"})
	}
	if c.unsubscribe != nil {
		c.mu.Unlock()
		return nil
	}
	c.refreshStop = make(chan struct{})
	c.mu.Unlock()

	unsubscribe := c.provider.OnAuthStateChanged(func(p *Principal) {
		c.handleAuthState(context.Background(), p)
	})
	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()

	go c.refreshLoop()

	principal, err := c.provider.CurrentPrincipal(ctx)
	if err != nil {
		c.logger.Warn("Start could not read current principal", "error", err)
		c.resolveUnauthenticated(ctx)
		return nil
	}
	c.handleAuthState(ctx, principal)

	return nil
}

// Close tears the controller down: all pending timers are cancelled, the
// provider subscription is detached, and in-flight callbacks become no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.graceTimer != nil {
		c.graceTimer.Stop()
		c.graceTimer = nil
	}
	if c.inactivityTimer != nil {
		c.inactivityTimer.Stop()
		c.inactivityTimer = nil
	}
	if c.refreshStop != nil {
		close(c.refreshStop)
		c.refreshStop = nil
	}
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Snapshot returns a point-in-time copy of the session for guards and
// redirect policies.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	var principal *Principal
	if c.principal != nil {
		p := *c.principal
		principal = &p
	}

	return Snapshot{
		State:      c.state,
		Principal:  principal,
		Claims:     c.store.Current(),
		Refreshing: c.refreshing,
	}
}

// AwaitReady blocks until the in-flight transition (if any) has resolved.
// The completion signal fires exactly once per resolution.
func (c *Controller) AwaitReady(ctx context.Context) error {
	c.mu.Lock()
	ready := c.ready
	c.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IDToken implements TokenSource using the last known good token.
func (c *Controller) IDToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.lastToken
	c.mu.Unlock()

	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// SignIn authenticates against the provider and resolves the session.
func (c *Controller) SignIn(ctx context.Context, identifier, password string) error {
	principal, err := c.provider.SignIn(ctx, identifier, password)
	if err != nil {
		c.logger.Error("SignIn provider error", "error", err)
		c.emit(ctx, ActivityEvent{
			EventType: ActivityEventSignInFailure,
			Metadata:  map[string]any{"identifier": identifier, "error": err.Error()},
		})
		return err
	}

	c.handleAuthState(ctx, principal)
	return nil
}

// SignOut ends the session unconditionally. Unlike provider-initiated
// signed-out events it does not go through the grace window.
func (c *Controller) SignOut(ctx context.Context) error {
	err := c.provider.SignOut(ctx)
	if err != nil {
		c.logger.Warn("SignOut provider error", "error", err)
	}

	c.clearSession(ctx, ActivityEventSignOut, nil)
	return err
}

// Refresh re-resolves claims outside the periodic cycle. Concurrent calls
// coalesce into a single resolution.
func (c *Controller) Refresh(ctx context.Context, force bool) {
	c.refresh(ctx, force)
}

// Touch resets the inactivity countdown. The guard middleware calls it on
// every authenticated request; it is a no-op when the inactivity timeout is
// disabled or no session exists.
func (c *Controller) Touch() {
	timeout := c.cfg.GetInactivityTimeout()
	if timeout <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state != StateAuthenticated {
		return
	}

	if c.inactivityTimer != nil {
		c.inactivityTimer.Stop()
	}
	c.inactivityTimer = time.AfterFunc(timeout, c.inactivityExpired)
}

func (c *Controller) inactivityExpired() {
	c.mu.Lock()
	if c.closed || c.state != StateAuthenticated {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	ctx := context.Background()
	c.logger.Info("Inactivity countdown expired, signing out")
	if err := c.provider.SignOut(ctx); err != nil {
		c.logger.Warn("Inactivity sign-out provider error", "error", err)
	}
	c.clearSession(ctx, ActivityEventInactivity, nil)
}

// handleAuthState reacts to the provider's auth-state-changed events.
func (c *Controller) handleAuthState(ctx context.Context, principal *Principal) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if principal == nil {
		c.handleSignedOut(ctx)
		return
	}
	c.handleSignedIn(ctx, principal)
}

func (c *Controller) handleSignedIn(ctx context.Context, principal *Principal) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	// A recovered provider glitch: cancel the pending grace clear.
	if c.graceTimer != nil {
		c.graceTimer.Stop()
		c.graceTimer = nil
		if c.principal != nil && c.principal.UID == principal.UID {
			c.mu.Unlock()
			c.emit(ctx, ActivityEvent{
				EventType: ActivityEventGraceRecovery,
				UserID:    principal.UID,
			})
			return
		}
	}

	// Re-entrant sign-in for the principal we already resolved: short
	// circuit without a second decode.
	if c.state == StateAuthenticated && c.principal != nil &&
		c.principal.UID == principal.UID && c.store.Current() != nil {
		c.mu.Unlock()
		return
	}

	c.principal = principal
	c.transitionLocked(StateLoading)
	c.mu.Unlock()

	c.refresh(ctx, true)
}

func (c *Controller) handleSignedOut(ctx context.Context) {
	grace := c.cfg.GetSignOutGrace()
	if grace <= 0 {
		grace = defaultSignOutGrace
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	if c.state != StateAuthenticated {
		c.mu.Unlock()
		c.resolveUnauthenticated(ctx)
		return
	}

	// A valid session exists. Treat the event as a possible provider false
	// negative and delay the clear; graceExpired re-checks the provider
	// before tearing anything down.
	if c.graceTimer == nil {
		c.graceTimer = time.AfterFunc(grace, func() {
			c.graceExpired(context.Background())
		})
		c.logger.Debug("Sign-out held for grace window", "grace", grace)
	}
	c.mu.Unlock()
}

func (c *Controller) graceExpired(ctx context.Context) {
	c.mu.Lock()
	if c.closed || c.graceTimer == nil {
		c.mu.Unlock()
		return
	}
	c.graceTimer = nil
	c.mu.Unlock()

	principal, err := c.provider.CurrentPrincipal(ctx)
	if err == nil && principal != nil {
		c.emit(ctx, ActivityEvent{
			EventType: ActivityEventGraceRecovery,
			UserID:    principal.UID,
		})
		return
	}

	c.clearSession(ctx, ActivityEventSignOut, map[string]any{"reason": "grace window expired"})
}

// refresh resolves claims from a provider token. At most one resolution is
// in flight; concurrent callers return immediately and observe the winner's
// claims (last writer wins on the store).
func (c *Controller) refresh(ctx context.Context, force bool) {
	c.mu.Lock()
	if c.closed || c.refreshInFlight {
		c.mu.Unlock()
		return
	}
	c.refreshInFlight = true
	if c.state == StateAuthenticated {
		c.refreshing = true
	}
	if c.state == StateLoading {
		c.ready = make(chan struct{})
	}
	principal := c.principal
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.refreshInFlight = false
		c.refreshing = false
		superseded := c.principal != nil &&
			(principal == nil || c.principal.UID != principal.UID)
		c.mu.Unlock()

		// A sign-in switched principals while this resolution was in
		// flight and its own refresh coalesced into ours; resolve the
		// current principal now.
		if superseded {
			c.refresh(ctx, true)
		}
	}()

	if principal == nil {
		c.resolveUnauthenticated(ctx)
		return
	}

	token, err := c.provider.IDToken(ctx, force)
	if err != nil {
		c.refreshTokenFailed(ctx, principal, force, err)
		return
	}

	c.applyToken(ctx, principal, token)
}

// refreshTokenFailed handles a failed token fetch per the error taxonomy:
// critical errors are terminal, everything else keeps the session alive.
func (c *Controller) refreshTokenFailed(ctx context.Context, principal *Principal, forced bool, err error) {
	c.mu.Lock()
	superseded := c.supersededLocked(principal)
	c.mu.Unlock()
	if superseded {
		return
	}

	if IsCriticalAuthError(err) {
		c.logger.Error("Critical auth error during refresh", "error", err)
		if soErr := c.provider.SignOut(ctx); soErr != nil {
			c.logger.Warn("Forced sign-out provider error", "error", soErr)
		}
		c.clearSession(ctx, ActivityEventRefreshFailure, map[string]any{"error": err.Error()})
		return
	}

	c.logger.Warn("Recoverable auth error during refresh", "error", err)

	// Fall back to the last token the provider already holds, without
	// forcing a mint.
	if forced {
		if token, retryErr := c.provider.IDToken(ctx, false); retryErr == nil {
			c.applyToken(ctx, principal, token)
			return
		}
	}

	if c.cache != nil {
		if token, cacheErr := c.cache.Load(ctx, accountKey(principal)); cacheErr == nil && token != "" {
			c.logger.Info("Reusing persisted token after refresh failure")
			c.applyToken(ctx, principal, token)
			return
		}
	}

	// Nothing usable: keep the session alive with whatever claims we hold
	// and let the next periodic cycle retry.
	c.emit(ctx, ActivityEvent{
		EventType: ActivityEventRefreshFailure,
		UserID:    principal.UID,
		Metadata:  map[string]any{"error": err.Error()},
	})

	c.mu.Lock()
	if !c.supersededLocked(principal) {
		c.transitionLocked(StateAuthenticated)
	}
	c.signalReadyLocked()
	c.mu.Unlock()
}

// applyToken decodes a token into claims and publishes them. Claim-shape
// failures are critical only when no valid claims are already held. Results
// resolved for a principal the session no longer holds are dropped; claims
// in the store always belong to the current principal.
func (c *Controller) applyToken(ctx context.Context, principal *Principal, token string) {
	c.mu.Lock()
	if c.closed || c.supersededLocked(principal) {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	claims, ok := DecodeTenantClaims(token)
	if !ok {
		if c.store.Current() == nil {
			c.logger.Error("Token decoded without usable claims and none held, signing out")
			if err := c.provider.SignOut(ctx); err != nil {
				c.logger.Warn("Forced sign-out provider error", "error", err)
			}
			c.clearSession(ctx, ActivityEventRefreshFailure, map[string]any{"reason": "claim shape"})
			return
		}

		c.logger.Warn("Token decoded without usable claims, keeping stale claims")
		c.emit(ctx, ActivityEvent{
			EventType: ActivityEventRefreshFailure,
			UserID:    principal.UID,
			Metadata:  map[string]any{"reason": "claim shape, stale claims retained"},
		})

		c.mu.Lock()
		if !c.supersededLocked(principal) {
			c.transitionLocked(StateAuthenticated)
		}
		c.signalReadyLocked()
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	if c.closed || c.supersededLocked(principal) {
		c.mu.Unlock()
		return
	}
	wasLoading := c.state == StateLoading
	c.lastToken = token
	c.transitionLocked(StateAuthenticated)
	c.signalReadyLocked()
	c.mu.Unlock()

	// Whole-value swap; readers never see a partial claim set.
	c.store.Replace(claims)

	if c.cache != nil {
		if err := c.cache.Save(ctx, accountKey(principal), token); err != nil {
			c.logger.Warn("Token cache save error", "error", err)
		}
	}

	if wasLoading {
		c.emit(ctx, ActivityEvent{
			EventType: ActivityEventSignInSuccess,
			UserID:    principal.UID,
			ToState:   StateAuthenticated,
		})
	} else {
		c.emit(ctx, ActivityEvent{
			EventType: ActivityEventRefreshSuccess,
			UserID:    principal.UID,
		})
	}

	c.Touch()
}

func (c *Controller) clearSession(ctx context.Context, event ActivityEventType, metadata map[string]any) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	userID := ""
	if c.principal != nil {
		userID = c.principal.UID
	}
	principal := c.principal

	from := c.state
	c.principal = nil
	c.lastToken = ""
	if c.graceTimer != nil {
		c.graceTimer.Stop()
		c.graceTimer = nil
	}
	if c.inactivityTimer != nil {
		c.inactivityTimer.Stop()
		c.inactivityTimer = nil
	}
	c.transitionLocked(StateUnauthenticated)
	c.signalReadyLocked()
	c.mu.Unlock()

	c.store.Clear()

	if c.cache != nil && principal != nil {
		if err := c.cache.Delete(ctx, accountKey(principal)); err != nil {
			c.logger.Warn("Token cache delete error", "error", err)
		}
	}

	c.emit(ctx, ActivityEvent{
		EventType: event,
		UserID:    userID,
		FromState: from,
		ToState:   StateUnauthenticated,
		Metadata:  metadata,
	})
}

func (c *Controller) resolveUnauthenticated(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.principal = nil
	c.lastToken = ""
	c.transitionLocked(StateUnauthenticated)
	c.signalReadyLocked()
	c.mu.Unlock()

	c.store.Clear()
}

func (c *Controller) refreshLoop() {
	interval := c.cfg.GetRefreshInterval()
	if interval <= 0 {
		interval = defaultRefreshInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.mu.Lock()
	stop := c.refreshStop
	c.mu.Unlock()
	if stop == nil {
		return
	}

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			authenticated := c.state == StateAuthenticated && !c.closed
			c.mu.Unlock()
			if authenticated {
				c.refresh(context.Background(), false)
			}
		}
	}
}

// supersededLocked reports whether the principal a resolution was started
// for no longer matches the session's principal. Callers hold c.mu.
func (c *Controller) supersededLocked(p *Principal) bool {
	if p == nil {
		return true
	}
	return c.principal == nil || c.principal.UID != p.UID
}

// transitionLocked applies a state change, enforcing the legality table.
// Callers hold c.mu.
func (c *Controller) transitionLocked(to State) {
	if c.state == to {
		return
	}
	if !canTransition(c.state, to) {
		c.logger.Error("Invalid session transition", "from", c.state, "to", to)
		return
	}
	c.logger.Debug("Session transition", "from", c.state, "to", to)
	c.state = to
}

// signalReadyLocked resolves the completion signal exactly once per
// transition. Callers hold c.mu.
func (c *Controller) signalReadyLocked() {
	select {
	case <-c.ready:
		// already resolved
	default:
		close(c.ready)
	}
}

func (c *Controller) emit(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = c.now()
	}
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	sink := normalizeActivitySink(c.sink)
	if err := sink.Record(ctx, event); err != nil {
		c.logger.Warn("activity sink record error: %v", err)
	}
}

func accountKey(principal *Principal) string {
	if principal == nil {
		return ""
	}
	if principal.Email != "" {
		return principal.Email
	}
	return principal.UID
}
