package session

import "time"

// SessionConfig is the concrete Config used by most deployments. Zero
// values fall back to sensible defaults at the point of use.
type SessionConfig struct {
	RefreshInterval      time.Duration `json:"refresh_interval" yaml:"refresh_interval"`
	SignOutGrace         time.Duration `json:"sign_out_grace" yaml:"sign_out_grace"`
	InactivityTimeout    time.Duration `json:"inactivity_timeout" yaml:"inactivity_timeout"`
	ContextKey           string        `json:"context_key" yaml:"context_key"`
	RejectedRouteKey     string        `json:"rejected_route_key" yaml:"rejected_route_key"`
	RejectedRouteDefault string        `json:"rejected_route_default" yaml:"rejected_route_default"`
	PublicRoutes         []string      `json:"public_routes" yaml:"public_routes"`
	Debug                bool          `json:"debug" yaml:"debug"`
}

var _ Config = (*SessionConfig)(nil)

func (c *SessionConfig) GetRefreshInterval() time.Duration {
	if c.RefreshInterval <= 0 {
		return defaultRefreshInterval
	}
	return c.RefreshInterval
}

func (c *SessionConfig) GetSignOutGrace() time.Duration {
	if c.SignOutGrace <= 0 {
		return defaultSignOutGrace
	}
	return c.SignOutGrace
}

// GetInactivityTimeout returns zero when the inactivity countdown is
// disabled, which is the default for this deployment.
func (c *SessionConfig) GetInactivityTimeout() time.Duration {
	return c.InactivityTimeout
}

func (c *SessionConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "claims"
	}
	return c.ContextKey
}

func (c *SessionConfig) GetRejectedRouteKey() string {
	if c.RejectedRouteKey == "" {
		return "rejected_route"
	}
	return c.RejectedRouteKey
}

func (c *SessionConfig) GetRejectedRouteDefault() string {
	if c.RejectedRouteDefault == "" {
		return RouteRoot
	}
	return c.RejectedRouteDefault
}

func (c *SessionConfig) GetPublicRoutes() []string {
	if len(c.PublicRoutes) == 0 {
		return []string{RouteRoot, RouteLogin, "/register", "/password-reset"}
	}
	return c.PublicRoutes
}

func (c *SessionConfig) GetDebug() bool {
	return c.Debug
}
