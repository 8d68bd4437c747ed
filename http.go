package session

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// Guard gates access to a navigation subtree based on session state. It is
// the HTTP rendition of Evaluate: decisions become redirects, and the
// originally requested path survives the trip to the login page.
type Guard struct {
	controller *Controller
	cfg        Config
	Logger     Logger
}

func NewGuard(controller *Controller, cfg Config) *Guard {
	return &Guard{
		controller: controller,
		cfg:        cfg,
		Logger:     defLogger{},
	}
}

func (g *Guard) WithLogger(logger Logger) *Guard {
	if logger != nil {
		g.Logger = logger
	}
	return g
}

// Protected wraps a navigation subtree with a Requirement.
func (g *Guard) Protected(req Requirement) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			snap := g.controller.Snapshot()
			decision := Evaluate(snap, req)

			if g.cfg.GetDebug() {
				g.Logger.Debug(
					"Guard evaluation",
					"path", ctx.OriginalURL(),
					"decision", decision.String(),
					"snapshot", print.MaybePrettyJSON(DebugSnapshot(snap)),
				)
			}

			switch decision {
			case DecisionAllow:
				g.controller.Touch()
				ctx.Locals(g.cfg.GetContextKey(), snap.Claims)
				return hf(ctx)
			case DecisionLoading:
				ctx.SetHeader("Retry-After", "1")
				return ctx.JSON(fiber.StatusServiceUnavailable, map[string]any{
					"status": "session resolving",
				})
			case DecisionLoginRedirect:
				g.SetRedirect(ctx)
				return redirect(ctx, RouteLogin)
			case DecisionHomeRedirect:
				return redirect(ctx, g.cfg.GetRejectedRouteDefault())
			case DecisionTenantHomeRedirect:
				return redirect(ctx, TenantHomeRoute(snap.Claims))
			default:
				return redirect(ctx, g.cfg.GetRejectedRouteDefault())
			}
		}
	}
}

// AutoRedirect sends authenticated sessions that land on a public route to
// their tenant's home. No-op everywhere else.
func (g *Guard) AutoRedirect() router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			snap := g.controller.Snapshot()
			target := AutoRedirect(snap, ctx.OriginalURL(), g.cfg.GetPublicRoutes())
			if target == "" {
				return hf(ctx)
			}

			g.Logger.Info("Auto-redirect", "from", ctx.OriginalURL(), "to", target)
			return redirect(ctx, target)
		}
	}
}

// SetRedirect preserves the rejected path so login can send the user back.
func (g *Guard) SetRedirect(ctx router.Context) {
	rejectedRoute := g.cfg.GetRejectedRouteKey()

	ctx.Cookie(&router.Cookie{
		Name:     rejectedRoute,
		Value:    ctx.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// GetRedirect returns the preserved path, falling back to def, and clears
// the cookie.
func (g *Guard) GetRedirect(ctx router.Context, def ...string) string {
	rejectedRoute := g.cfg.GetRejectedRouteKey()
	r := ctx.Cookies(rejectedRoute)
	if r == "" {
		if len(def) > 0 {
			return def[0]
		}
		return g.cfg.GetRejectedRouteDefault()
	}
	g.cookieDel(ctx, rejectedRoute)
	return r
}

// GetRedirectOrDefault resolves the post-login target: preserved path,
// referer, then the configured default.
func (g *Guard) GetRedirectOrDefault(ctx router.Context) string {
	rejectedRoute := g.cfg.GetRejectedRouteKey()
	refererHeader := string(ctx.Referer())

	r := ctx.Cookies(rejectedRoute, refererHeader)
	if r == "" {
		r = g.cfg.GetRejectedRouteDefault()
	}
	g.cookieDel(ctx, rejectedRoute)
	return r
}

func (g *Guard) cookieDel(ctx router.Context, name string) {
	ctx.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func redirect(ctx router.Context, target string) error {
	statusCode := fiber.StatusSeeOther
	if ctx.Method() == string(router.GET) {
		statusCode = fiber.StatusFound
	}
	return ctx.Redirect(target, statusCode)
}

// DebugSnapshot returns a loggable view of a snapshot. Only wire it up in
// development; it exposes claim contents.
func DebugSnapshot(snap Snapshot) map[string]any {
	out := map[string]any{
		"state":      string(snap.State),
		"refreshing": snap.Refreshing,
	}
	if snap.Principal != nil {
		out["principal"] = snap.Principal.UID
	}
	if snap.Claims != nil {
		out["tenant_type"] = string(snap.Claims.TenantType())
		out["role"] = string(snap.Claims.Role())
		out["tenant_id"] = snap.Claims.TenantID()
	}
	return out
}
