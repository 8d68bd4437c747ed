package session_test

import (
	"context"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	session "github.com/merxus/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGuardProtectedAllowsAuthenticatedSession(t *testing.T) {
	provider := &stubProvider{token: restaurantToken(t, "owner")}
	cfg := testConfig()
	controller := signedInController(t, provider, cfg, &memSink{}, nil)

	guard := session.NewGuard(controller, cfg)

	mockCtx := new(MockContext)
	mockCtx.On("Locals", "claims", mock.Anything).Return(nil)

	handlerCalled := false
	handler := func(ctx router.Context) error {
		handlerCalled = true
		return nil
	}

	mw := guard.Protected(session.Requirement{
		RequireAuth: true,
		TenantType:  session.TenantRestaurant,
		MinimumRole: session.RoleOwner,
	})

	err := mw(handler)(mockCtx)
	require.NoError(t, err)
	assert.True(t, handlerCalled)
	mockCtx.AssertExpectations(t)
}

func TestGuardProtectedLoadingSessionHolds(t *testing.T) {
	provider := &stubProvider{}
	cfg := testConfig()

	// never started: the session is still uninitialized
	controller := session.NewController(provider, cfg)
	t.Cleanup(controller.Close)

	guard := session.NewGuard(controller, cfg)

	mockCtx := new(MockContext)
	mockCtx.On("SetHeader", "Retry-After", "1").Return(mockCtx)
	mockCtx.On("JSON", fiber.StatusServiceUnavailable, mock.Anything).Return(nil)

	handler := func(ctx router.Context) error {
		t.Fatal("handler must not run while the session resolves")
		return nil
	}

	err := guard.Protected(session.Requirement{RequireAuth: true})(handler)(mockCtx)
	require.NoError(t, err)
	mockCtx.AssertExpectations(t)
}

func TestGuardProtectedRedirectsAnonymousToLogin(t *testing.T) {
	provider := &stubProvider{}
	cfg := testConfig()

	controller := session.NewController(provider, cfg)
	t.Cleanup(controller.Close)
	require.NoError(t, controller.Start(context.Background()))

	guard := session.NewGuard(controller, cfg)

	mockCtx := new(MockContext)
	mockCtx.On("OriginalURL").Return("/restaurant/menu")
	mockCtx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
		return c.Name == "rejected_route" && c.Value == "/restaurant/menu" && c.HTTPOnly
	})).Return()
	mockCtx.On("Method").Return("GET")
	mockCtx.On("Redirect", session.RouteLogin, []int{fiber.StatusFound}).Return(nil)

	handler := func(ctx router.Context) error {
		t.Fatal("handler must not run for anonymous sessions")
		return nil
	}

	err := guard.Protected(session.Requirement{RequireAuth: true})(handler)(mockCtx)
	require.NoError(t, err)
	mockCtx.AssertExpectations(t)
}

func TestGuardProtectedTenantMismatchFallsBack(t *testing.T) {
	provider := &stubProvider{token: restaurantToken(t, "owner")}
	cfg := testConfig()
	controller := signedInController(t, provider, cfg, &memSink{}, nil)

	guard := session.NewGuard(controller, cfg)

	mockCtx := new(MockContext)
	mockCtx.On("Method").Return("POST")
	mockCtx.On("Redirect", session.RouteRoot, []int{fiber.StatusSeeOther}).Return(nil)

	err := guard.Protected(session.Requirement{
		RequireAuth: true,
		TenantType:  session.TenantVoice,
	})(func(ctx router.Context) error {
		t.Fatal("handler must not run on tenant mismatch")
		return nil
	})(mockCtx)
	require.NoError(t, err)
	mockCtx.AssertExpectations(t)
}

func TestGuardProtectedRoleShortfallGoesToTenantHome(t *testing.T) {
	provider := &stubProvider{token: restaurantToken(t, "staff")}
	cfg := testConfig()
	controller := signedInController(t, provider, cfg, &memSink{}, nil)

	guard := session.NewGuard(controller, cfg)

	mockCtx := new(MockContext)
	mockCtx.On("Method").Return("GET")
	mockCtx.On("Redirect", session.RouteRestaurantHome, []int{fiber.StatusFound}).Return(nil)

	err := guard.Protected(session.Requirement{
		RequireAuth: true,
		TenantType:  session.TenantRestaurant,
		MinimumRole: session.RoleManager,
	})(func(ctx router.Context) error {
		t.Fatal("handler must not run below the minimum role")
		return nil
	})(mockCtx)
	require.NoError(t, err)
	mockCtx.AssertExpectations(t)
}

func TestGuardAutoRedirectSendsAuthenticatedHome(t *testing.T) {
	provider := &stubProvider{token: restaurantToken(t, "owner")}
	cfg := testConfig()
	controller := signedInController(t, provider, cfg, &memSink{}, nil)

	guard := session.NewGuard(controller, cfg)

	mockCtx := new(MockContext)
	mockCtx.On("OriginalURL").Return("/login")
	mockCtx.On("Method").Return("GET")
	mockCtx.On("Redirect", session.RouteRestaurantHome, []int{fiber.StatusFound}).Return(nil)

	err := guard.AutoRedirect()(func(ctx router.Context) error {
		t.Fatal("handler must not run when a redirect applies")
		return nil
	})(mockCtx)
	require.NoError(t, err)
	mockCtx.AssertExpectations(t)
}

func TestGuardAutoRedirectPassesThroughOnProtectedRoutes(t *testing.T) {
	provider := &stubProvider{token: restaurantToken(t, "owner")}
	cfg := testConfig()
	controller := signedInController(t, provider, cfg, &memSink{}, nil)

	guard := session.NewGuard(controller, cfg)

	mockCtx := new(MockContext)
	mockCtx.On("OriginalURL").Return("/restaurant/settings")

	handlerCalled := false
	err := guard.AutoRedirect()(func(ctx router.Context) error {
		handlerCalled = true
		return nil
	})(mockCtx)
	require.NoError(t, err)
	assert.True(t, handlerCalled)
}

func TestGuardRedirectCookieHelpers(t *testing.T) {
	provider := &stubProvider{}
	cfg := testConfig()
	controller := session.NewController(provider, cfg)
	t.Cleanup(controller.Close)

	guard := session.NewGuard(controller, cfg)

	mockCtx := new(MockContext)
	mockCtx.On("Cookies", "rejected_route").Return("/restaurant/menu")
	mockCtx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
		return c.Name == "rejected_route" && c.Value == ""
	})).Return()

	assert.Equal(t, "/restaurant/menu", guard.GetRedirect(mockCtx))
	mockCtx.AssertExpectations(t)

	// no cookie: fall back to the supplied default
	emptyCtx := new(MockContext)
	emptyCtx.On("Cookies", "rejected_route").Return("")
	assert.Equal(t, "/after-login", guard.GetRedirect(emptyCtx, "/after-login"))

	// no cookie and no default: the configured fallback
	bare := new(MockContext)
	bare.On("Cookies", "rejected_route").Return("")
	assert.Equal(t, session.RouteRoot, guard.GetRedirect(bare))
}
