package session_test

import (
	"testing"

	session "github.com/merxus/go-session"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateGuardRules(t *testing.T) {
	principal := &session.Principal{UID: "uid-1"}
	restaurantOwner := mustClaims(t, "owner", "restaurant", "rest-1")
	restaurantStaff := mustClaims(t, "staff", "restaurant", "rest-1")
	voiceAdmin := mustClaims(t, "admin", "voice", "office-1")
	merxusSupport := mustClaims(t, "merxus_support", "merxus", "")

	authRestaurant := session.Snapshot{
		State:     session.StateAuthenticated,
		Principal: principal,
		Claims:    restaurantOwner,
	}

	cases := []struct {
		name string
		snap session.Snapshot
		req  session.Requirement
		want session.Decision
	}{
		{
			name: "uninitialized session renders placeholder",
			snap: session.Snapshot{State: session.StateUninitialized},
			req:  session.Requirement{RequireAuth: true},
			want: session.DecisionLoading,
		},
		{
			name: "loading session renders placeholder even when requirements would fail",
			snap: session.Snapshot{State: session.StateLoading, Principal: principal},
			req:  session.Requirement{RequireAuth: true, TenantType: session.TenantVoice},
			want: session.DecisionLoading,
		},
		{
			name: "principal without claims is a broken session",
			snap: session.Snapshot{State: session.StateAuthenticated, Principal: principal},
			req:  session.Requirement{RequireAuth: true},
			want: session.DecisionLoginRedirect,
		},
		{
			name: "no principal goes to login",
			snap: session.Snapshot{State: session.StateUnauthenticated},
			req:  session.Requirement{RequireAuth: true},
			want: session.DecisionLoginRedirect,
		},
		{
			name: "tenant type mismatch falls back to the generic route",
			snap: session.Snapshot{
				State:     session.StateAuthenticated,
				Principal: principal,
				Claims:    voiceAdmin,
			},
			req:  session.Requirement{RequireAuth: true, TenantType: session.TenantRestaurant},
			want: session.DecisionHomeRedirect,
		},
		{
			name: "tenant mismatch wins over the role check",
			snap: session.Snapshot{
				State:     session.StateAuthenticated,
				Principal: principal,
				Claims:    voiceAdmin,
			},
			req: session.Requirement{
				RequireAuth: true,
				TenantType:  session.TenantRestaurant,
				MinimumRole: session.RoleViewer,
			},
			want: session.DecisionHomeRedirect,
		},
		{
			name: "unmet role goes to the session's own tenant home",
			snap: session.Snapshot{
				State:     session.StateAuthenticated,
				Principal: principal,
				Claims:    restaurantStaff,
			},
			req: session.Requirement{
				RequireAuth: true,
				TenantType:  session.TenantRestaurant,
				MinimumRole: session.RoleManager,
			},
			want: session.DecisionTenantHomeRedirect,
		},
		{
			name: "merxus role never satisfies a tenant minimum",
			snap: session.Snapshot{
				State:     session.StateAuthenticated,
				Principal: principal,
				Claims:    merxusSupport,
			},
			req:  session.Requirement{RequireAuth: true, MinimumRole: session.RoleViewer},
			want: session.DecisionTenantHomeRedirect,
		},
		{
			name: "all requirements satisfied",
			snap: authRestaurant,
			req: session.Requirement{
				RequireAuth: true,
				TenantType:  session.TenantRestaurant,
				MinimumRole: session.RoleManager,
			},
			want: session.DecisionAllow,
		},
		{
			name: "no requirements allows an anonymous session",
			snap: session.Snapshot{State: session.StateUnauthenticated},
			req:  session.Requirement{},
			want: session.DecisionAllow,
		},
		{
			name: "tenant requirement without auth still needs matching claims",
			snap: session.Snapshot{State: session.StateUnauthenticated},
			req:  session.Requirement{TenantType: session.TenantRestaurant},
			want: session.DecisionHomeRedirect,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := session.Evaluate(tc.snap, tc.req)
			assert.Equal(t, tc.want, got, "expected %s, got %s", tc.want, got)
		})
	}
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "allow", session.DecisionAllow.String())
	assert.Equal(t, "loading", session.DecisionLoading.String())
	assert.Equal(t, "redirect-login", session.DecisionLoginRedirect.String())
	assert.Equal(t, "redirect-home", session.DecisionHomeRedirect.String())
	assert.Equal(t, "redirect-tenant-home", session.DecisionTenantHomeRedirect.String())
}
