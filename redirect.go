package session

// Default route table for the platform's navigation tree.
const (
	RouteRoot           = "/"
	RouteLogin          = "/login"
	RouteRestaurantHome = "/restaurant"
	RouteVoiceHome      = "/voice"
	RouteEstateHome     = "/estate"
	RouteMerxusHome     = "/merxus"
	RouteTenantSelector = "/merxus/tenants"
)

// LandingRoute computes the default post-login route purely from the
// session's tenant type and role. Unusable claims land on the root route.
func LandingRoute(claims TenantClaims) string {
	if claims == nil {
		return RouteRoot
	}

	switch claims.TenantType() {
	case TenantMerxus:
		if claims.Role() == RoleSuperAdmin {
			return RouteTenantSelector
		}
		return RouteMerxusHome
	case TenantRestaurant:
		return RouteRestaurantHome
	case TenantVoice:
		return RouteVoiceHome
	case TenantEstate:
		return RouteEstateHome
	default:
		return RouteRoot
	}
}

// TenantHomeRoute is the tenant-specific fallback used when a role
// requirement is unmet: the user stays inside their own vertical.
func TenantHomeRoute(claims TenantClaims) string {
	if claims == nil {
		return RouteRoot
	}

	switch claims.TenantType() {
	case TenantMerxus:
		return RouteMerxusHome
	case TenantRestaurant:
		return RouteRestaurantHome
	case TenantVoice:
		return RouteVoiceHome
	case TenantEstate:
		return RouteEstateHome
	default:
		return RouteRoot
	}
}

// AutoRedirect decides where an authenticated session on a public route
// should land. It returns "" when no redirect applies: the session is still
// resolving, unauthenticated, or the current route is not public. Repeated
// calls with unchanged claims return the same target.
func AutoRedirect(snap Snapshot, currentRoute string, publicRoutes []string) string {
	if !isPublicRoute(currentRoute, publicRoutes) {
		return ""
	}

	if snap.IsLoading() || !snap.IsAuthenticated() {
		return ""
	}

	target := LandingRoute(snap.Claims)
	if target == currentRoute {
		return ""
	}
	return target
}

func isPublicRoute(route string, publicRoutes []string) bool {
	for _, r := range publicRoutes {
		if r == route {
			return true
		}
	}
	return false
}
