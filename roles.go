package session

// Role is a session's authorization role
type Role string

const (
	// RoleViewer is a read-only tenant role
	RoleViewer Role = "viewer"
	// RoleStaff is a day-to-day operator role (i.e. view, edit)
	RoleStaff Role = "staff"
	// RoleManager manages a tenant's configuration
	RoleManager Role = "manager"
	// RoleOwner owns the tenant account
	RoleOwner Role = "owner"
	// RoleAdmin is a tenant-level administrator
	RoleAdmin Role = "admin"
	// RoleMerxusSupport is a cross-tenant support operator
	RoleMerxusSupport Role = "merxus_support"
	// RoleMerxusAdmin administers the merxus portal
	RoleMerxusAdmin Role = "merxus_admin"
	// RoleSuperAdmin has unrestricted cross-tenant access
	RoleSuperAdmin Role = "super_admin"
)

// TenantType identifies the business vertical a session is scoped to
type TenantType string

const (
	TenantRestaurant TenantType = "restaurant"
	TenantVoice      TenantType = "voice"
	TenantEstate     TenantType = "real_estate"
	TenantMerxus     TenantType = "merxus"
)

var tenantRoleHierarchy = map[Role]int{
	RoleViewer:  0,
	RoleStaff:   1,
	RoleManager: 2,
	RoleOwner:   3,
	RoleAdmin:   4,
}

var merxusRoleHierarchy = map[Role]int{
	RoleMerxusSupport: 0,
	RoleMerxusAdmin:   1,
	RoleSuperAdmin:    2,
}

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	if _, ok := tenantRoleHierarchy[r]; ok {
		return true
	}
	_, ok := merxusRoleHierarchy[r]
	return ok
}

// IsMerxusRole reports whether the role belongs to the cross-tenant scope
func (r Role) IsMerxusRole() bool {
	_, ok := merxusRoleHierarchy[r]
	return ok
}

// IsAtLeast checks if this role meets the minimum required level. Roles from
// different hierarchies never satisfy each other.
func (r Role) IsAtLeast(minRole Role) bool {
	if level, ok := tenantRoleHierarchy[r]; ok {
		minLevel, ok := tenantRoleHierarchy[minRole]
		return ok && level >= minLevel
	}

	if level, ok := merxusRoleHierarchy[r]; ok {
		minLevel, ok := merxusRoleHierarchy[minRole]
		return ok && level >= minLevel
	}

	return false
}

// IsValid checks if the tenant type is one of the known verticals
func (t TenantType) IsValid() bool {
	switch t {
	case TenantRestaurant, TenantVoice, TenantEstate, TenantMerxus:
		return true
	default:
		return false
	}
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []Role {
	return []Role{
		RoleViewer,
		RoleStaff,
		RoleManager,
		RoleOwner,
		RoleAdmin,
		RoleMerxusSupport,
		RoleMerxusAdmin,
		RoleSuperAdmin,
	}
}

// ParseRole safely parses a string into a Role type
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, role.IsValid()
}

// ParseTenantType safely parses a string into a TenantType
func ParseTenantType(typeStr string) (TenantType, bool) {
	t := TenantType(typeStr)
	return t, t.IsValid()
}
