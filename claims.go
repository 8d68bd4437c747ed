package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TenantClaims represents the decoded authorization attributes of a session.
// Exactly one concrete variant exists per tenant type so downstream
// consumers can switch exhaustively instead of re-checking optional fields.
type TenantClaims interface {
	Subject() string
	Email() string
	Role() Role
	TenantType() TenantType
	// TenantID returns the single tenant identity this session is scoped
	// to, or "" for merxus sessions which operate across tenants.
	TenantID() string
	HasRole(role Role) bool
	IsAtLeast(minRole Role) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// TokenPayload is the raw decoded middle segment of a session token.
type TokenPayload struct {
	jwt.RegisteredClaims
	UserRole     string `json:"role,omitempty"`
	Type         string `json:"type,omitempty"`
	RestaurantID string `json:"restaurantId,omitempty"`
	OfficeID     string `json:"officeId,omitempty"`
	AgentID      string `json:"agentId,omitempty"`
	UserEmail    string `json:"email,omitempty"`
}

type claimsBase struct {
	Sub       string    `json:"sub"`
	UserEmail string    `json:"email,omitempty"`
	UserRole  Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	IssuedAt_ time.Time `json:"issued_at,omitempty"`
}

func (c claimsBase) Subject() string { return c.Sub }

func (c claimsBase) Email() string { return c.UserEmail }

func (c claimsBase) Role() Role { return c.UserRole }

func (c claimsBase) HasRole(role Role) bool { return c.UserRole == role }

func (c claimsBase) IsAtLeast(minRole Role) bool { return c.UserRole.IsAtLeast(minRole) }

func (c claimsBase) Expires() time.Time { return c.ExpiresAt }

func (c claimsBase) IssuedAt() time.Time { return c.IssuedAt_ }

// RestaurantClaims scope a session to a single restaurant tenant.
type RestaurantClaims struct {
	claimsBase
	RestaurantID string `json:"restaurantId"`
}

func (c *RestaurantClaims) TenantType() TenantType { return TenantRestaurant }
func (c *RestaurantClaims) TenantID() string       { return c.RestaurantID }

// VoiceClaims scope a session to a single voice-office tenant.
type VoiceClaims struct {
	claimsBase
	OfficeID string `json:"officeId"`
}

func (c *VoiceClaims) TenantType() TenantType { return TenantVoice }
func (c *VoiceClaims) TenantID() string       { return c.OfficeID }

// EstateClaims scope a session to a single real-estate agent tenant.
type EstateClaims struct {
	claimsBase
	AgentID string `json:"agentId"`
}

func (c *EstateClaims) TenantType() TenantType { return TenantEstate }
func (c *EstateClaims) TenantID() string       { return c.AgentID }

// MerxusClaims mark a cross-tenant admin session. They carry no tenant
// identity.
type MerxusClaims struct {
	claimsBase
}

func (c *MerxusClaims) TenantType() TenantType { return TenantMerxus }
func (c *MerxusClaims) TenantID() string       { return "" }

var (
	_ TenantClaims = (*RestaurantClaims)(nil)
	_ TenantClaims = (*VoiceClaims)(nil)
	_ TenantClaims = (*EstateClaims)(nil)
	_ TenantClaims = (*MerxusClaims)(nil)
)

// ParseTenantClaims converts a decoded token payload into its tagged claim
// variant. Both role and tenant type must be present and mutually
// consistent; anything else is rejected so a half-populated claim set never
// reaches the store.
func ParseTenantClaims(payload *TokenPayload) (TenantClaims, error) {
	if payload == nil {
		return nil, ErrClaimShape
	}

	role, ok := ParseRole(payload.UserRole)
	if !ok {
		return nil, claimShapeError("role", payload.UserRole)
	}

	tenantType, ok := ParseTenantType(payload.Type)
	if !ok {
		return nil, claimShapeError("type", payload.Type)
	}

	if role.IsMerxusRole() != (tenantType == TenantMerxus) {
		return nil, claimShapeError("role", payload.UserRole)
	}

	base := claimsBase{
		Sub:       payload.RegisteredClaims.Subject,
		UserEmail: payload.UserEmail,
		UserRole:  role,
	}
	if payload.RegisteredClaims.ExpiresAt != nil {
		base.ExpiresAt = payload.RegisteredClaims.ExpiresAt.Time
	}
	if payload.RegisteredClaims.IssuedAt != nil {
		base.IssuedAt_ = payload.RegisteredClaims.IssuedAt.Time
	}

	switch tenantType {
	case TenantRestaurant:
		return &RestaurantClaims{claimsBase: base, RestaurantID: payload.RestaurantID}, nil
	case TenantVoice:
		return &VoiceClaims{claimsBase: base, OfficeID: payload.OfficeID}, nil
	case TenantEstate:
		return &EstateClaims{claimsBase: base, AgentID: payload.AgentID}, nil
	case TenantMerxus:
		return &MerxusClaims{claimsBase: base}, nil
	default:
		return nil, claimShapeError("type", payload.Type)
	}
}

func claimShapeError(field, value string) error {
	clone := ErrClaimShape.Clone()
	if clone == nil {
		return ErrClaimShape
	}
	return clone.WithMetadata(map[string]any{
		"field": field,
		"value": value,
	})
}

// IsMerxus reports whether the claims belong to the cross-tenant scope.
func IsMerxus(claims TenantClaims) bool {
	return claims != nil && claims.TenantType() == TenantMerxus
}

// IsSuperAdmin reports whether the claims carry unrestricted access.
func IsSuperAdmin(claims TenantClaims) bool {
	return claims != nil && claims.Role() == RoleSuperAdmin
}

// IsTenant reports whether the claims are scoped to the given vertical.
func IsTenant(claims TenantClaims, tenantType TenantType) bool {
	return claims != nil && claims.TenantType() == tenantType
}

// IsTenantOwner reports whether the claims own a tenant of the given
// vertical.
func IsTenantOwner(claims TenantClaims, tenantType TenantType) bool {
	return IsTenant(claims, tenantType) && claims.Role() == RoleOwner
}
