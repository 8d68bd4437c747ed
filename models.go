package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PersistedSession is the on-disk record of the last known good token for an
// account. It exists so a restart, or a recoverable refresh failure, can
// reuse the previous token instead of forcing a re-authentication.
type PersistedSession struct {
	bun.BaseModel `bun:"table:session_cache,alias:sc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountKey    string     `bun:"account_key,notnull,unique" json:"account_key,omitempty"`
	Token         string     `bun:"token" json:"token,omitempty"`
	TenantType    string     `bun:"tenant_type" json:"tenant_type,omitempty"`
	UserRole      string     `bun:"user_role" json:"user_role,omitempty"`
	TenantID      string     `bun:"tenant_id" json:"tenant_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
