// internal/domain/seller/entity.go
package seller

import (
	"database/sql"
	"time"
)

// Seller is a tenant: the unit of subscription ownership. CurrentPlanOrderID
// points at the plan order currently authoritative for this seller; only the
// activation engine updates it.
type Seller struct {
	ID           int64  `json:"id" db:"id"`
	FullName     string `json:"full_name" db:"full_name"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         string `json:"role" db:"role"`
	IsActive     bool   `json:"is_active" db:"is_active"`

	CurrentPlanOrderID sql.NullInt64 `json:"current_plan_order_id,omitempty" db:"current_plan_order_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
