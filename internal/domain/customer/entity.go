// internal/domain/customer/entity.go
package customer

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Customer is a buyer record owned by a seller. Creation counts against the
// seller's active plan-order customer quota.
type Customer struct {
	ID                int64  `json:"id" db:"id"`
	SellerID          int64  `json:"seller_id" db:"seller_id"`
	CustomerReference string `json:"customer_reference" db:"customer_reference"`

	FullName    string         `json:"full_name" db:"full_name"`
	PhoneNumber string         `json:"phone_number" db:"phone_number"`
	Email       sql.NullString `json:"email,omitempty" db:"email"`
	Notes       sql.NullString `json:"notes,omitempty" db:"notes"`
	Tags        pq.StringArray `json:"tags,omitempty" db:"tags"`

	IsActive bool `json:"is_active" db:"is_active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
