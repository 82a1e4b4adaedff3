// internal/domain/subscription/entity.go
package subscription

import (
	"database/sql"
	"time"
)

// PlanKind distinguishes timed subscriptions from additive top-ups.
type PlanKind string

const (
	PlanKindStandard PlanKind = "standard"
	PlanKindMini     PlanKind = "mini"
)

// PaymentStatus tracks whether a plan order has been paid for.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

// OrderStatus is the time-accounting state of a plan order.
// Expired is terminal: the engine never moves an order out of it.
type OrderStatus string

const (
	OrderStatusPaused  OrderStatus = "paused"
	OrderStatusActive  OrderStatus = "active"
	OrderStatusExpired OrderStatus = "expired"
)

// Plan is a catalog entry: a named subscription tier sellers can purchase.
// Plans are reference data; orders snapshot price and duration at purchase
// time, so editing a plan never changes an already-purchased term.
type Plan struct {
	ID          int64          `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Description sql.NullString `json:"description,omitempty" db:"description"`

	// Pricing and term
	Price        float64  `json:"price" db:"price"`
	DurationDays int      `json:"duration_days" db:"duration_days"`
	Kind         PlanKind `json:"kind" db:"kind"`

	// Entitlement limits (null = unlimited)
	MaxCustomers sql.NullInt32 `json:"max_customers,omitempty" db:"max_customers"`
	MaxProducts  sql.NullInt32 `json:"max_products,omitempty" db:"max_products"`
	MaxOrders    sql.NullInt32 `json:"max_orders,omitempty" db:"max_orders"`

	IsActive bool `json:"is_active" db:"is_active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsFree reports whether the plan costs nothing.
func (p *Plan) IsFree() bool {
	return p.Price == 0
}

type PlanStats struct {
	TotalPlans    int64   `json:"total_plans"`
	ActivePlans   int64   `json:"active_plans"`
	InactivePlans int64   `json:"inactive_plans"`
	AveragePrice  float64 `json:"average_price"`
}
