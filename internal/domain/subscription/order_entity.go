// internal/domain/subscription/order_entity.go
package subscription

import (
	"database/sql"
	"time"
)

// PlanOrder is one purchased instance of a plan, with its own time-accounting
// state. A seller may own many orders (repeat purchases, top-ups, expired
// history) but at most one carries OrderStatusActive at any instant.
//
// DurationDays and Price are snapshots taken at purchase time and are
// authoritative over the catalog entry's current values.
type PlanOrder struct {
	ID             int64  `json:"id" db:"id"`
	OrderReference string `json:"order_reference" db:"order_reference"`

	SellerID int64  `json:"seller_id" db:"seller_id"`
	PlanID   int64  `json:"plan_id" db:"plan_id"`
	PlanName string `json:"plan_name" db:"plan_name"`
	PlanKind PlanKind `json:"plan_kind" db:"plan_kind"`

	// Value snapshots from the plan at purchase time
	DurationDays int     `json:"duration_days" db:"duration_days"`
	Price        float64 `json:"price" db:"price"`

	PaymentStatus PaymentStatus `json:"payment_status" db:"payment_status"`

	// Time accounting. UsedMs is the total milliseconds this order has spent
	// active across all past activation intervals; it only grows.
	// LastActivatedAt is set while status == active and cleared on pause.
	// ExpiryDate is a cached projection refreshed opportunistically; remaining
	// time is always re-derived from UsedMs + LastActivatedAt, never read back
	// from ExpiryDate.
	Status          OrderStatus  `json:"status" db:"status"`
	LastActivatedAt sql.NullTime `json:"last_activated_at,omitempty" db:"last_activated_at"`
	UsedMs          int64        `json:"used_ms" db:"used_ms"`
	ExpiryDate      sql.NullTime `json:"expiry_date,omitempty" db:"expiry_date"`

	// Quota limits copied from the plan at creation (null = unlimited) and
	// counters maintained by the retail CRUD paths.
	CustomerLimit sql.NullInt32 `json:"customer_limit,omitempty" db:"customer_limit"`
	ProductLimit  sql.NullInt32 `json:"product_limit,omitempty" db:"product_limit"`
	OrderLimit    sql.NullInt32 `json:"order_limit,omitempty" db:"order_limit"`
	CustomerCount int           `json:"customer_count" db:"customer_count"`
	ProductCount  int           `json:"product_count" db:"product_count"`
	OrderCount    int           `json:"order_count" db:"order_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsMini reports whether this order is an additive top-up purchase.
// Mini orders never activate on a timer and never become the seller's
// current order.
func (o *PlanOrder) IsMini() bool {
	return o.PlanKind == PlanKindMini
}

// IsPaid reports whether payment has completed for this order.
func (o *PlanOrder) IsPaid() bool {
	return o.PaymentStatus == PaymentCompleted
}
