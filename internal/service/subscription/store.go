// internal/service/subscription/store.go
package subscription

import (
	"context"
	"database/sql"
	"time"

	"dukani-service/internal/domain/seller"
	"dukani-service/internal/domain/subscription"
)

// PlanStore provides read access to the plan catalog.
type PlanStore interface {
	FindPlanByID(ctx context.Context, id int64) (*subscription.Plan, error)
}

// OrderStore persists plan orders. SaveActivation is the only write path for
// status, last_activated_at and used_ms: it stores every order mutated by an
// activation plus the seller's current pointer in a single transaction, so a
// storage failure mid-sequence leaves state unchanged.
type OrderStore interface {
	CreateOrder(ctx context.Context, o *subscription.PlanOrder) error
	FindOrderByID(ctx context.Context, id int64) (*subscription.PlanOrder, error)
	FindOrdersBySeller(ctx context.Context, sellerID int64) ([]*subscription.PlanOrder, error)
	// FindOpenOrderByPlan returns the seller's most recent unexpired order for
	// a plan, or xerrors.ErrNotFound.
	FindOpenOrderByPlan(ctx context.Context, sellerID, planID int64) (*subscription.PlanOrder, error)
	// UpdateOrder persists payment status transitions.
	UpdateOrder(ctx context.Context, o *subscription.PlanOrder) error
	// UpdateOrderExpiry refreshes only the cached expiry date. Read-path
	// refreshes run unsynchronized, so they must not touch any other field.
	UpdateOrderExpiry(ctx context.Context, orderID int64, expiry time.Time) error
	// SaveActivation atomically persists the mutated orders and, when
	// currentOrderID is valid, the seller's current_plan_order_id.
	SaveActivation(ctx context.Context, sellerID int64, currentOrderID sql.NullInt64, orders []*subscription.PlanOrder) error
	// IncrementCustomerCount bumps the customer counter unless the order's
	// customer limit is already reached, in which case it returns
	// xerrors.ErrQuotaExceeded.
	IncrementCustomerCount(ctx context.Context, orderID int64) error
}

// SellerStore provides read access to seller records. The current pointer is
// written only through OrderStore.SaveActivation.
type SellerStore interface {
	FindSellerByID(ctx context.Context, id int64) (*seller.Seller, error)
}
