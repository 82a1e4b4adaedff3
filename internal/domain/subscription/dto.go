// internal/domain/subscription/dto.go
package subscription

import "time"

// ActivateRequest selects the activation target: exactly one of plan_id or
// order_id must be supplied.
type ActivateRequest struct {
	PlanID      *int64 `json:"plan_id"`
	OrderID     *int64 `json:"order_id"`
	AllowCreate bool   `json:"allow_create"`
}

type PurchaseOrderRequest struct {
	PlanID int64 `json:"plan_id" binding:"required"`
}

// ActivationResult is returned by the activation engine on success.
type ActivationResult struct {
	OrderID     int64       `json:"order_id"`
	PlanID      int64       `json:"plan_id"`
	PlanName    string      `json:"plan_name"`
	Status      OrderStatus `json:"status"`
	RemainingMs int64       `json:"remaining_ms"`
	Remaining   string      `json:"remaining"`
	ExpiryDate  *time.Time  `json:"expiry_date,omitempty"`
	IsTopUp     bool        `json:"is_top_up,omitempty"`
}

// ValidityStatus is the write-gate verdict for a seller.
type ValidityStatus struct {
	Valid       bool   `json:"valid"`
	Reason      string `json:"reason,omitempty"`
	OrderID     int64  `json:"order_id,omitempty"`
	PlanID      int64  `json:"plan_id,omitempty"`
	PlanName    string `json:"plan_name,omitempty"`
	RemainingMs int64  `json:"remaining_ms"`
	Remaining   string `json:"remaining,omitempty"`
}

// OrderValidity is one row of the remaining-validity report.
type OrderValidity struct {
	OrderID       int64         `json:"order_id"`
	PlanID        int64         `json:"plan_id"`
	PlanName      string        `json:"plan_name"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	RemainingMs   int64         `json:"remaining_ms"`
	Remaining     string        `json:"remaining"`
	ExpiryDate    *time.Time    `json:"expiry_date,omitempty"`
}

// QuotaUsage reports one resource counter against its limit.
// Limit -1 means unlimited.
type QuotaUsage struct {
	Used      int  `json:"used"`
	Limit     int  `json:"limit"`
	Remaining int  `json:"remaining"`
	Unlimited bool `json:"unlimited"`
}

type UsageSummary struct {
	Customers QuotaUsage `json:"customers"`
	Products  QuotaUsage `json:"products"`
	Orders    QuotaUsage `json:"orders"`
}

// UsageSummaryResponse pairs the counters with the plan they came from.
type UsageSummaryResponse struct {
	Summary     UsageSummary `json:"summary"`
	PlanDetails *Plan        `json:"plan_details,omitempty"`
}

type CreatePlanRequest struct {
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description"`
	Price        float64  `json:"price" binding:"min=0"`
	DurationDays int      `json:"duration_days" binding:"min=0"`
	Kind         PlanKind `json:"kind" binding:"omitempty,oneof=standard mini"`
	MaxCustomers *int32   `json:"max_customers"`
	MaxProducts  *int32   `json:"max_products"`
	MaxOrders    *int32   `json:"max_orders"`
}

type UpdatePlanRequest struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	Price        *float64 `json:"price" binding:"omitempty,min=0"`
	DurationDays *int     `json:"duration_days" binding:"omitempty,min=1"`
	MaxCustomers *int32   `json:"max_customers"`
	MaxProducts  *int32   `json:"max_products"`
	MaxOrders    *int32   `json:"max_orders"`
	IsActive     *bool    `json:"is_active"`
}
