// internal/service/subscription/service.go
package subscription

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"dukani-service/internal/domain/subscription"
	xerrors "dukani-service/internal/pkg/errors"
	"dukani-service/internal/pkg/keylock"
	"dukani-service/internal/pkg/validity"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// SubscriptionService is the activation engine. Every mutation of an order's
// status, last_activated_at or used_ms funnels through Activate; all
// activation work for one seller runs under that seller's lock.
type SubscriptionService struct {
	plans   PlanStore
	orders  OrderStore
	sellers SellerStore
	locks   *keylock.KeyLock
	cache   *ValidityCache
	logger  *zap.Logger
	now     func() time.Time
}

func NewSubscriptionService(
	plans PlanStore,
	orders OrderStore,
	sellers SellerStore,
	cache *ValidityCache,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		plans:   plans,
		orders:  orders,
		sellers: sellers,
		locks:   keylock.New(),
		cache:   cache,
		logger:  logger,
		now:     time.Now,
	}
}

// PurchaseOrder creates a plan order from a catalog entry, snapshotting the
// plan's price and duration. Free plans start payment-completed; priced plans
// start pending until the payment callback lands.
func (s *SubscriptionService) PurchaseOrder(ctx context.Context, sellerID, planID int64) (*subscription.PlanOrder, error) {
	plan, err := s.plans.FindPlanByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("plan not found: %w", err)
	}
	if !plan.IsActive {
		return nil, xerrors.Wrap(xerrors.ErrNotFound, "plan is not available")
	}

	if plan.Kind == subscription.PlanKindMini {
		if err := s.requireNonMiniOrder(ctx, sellerID); err != nil {
			return nil, err
		}
	}

	order := s.newOrderFromPlan(sellerID, plan)
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create plan order: %w", err)
	}

	s.logger.Info("plan order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("seller_id", sellerID),
		zap.Int64("plan_id", planID),
		zap.String("plan_kind", string(plan.Kind)),
		zap.String("payment_status", string(order.PaymentStatus)),
	)

	return order, nil
}

// CompletePayment marks a pending order as paid. Stand-in for the payment
// gateway callback.
func (s *SubscriptionService) CompletePayment(ctx context.Context, sellerID, orderID int64) (*subscription.PlanOrder, error) {
	order, err := s.orders.FindOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.SellerID != sellerID {
		return nil, xerrors.ErrUnauthorized
	}
	if order.IsPaid() {
		return order, nil
	}

	order.PaymentStatus = subscription.PaymentCompleted
	if err := s.orders.UpdateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to complete payment: %w", err)
	}

	s.invalidateCache(ctx, sellerID)
	s.logger.Info("plan order payment completed",
		zap.Int64("order_id", orderID),
		zap.Int64("seller_id", sellerID),
	)
	return order, nil
}

// Activate resolves the target order, pauses every competing order the seller
// owns, validates and activates the target, and moves the seller's current
// pointer — all under the seller's lock, persisted in one transaction.
func (s *SubscriptionService) Activate(ctx context.Context, sellerID int64, req *subscription.ActivateRequest) (*subscription.ActivationResult, error) {
	if (req.PlanID == nil) == (req.OrderID == nil) {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "exactly one of plan_id or order_id is required")
	}

	unlock, err := s.locks.Lock(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return s.activateLocked(ctx, sellerID, req)
}

func (s *SubscriptionService) activateLocked(ctx context.Context, sellerID int64, req *subscription.ActivateRequest) (*subscription.ActivationResult, error) {
	now := s.now()

	sel, err := s.sellers.FindSellerByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	var target *subscription.PlanOrder
	switch {
	case req.OrderID != nil:
		target, err = s.orders.FindOrderByID(ctx, *req.OrderID)
		if err != nil {
			return nil, err
		}
		if target.SellerID != sellerID {
			return nil, xerrors.ErrUnauthorized
		}
		if target.IsMini() {
			return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "top-up orders cannot be activated")
		}
	case req.PlanID != nil:
		plan, perr := s.plans.FindPlanByID(ctx, *req.PlanID)
		if perr != nil {
			return nil, perr
		}
		if !plan.IsActive {
			return nil, xerrors.Wrap(xerrors.ErrNotFound, "plan is not available")
		}

		// Mini plans are pure top-ups: always a fresh order, no activation,
		// no sibling pausing, current pointer untouched.
		if plan.Kind == subscription.PlanKindMini {
			if err := s.requireNonMiniOrder(ctx, sellerID); err != nil {
				return nil, err
			}
			order := s.newOrderFromPlan(sellerID, plan)
			if err := s.orders.CreateOrder(ctx, order); err != nil {
				return nil, fmt.Errorf("failed to create top-up order: %w", err)
			}
			s.logger.Info("top-up order created",
				zap.Int64("order_id", order.ID),
				zap.Int64("seller_id", sellerID),
				zap.Int64("plan_id", plan.ID),
			)
			return &subscription.ActivationResult{
				OrderID:  order.ID,
				PlanID:   plan.ID,
				PlanName: order.PlanName,
				Status:   order.Status,
				IsTopUp:  true,
			}, nil
		}

		target, err = s.orders.FindOpenOrderByPlan(ctx, sellerID, plan.ID)
		if xerrors.Is(err, xerrors.ErrNotFound) {
			if !req.AllowCreate {
				return nil, err
			}
			if !plan.IsFree() {
				// A paid order cannot be conjured here; the purchase and
				// payment flow must complete first.
				return nil, xerrors.Wrap(xerrors.ErrPaymentRequired, "plan requires a paid order")
			}
			if err := s.requireOtherValidOrder(ctx, sellerID, 0); err != nil {
				return nil, err
			}
			target = s.newOrderFromPlan(sellerID, plan)
			if err := s.orders.CreateOrder(ctx, target); err != nil {
				return nil, fmt.Errorf("failed to create plan order: %w", err)
			}
		} else if err != nil {
			return nil, err
		}
	}

	if !target.IsPaid() {
		return nil, xerrors.ErrPaymentRequired
	}

	// Free plans may only be (re)activated while some other valid order
	// exists; otherwise a lapsed seller could renew the trial forever.
	if target.Price == 0 && !target.IsMini() {
		if err := s.requireOtherValidOrder(ctx, sellerID, target.ID); err != nil {
			return nil, err
		}
	}

	// Idempotent no-op: the target already is the seller's current active
	// order and still has time left. Refresh the cached expiry and return
	// without touching siblings.
	if sel.CurrentPlanOrderID.Valid && sel.CurrentPlanOrderID.Int64 == target.ID &&
		target.Status == subscription.OrderStatusActive {
		remaining := validity.RemainingMs(target, now)
		if remaining > 0 {
			target.ExpiryDate = sql.NullTime{Time: now.Add(time.Duration(remaining) * time.Millisecond), Valid: true}
			if err := s.orders.UpdateOrderExpiry(ctx, target.ID, target.ExpiryDate.Time); err != nil {
				return nil, fmt.Errorf("failed to refresh expiry: %w", err)
			}
			return s.result(target, remaining), nil
		}
	}

	all, err := s.orders.FindOrdersBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seller orders: %w", err)
	}

	// Pause every competing order, folding elapsed active time into used ms.
	// Orders that ran out while active expire instead, with usage frozen at
	// the full term so their remaining time stays at zero forever.
	mutated := make([]*subscription.PlanOrder, 0, len(all))
	for _, sib := range all {
		if sib.ID == target.ID || sib.Status != subscription.OrderStatusActive {
			continue
		}
		rem := validity.RemainingMs(sib, now)
		if rem <= 0 {
			s.expire(sib)
		} else {
			sib.UsedMs = validity.TotalMs(sib) - rem
			sib.LastActivatedAt = sql.NullTime{}
			sib.Status = subscription.OrderStatusPaused
		}
		mutated = append(mutated, sib)
	}

	remaining := validity.RemainingMs(target, now)
	if remaining <= 0 {
		s.expire(target)
		mutated = append(mutated, target)
		if err := s.orders.SaveActivation(ctx, sellerID, sql.NullInt64{}, mutated); err != nil {
			return nil, fmt.Errorf("failed to persist expiry: %w", err)
		}
		s.invalidateCache(ctx, sellerID)
		return nil, xerrors.ErrPlanExpired
	}

	target.Status = subscription.OrderStatusActive
	target.LastActivatedAt = sql.NullTime{Time: now, Valid: true}
	target.ExpiryDate = sql.NullTime{Time: now.Add(time.Duration(remaining) * time.Millisecond), Valid: true}
	mutated = append(mutated, target)

	current := sql.NullInt64{Int64: target.ID, Valid: true}
	if err := s.orders.SaveActivation(ctx, sellerID, current, mutated); err != nil {
		return nil, fmt.Errorf("failed to persist activation: %w", err)
	}

	s.invalidateCache(ctx, sellerID)
	s.logger.Info("plan order activated",
		zap.Int64("order_id", target.ID),
		zap.Int64("seller_id", sellerID),
		zap.Int64("remaining_ms", remaining),
		zap.Int("paused_siblings", len(mutated)-1),
	)

	return s.result(target, remaining), nil
}

// IsValid is the read-path check behind the write gate. It fails closed: a
// missing seller pointer, missing order or plan, a deactivated plan or an
// incomplete payment all yield an invalid verdict.
func (s *SubscriptionService) IsValid(ctx context.Context, sellerID int64) (*subscription.ValidityStatus, error) {
	sel, err := s.sellers.FindSellerByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if !sel.CurrentPlanOrderID.Valid {
		return &subscription.ValidityStatus{Valid: false, Reason: "no subscription selected"}, nil
	}

	order, err := s.orders.FindOrderByID(ctx, sel.CurrentPlanOrderID.Int64)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		return &subscription.ValidityStatus{Valid: false, Reason: "subscription order missing"}, nil
	}
	if err != nil {
		return nil, err
	}

	plan, err := s.plans.FindPlanByID(ctx, order.PlanID)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		return &subscription.ValidityStatus{Valid: false, Reason: "subscription plan missing"}, nil
	}
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return &subscription.ValidityStatus{Valid: false, Reason: "subscription plan discontinued"}, nil
	}
	if !order.IsPaid() {
		return &subscription.ValidityStatus{Valid: false, Reason: "payment not completed"}, nil
	}

	remaining := validity.RemainingMs(order, s.now())
	status := &subscription.ValidityStatus{
		Valid:       remaining > 0,
		OrderID:     order.ID,
		PlanID:      plan.ID,
		PlanName:    order.PlanName,
		RemainingMs: validity.Clamp(remaining),
		Remaining:   validity.Format(remaining),
	}
	if !status.Valid {
		status.Reason = "subscription expired"
	}
	return status, nil
}

// EnsureValid returns the seller's validity verdict, failing over to the best
// eligible alternative order when the current one has lapsed. The failover
// activation runs through Activate and therefore under the seller's lock.
func (s *SubscriptionService) EnsureValid(ctx context.Context, sellerID int64) (*subscription.ValidityStatus, error) {
	status, err := s.IsValid(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if status.Valid {
		return status, nil
	}

	next, err := s.selectFailover(ctx, sellerID)
	if err != nil || next == nil {
		return status, nil
	}

	res, err := s.Activate(ctx, sellerID, &subscription.ActivateRequest{OrderID: &next.ID})
	if err != nil {
		s.logger.Warn("subscription failover failed",
			zap.Int64("seller_id", sellerID),
			zap.Int64("order_id", next.ID),
			zap.Error(err),
		)
		return status, nil
	}

	return &subscription.ValidityStatus{
		Valid:       true,
		OrderID:     res.OrderID,
		PlanID:      res.PlanID,
		PlanName:    res.PlanName,
		RemainingMs: res.RemainingMs,
		Remaining:   res.Remaining,
	}, nil
}

// selectFailover picks the best alternative order: payment completed, time
// remaining, not a top-up; soonest to expire first, ties broken by the
// earlier cached expiry date.
func (s *SubscriptionService) selectFailover(ctx context.Context, sellerID int64) (*subscription.PlanOrder, error) {
	all, err := s.orders.FindOrdersBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	now := s.now()

	candidates := make([]*subscription.PlanOrder, 0, len(all))
	for _, o := range all {
		if o.IsMini() || !o.IsPaid() || o.Status == subscription.OrderStatusExpired {
			continue
		}
		if validity.RemainingMs(o, now) <= 0 {
			continue
		}
		candidates = append(candidates, o)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		ri := validity.RemainingMs(candidates[i], now)
		rj := validity.RemainingMs(candidates[j], now)
		if ri != rj {
			return ri < rj
		}
		ei, ej := candidates[i].ExpiryDate, candidates[j].ExpiryDate
		if ei.Valid && ej.Valid {
			return ei.Time.Before(ej.Time)
		}
		return ei.Valid
	})
	return candidates[0], nil
}

// RemainingValidity reports every order the seller owns with freshly computed
// remaining time, opportunistically refreshing the cached expiry of the
// running order.
func (s *SubscriptionService) RemainingValidity(ctx context.Context, sellerID int64) ([]subscription.OrderValidity, error) {
	all, err := s.orders.FindOrdersBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	now := s.now()

	report := make([]subscription.OrderValidity, 0, len(all))
	for _, o := range all {
		remaining := validity.RemainingMs(o, now)

		// Refreshing the cache must not rewrite activation state: a concurrent
		// activation may have paused this order since the read above, and the
		// report holds no lock. Only the cached expiry date is written back.
		if o.Status == subscription.OrderStatusActive && remaining > 0 {
			o.ExpiryDate = sql.NullTime{Time: now.Add(time.Duration(remaining) * time.Millisecond), Valid: true}
			if err := s.orders.UpdateOrderExpiry(ctx, o.ID, o.ExpiryDate.Time); err != nil {
				s.logger.Warn("failed to refresh cached expiry",
					zap.Int64("order_id", o.ID), zap.Error(err))
			}
		}

		row := subscription.OrderValidity{
			OrderID:       o.ID,
			PlanID:        o.PlanID,
			PlanName:      o.PlanName,
			Status:        o.Status,
			PaymentStatus: o.PaymentStatus,
			RemainingMs:   validity.Clamp(remaining),
			Remaining:     validity.Format(remaining),
		}
		if o.ExpiryDate.Valid {
			t := o.ExpiryDate.Time
			row.ExpiryDate = &t
		}
		report = append(report, row)
	}
	return report, nil
}

// UsageSummary reports the seller's quota counters against the limits
// snapshotted on the current order.
func (s *SubscriptionService) UsageSummary(ctx context.Context, sellerID int64) (*subscription.UsageSummaryResponse, error) {
	sel, err := s.sellers.FindSellerByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if !sel.CurrentPlanOrderID.Valid {
		return nil, xerrors.Wrap(xerrors.ErrNotFound, "no subscription selected")
	}

	order, err := s.orders.FindOrderByID(ctx, sel.CurrentPlanOrderID.Int64)
	if err != nil {
		return nil, err
	}

	resp := &subscription.UsageSummaryResponse{
		Summary: subscription.UsageSummary{
			Customers: quota(order.CustomerCount, order.CustomerLimit),
			Products:  quota(order.ProductCount, order.ProductLimit),
			Orders:    quota(order.OrderCount, order.OrderLimit),
		},
	}
	if plan, err := s.plans.FindPlanByID(ctx, order.PlanID); err == nil {
		resp.PlanDetails = plan
	}
	return resp, nil
}

// ConsumeCustomerQuota charges one customer slot against the seller's current
// order. Counter bookkeeping is a conditional store increment, not an engine
// state transition, so it does not take the seller lock.
func (s *SubscriptionService) ConsumeCustomerQuota(ctx context.Context, sellerID int64) error {
	sel, err := s.sellers.FindSellerByID(ctx, sellerID)
	if err != nil {
		return err
	}
	if !sel.CurrentPlanOrderID.Valid {
		return xerrors.Wrap(xerrors.ErrNotFound, "no subscription selected")
	}
	return s.orders.IncrementCustomerCount(ctx, sel.CurrentPlanOrderID.Int64)
}

// ListOrders returns the seller's orders, newest first.
func (s *SubscriptionService) ListOrders(ctx context.Context, sellerID int64) ([]*subscription.PlanOrder, error) {
	return s.orders.FindOrdersBySeller(ctx, sellerID)
}

// ---------- helpers ----------

func (s *SubscriptionService) newOrderFromPlan(sellerID int64, plan *subscription.Plan) *subscription.PlanOrder {
	payment := subscription.PaymentPending
	if plan.IsFree() {
		payment = subscription.PaymentCompleted
	}
	return &subscription.PlanOrder{
		OrderReference: "ORD-" + ulid.Make().String(),
		SellerID:       sellerID,
		PlanID:         plan.ID,
		PlanName:       plan.Name,
		PlanKind:       plan.Kind,
		DurationDays:   plan.DurationDays,
		Price:          plan.Price,
		PaymentStatus:  payment,
		Status:         subscription.OrderStatusPaused,
		CustomerLimit:  plan.MaxCustomers,
		ProductLimit:   plan.MaxProducts,
		OrderLimit:     plan.MaxOrders,
	}
}

// expire freezes an order in its terminal state: usage pinned at the full
// term so recomputation can never resurrect it.
func (s *SubscriptionService) expire(o *subscription.PlanOrder) {
	o.Status = subscription.OrderStatusExpired
	o.UsedMs = validity.TotalMs(o)
	o.LastActivatedAt = sql.NullTime{}
}

func (s *SubscriptionService) result(o *subscription.PlanOrder, remaining int64) *subscription.ActivationResult {
	res := &subscription.ActivationResult{
		OrderID:     o.ID,
		PlanID:      o.PlanID,
		PlanName:    o.PlanName,
		Status:      o.Status,
		RemainingMs: validity.Clamp(remaining),
		Remaining:   validity.Format(remaining),
	}
	if o.ExpiryDate.Valid {
		t := o.ExpiryDate.Time
		res.ExpiryDate = &t
	}
	return res
}

// requireNonMiniOrder guards top-up purchases: minis are add-ons, not
// stand-alone subscriptions.
func (s *SubscriptionService) requireNonMiniOrder(ctx context.Context, sellerID int64) error {
	all, err := s.orders.FindOrdersBySeller(ctx, sellerID)
	if err != nil {
		return err
	}
	for _, o := range all {
		if !o.IsMini() && o.Status != subscription.OrderStatusExpired {
			return nil
		}
	}
	return xerrors.Wrap(xerrors.ErrInvalidInput, "a top-up requires an existing subscription")
}

// requireOtherValidOrder guards free-plan (re)activation: the seller must
// hold some other payment-completed, unexpired order.
func (s *SubscriptionService) requireOtherValidOrder(ctx context.Context, sellerID, excludeOrderID int64) error {
	all, err := s.orders.FindOrdersBySeller(ctx, sellerID)
	if err != nil {
		return err
	}
	now := s.now()
	for _, o := range all {
		if o.ID == excludeOrderID || o.IsMini() || !o.IsPaid() {
			continue
		}
		if o.Status != subscription.OrderStatusExpired && validity.RemainingMs(o, now) > 0 {
			return nil
		}
	}
	return xerrors.Wrap(xerrors.ErrInvalidInput, "free plan requires another valid subscription")
}

func (s *SubscriptionService) invalidateCache(ctx context.Context, sellerID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, sellerID); err != nil {
		s.logger.Warn("failed to invalidate validity cache",
			zap.Int64("seller_id", sellerID), zap.Error(err))
	}
}

func quota(used int, limit sql.NullInt32) subscription.QuotaUsage {
	if !limit.Valid {
		return subscription.QuotaUsage{Used: used, Limit: -1, Remaining: -1, Unlimited: true}
	}
	remaining := int(limit.Int32) - used
	if remaining < 0 {
		remaining = 0
	}
	return subscription.QuotaUsage{Used: used, Limit: int(limit.Int32), Remaining: remaining}
}
