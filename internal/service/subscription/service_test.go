package subscription

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dukani-service/internal/domain/seller"
	"dukani-service/internal/domain/subscription"
	xerrors "dukani-service/internal/pkg/errors"
	"dukani-service/internal/pkg/validity"
)

const dayMs = int64(86_400_000)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestService(t *testing.T) (*SubscriptionService, *MemoryStore, *fakeClock) {
	t.Helper()
	store := NewMemoryStore()
	clock := newFakeClock()
	svc := NewSubscriptionService(store, store, store, nil, zap.NewNop())
	svc.now = clock.Now
	return svc, store, clock
}

func seedSeller(store *MemoryStore) *seller.Seller {
	return store.PutSeller(&seller.Seller{FullName: "Amina Odhiambo", Email: "amina@duka.example", IsActive: true})
}

func seedPlan(store *MemoryStore, name string, price float64, days int, kind subscription.PlanKind) *subscription.Plan {
	return store.PutPlan(&subscription.Plan{
		Name:         name,
		Price:        price,
		DurationDays: days,
		Kind:         kind,
		IsActive:     true,
	})
}

// purchase and pay in one step, returning the order.
func paidOrder(t *testing.T, svc *SubscriptionService, sellerID, planID int64) *subscription.PlanOrder {
	t.Helper()
	ctx := context.Background()
	order, err := svc.PurchaseOrder(ctx, sellerID, planID)
	require.NoError(t, err)
	order, err = svc.CompletePayment(ctx, sellerID, order.ID)
	require.NoError(t, err)
	return order
}

func activateOrder(t *testing.T, svc *SubscriptionService, sellerID, orderID int64) *subscription.ActivationResult {
	t.Helper()
	res, err := svc.Activate(context.Background(), sellerID, &subscription.ActivateRequest{OrderID: &orderID})
	require.NoError(t, err)
	return res
}

func TestPurchaseOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("priced plan starts pending", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		sel := seedSeller(store)
		plan := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)

		order, err := svc.PurchaseOrder(ctx, sel.ID, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.PaymentPending, order.PaymentStatus)
		assert.Equal(t, subscription.OrderStatusPaused, order.Status)
		assert.Equal(t, 30, order.DurationDays)
		assert.Equal(t, float64(1500), order.Price)
		assert.NotEmpty(t, order.OrderReference)
	})

	t.Run("free plan starts payment completed", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		sel := seedSeller(store)
		plan := seedPlan(store, "Trial", 0, 14, subscription.PlanKindStandard)

		order, err := svc.PurchaseOrder(ctx, sel.ID, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.PaymentCompleted, order.PaymentStatus)
	})

	t.Run("snapshots survive later plan edits", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		sel := seedSeller(store)
		plan := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)

		order := paidOrder(t, svc, sel.ID, plan.ID)

		plan.DurationDays = 7
		plan.Price = 9000
		store.PutPlan(plan)

		reloaded, err := store.FindOrderByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, 30, reloaded.DurationDays)
		assert.Equal(t, float64(1500), reloaded.Price)
		assert.Equal(t, int64(30)*dayMs, validity.TotalMs(reloaded))
	})

	t.Run("mini purchase requires a non-mini order", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		sel := seedSeller(store)
		mini := seedPlan(store, "Top-Up 50", 200, 0, subscription.PlanKindMini)

		_, err := svc.PurchaseOrder(ctx, sel.ID, mini.ID)
		assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

		std := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)
		paidOrder(t, svc, sel.ID, std.ID)

		order, err := svc.PurchaseOrder(ctx, sel.ID, mini.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.OrderStatusPaused, order.Status)
	})

	t.Run("inactive plan is not purchasable", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		sel := seedSeller(store)
		plan := seedPlan(store, "Retired", 1000, 30, subscription.PlanKindStandard)
		plan.IsActive = false
		store.PutPlan(plan)

		_, err := svc.PurchaseOrder(ctx, sel.ID, plan.ID)
		assert.ErrorIs(t, err, xerrors.ErrNotFound)
	})
}

func TestActivateGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("requires exactly one target", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		sel := seedSeller(store)

		_, err := svc.Activate(ctx, sel.ID, &subscription.ActivateRequest{})
		assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

		one := int64(1)
		_, err = svc.Activate(ctx, sel.ID, &subscription.ActivateRequest{PlanID: &one, OrderID: &one})
		assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
	})

	t.Run("foreign order is unauthorized", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		owner := seedSeller(store)
		intruder := store.PutSeller(&seller.Seller{FullName: "Someone Else", Email: "else@duka.example"})
		plan := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)
		order := paidOrder(t, svc, owner.ID, plan.ID)

		_, err := svc.Activate(ctx, intruder.ID, &subscription.ActivateRequest{OrderID: &order.ID})
		assert.ErrorIs(t, err, xerrors.ErrUnauthorized)
	})

	t.Run("unpaid order is payment required", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		sel := seedSeller(store)
		plan := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)
		order, err := svc.PurchaseOrder(ctx, sel.ID, plan.ID)
		require.NoError(t, err)

		_, err = svc.Activate(ctx, sel.ID, &subscription.ActivateRequest{OrderID: &order.ID})
		assert.ErrorIs(t, err, xerrors.ErrPaymentRequired)
	})

	t.Run("missing order without allow_create is not found", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		sel := seedSeller(store)
		plan := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)

		_, err := svc.Activate(ctx, sel.ID, &subscription.ActivateRequest{PlanID: &plan.ID})
		assert.ErrorIs(t, err, xerrors.ErrNotFound)
	})

	t.Run("allow_create cannot conjure a paid order", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		sel := seedSeller(store)
		plan := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)

		_, err := svc.Activate(ctx, sel.ID, &subscription.ActivateRequest{PlanID: &plan.ID, AllowCreate: true})
		assert.ErrorIs(t, err, xerrors.ErrPaymentRequired)
	})

	t.Run("free plan needs another valid order", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		sel := seedSeller(store)
		free := seedPlan(store, "Trial", 0, 14, subscription.PlanKindStandard)

		_, err := svc.Activate(ctx, sel.ID, &subscription.ActivateRequest{PlanID: &free.ID, AllowCreate: true})
		assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

		std := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)
		paidOrder(t, svc, sel.ID, std.ID)

		res, err := svc.Activate(ctx, sel.ID, &subscription.ActivateRequest{PlanID: &free.ID, AllowCreate: true})
		require.NoError(t, err)
		assert.Equal(t, subscription.OrderStatusActive, res.Status)
	})
}

func TestActivateLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("activation sets clock fields and current pointer", func(t *testing.T) {
		svc, store, clock := newTestService(t)
		sel := seedSeller(store)
		plan := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)
		order := paidOrder(t, svc, sel.ID, plan.ID)

		res := activateOrder(t, svc, sel.ID, order.ID)
		assert.Equal(t, subscription.OrderStatusActive, res.Status)
		assert.Equal(t, int64(30)*dayMs, res.RemainingMs)
		assert.Equal(t, "30d 0h 0m", res.Remaining)
		require.NotNil(t, res.ExpiryDate)
		assert.Equal(t, clock.Now().Add(30*24*time.Hour), *res.ExpiryDate)

		reloaded, err := store.FindOrderByID(ctx, order.ID)
		require.NoError(t, err)
		assert.True(t, reloaded.LastActivatedAt.Valid)
		assert.Equal(t, int64(0), reloaded.UsedMs)

		sel2, err := store.FindSellerByID(ctx, sel.ID)
		require.NoError(t, err)
		require.True(t, sel2.CurrentPlanOrderID.Valid)
		assert.Equal(t, order.ID, sel2.CurrentPlanOrderID.Int64)
	})

	t.Run("re-activating the current order is idempotent", func(t *testing.T) {
		svc, store, clock := newTestService(t)
		sel := seedSeller(store)
		plan := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)
		order := paidOrder(t, svc, sel.ID, plan.ID)

		first := activateOrder(t, svc, sel.ID, order.ID)
		second := activateOrder(t, svc, sel.ID, order.ID)
		assert.Equal(t, first.RemainingMs, second.RemainingMs)

		clock.Advance(time.Minute)
		third := activateOrder(t, svc, sel.ID, order.ID)
		assert.Equal(t, first.RemainingMs-time.Minute.Milliseconds(), third.RemainingMs)

		// The no-op path must not reset the activation timestamp.
		reloaded, err := store.FindOrderByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, clock.Now().Add(-time.Minute), reloaded.LastActivatedAt.Time)
	})

	t.Run("switching pauses the previous order with elapsed folded in", func(t *testing.T) {
		svc, store, clock := newTestService(t)
		sel := seedSeller(store)
		planA := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)
		planB := seedPlan(store, "Pro", 3000, 30, subscription.PlanKindStandard)
		orderA := paidOrder(t, svc, sel.ID, planA.ID)
		orderB := paidOrder(t, svc, sel.ID, planB.ID)

		activateOrder(t, svc, sel.ID, orderA.ID)
		clock.Advance(10 * 24 * time.Hour)
		resB := activateOrder(t, svc, sel.ID, orderB.ID)

		a, err := store.FindOrderByID(ctx, orderA.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.OrderStatusPaused, a.Status)
		assert.Equal(t, 10*dayMs, a.UsedMs)
		assert.False(t, a.LastActivatedAt.Valid)

		b, err := store.FindOrderByID(ctx, orderB.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.OrderStatusActive, b.Status)
		assert.Equal(t, int64(0), b.UsedMs)
		assert.Equal(t, int64(30)*dayMs, resB.RemainingMs)

		sel2, _ := store.FindSellerByID(ctx, sel.ID)
		assert.Equal(t, orderB.ID, sel2.CurrentPlanOrderID.Int64)
	})

	t.Run("paused time does not tick", func(t *testing.T) {
		svc, store, clock := newTestService(t)
		sel := seedSeller(store)
		planA := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)
		planB := seedPlan(store, "Pro", 3000, 30, subscription.PlanKindStandard)
		orderA := paidOrder(t, svc, sel.ID, planA.ID)
		orderB := paidOrder(t, svc, sel.ID, planB.ID)

		activateOrder(t, svc, sel.ID, orderA.ID)
		clock.Advance(10 * 24 * time.Hour)
		activateOrder(t, svc, sel.ID, orderB.ID)
		clock.Advance(100 * 24 * time.Hour)

		a, _ := store.FindOrderByID(ctx, orderA.ID)
		assert.Equal(t, 20*dayMs, validity.RemainingMs(a, clock.Now()))
	})

	t.Run("activating an exhausted order expires it", func(t *testing.T) {
		svc, store, clock := newTestService(t)
		sel := seedSeller(store)
		plan := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)
		order := paidOrder(t, svc, sel.ID, plan.ID)

		activateOrder(t, svc, sel.ID, order.ID)
		clock.Advance(31 * 24 * time.Hour)

		_, err := svc.Activate(ctx, sel.ID, &subscription.ActivateRequest{OrderID: &order.ID})
		assert.ErrorIs(t, err, xerrors.ErrPlanExpired)

		reloaded, _ := store.FindOrderByID(ctx, order.ID)
		assert.Equal(t, subscription.OrderStatusExpired, reloaded.Status)
		assert.Equal(t, int64(30)*dayMs, reloaded.UsedMs)
		assert.False(t, reloaded.LastActivatedAt.Valid)
	})

	t.Run("expired is sticky", func(t *testing.T) {
		svc, store, clock := newTestService(t)
		sel := seedSeller(store)
		plan := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)
		order := paidOrder(t, svc, sel.ID, plan.ID)

		activateOrder(t, svc, sel.ID, order.ID)
		clock.Advance(31 * 24 * time.Hour)
		_, err := svc.Activate(ctx, sel.ID, &subscription.ActivateRequest{OrderID: &order.ID})
		require.ErrorIs(t, err, xerrors.ErrPlanExpired)

		for i := 0; i < 3; i++ {
			clock.Advance(24 * time.Hour)
			_, err = svc.Activate(ctx, sel.ID, &subscription.ActivateRequest{OrderID: &order.ID})
			assert.ErrorIs(t, err, xerrors.ErrPlanExpired)

			reloaded, _ := store.FindOrderByID(ctx, order.ID)
			assert.Equal(t, subscription.OrderStatusExpired, reloaded.Status)
			assert.LessOrEqual(t, validity.RemainingMs(reloaded, clock.Now()), int64(0))
		}
	})
}

func TestActivateTopUps(t *testing.T) {
	ctx := context.Background()

	t.Run("mini plan creates a top-up without activation", func(t *testing.T) {
		svc, store, clock := newTestService(t)
		sel := seedSeller(store)
		std := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)
		mini := seedPlan(store, "Top-Up 50", 200, 0, subscription.PlanKindMini)

		stdOrder := paidOrder(t, svc, sel.ID, std.ID)
		activateOrder(t, svc, sel.ID, stdOrder.ID)

		res, err := svc.Activate(ctx, sel.ID, &subscription.ActivateRequest{PlanID: &mini.ID})
		require.NoError(t, err)
		assert.True(t, res.IsTopUp)
		assert.Equal(t, subscription.OrderStatusPaused, res.Status)

		// The current pointer still names the standard order.
		sel2, _ := store.FindSellerByID(ctx, sel.ID)
		assert.Equal(t, stdOrder.ID, sel2.CurrentPlanOrderID.Int64)

		// Top-ups are never deduplicated: a second request makes a second order.
		res2, err := svc.Activate(ctx, sel.ID, &subscription.ActivateRequest{PlanID: &mini.ID})
		require.NoError(t, err)
		assert.NotEqual(t, res.OrderID, res2.OrderID)

		// And their usage never advances.
		clock.Advance(90 * 24 * time.Hour)
		topUp, _ := store.FindOrderByID(ctx, res.OrderID)
		assert.Equal(t, int64(0), topUp.UsedMs)
		assert.Equal(t, subscription.OrderStatusPaused, topUp.Status)
	})

	t.Run("mini order cannot be an activation target", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		sel := seedSeller(store)
		std := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)
		mini := seedPlan(store, "Top-Up 50", 200, 0, subscription.PlanKindMini)
		paidOrder(t, svc, sel.ID, std.ID)

		res, err := svc.Activate(ctx, sel.ID, &subscription.ActivateRequest{PlanID: &mini.ID})
		require.NoError(t, err)

		_, err = svc.Activate(ctx, sel.ID, &subscription.ActivateRequest{OrderID: &res.OrderID})
		assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
	})
}

// The end-to-end scenario from the product brief: buy Standard(30d), switch
// to Pro(30d) after 10 days, switch back 30 days later.
func TestActivateSwitchScenario(t *testing.T) {
	ctx := context.Background()
	svc, store, clock := newTestService(t)
	sel := seedSeller(store)
	standard := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)
	pro := seedPlan(store, "Pro", 3000, 30, subscription.PlanKindStandard)

	t0 := clock.Now()

	stdOrder := paidOrder(t, svc, sel.ID, standard.ID)
	activateOrder(t, svc, sel.ID, stdOrder.ID)

	clock.Advance(10 * 24 * time.Hour)
	proOrder := paidOrder(t, svc, sel.ID, pro.ID)
	resPro := activateOrder(t, svc, sel.ID, proOrder.ID)

	std1, _ := store.FindOrderByID(ctx, stdOrder.ID)
	assert.Equal(t, subscription.OrderStatusPaused, std1.Status)
	assert.Equal(t, 10*dayMs, std1.UsedMs)
	assert.Equal(t, int64(30)*dayMs, resPro.RemainingMs)

	clock.Advance(30 * 24 * time.Hour) // t0+40d
	resStd := activateOrder(t, svc, sel.ID, stdOrder.ID)

	pro1, _ := store.FindOrderByID(ctx, proOrder.ID)
	assert.Equal(t, subscription.OrderStatusExpired, pro1.Status)
	assert.Equal(t, int64(30)*dayMs, pro1.UsedMs)

	std2, _ := store.FindOrderByID(ctx, stdOrder.ID)
	assert.Equal(t, subscription.OrderStatusActive, std2.Status)
	assert.Equal(t, 20*dayMs, resStd.RemainingMs)
	require.NotNil(t, resStd.ExpiryDate)
	assert.Equal(t, t0.Add(60*24*time.Hour), *resStd.ExpiryDate)

	sel2, _ := store.FindSellerByID(ctx, sel.ID)
	assert.Equal(t, stdOrder.ID, sel2.CurrentPlanOrderID.Int64)
}

func TestIsValid(t *testing.T) {
	ctx := context.Background()

	t.Run("fails closed without a current order", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		sel := seedSeller(store)

		status, err := svc.IsValid(ctx, sel.ID)
		require.NoError(t, err)
		assert.False(t, status.Valid)
		assert.NotEmpty(t, status.Reason)
	})

	t.Run("valid while time remains", func(t *testing.T) {
		svc, store, clock := newTestService(t)
		sel := seedSeller(store)
		plan := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)
		order := paidOrder(t, svc, sel.ID, plan.ID)
		activateOrder(t, svc, sel.ID, order.ID)

		clock.Advance(29 * 24 * time.Hour)
		status, err := svc.IsValid(ctx, sel.ID)
		require.NoError(t, err)
		assert.True(t, status.Valid)
		assert.Equal(t, dayMs, status.RemainingMs)

		clock.Advance(25 * time.Hour)
		status, err = svc.IsValid(ctx, sel.ID)
		require.NoError(t, err)
		assert.False(t, status.Valid)
		assert.Equal(t, "subscription expired", status.Reason)
		assert.Equal(t, int64(0), status.RemainingMs)
	})

	t.Run("fails closed when the plan is discontinued", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		sel := seedSeller(store)
		plan := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)
		order := paidOrder(t, svc, sel.ID, plan.ID)
		activateOrder(t, svc, sel.ID, order.ID)

		plan.IsActive = false
		store.PutPlan(plan)

		status, err := svc.IsValid(ctx, sel.ID)
		require.NoError(t, err)
		assert.False(t, status.Valid)
	})
}

func TestEnsureValidFailover(t *testing.T) {
	ctx := context.Background()

	t.Run("fails over to the soonest-expiring eligible order", func(t *testing.T) {
		svc, store, clock := newTestService(t)
		sel := seedSeller(store)
		short := seedPlan(store, "Lite", 500, 7, subscription.PlanKindStandard)
		long := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)
		current := seedPlan(store, "Starter", 300, 1, subscription.PlanKindStandard)

		shortOrder := paidOrder(t, svc, sel.ID, short.ID)
		paidOrder(t, svc, sel.ID, long.ID)
		currentOrder := paidOrder(t, svc, sel.ID, current.ID)
		activateOrder(t, svc, sel.ID, currentOrder.ID)

		clock.Advance(2 * 24 * time.Hour) // starter ran out

		status, err := svc.EnsureValid(ctx, sel.ID)
		require.NoError(t, err)
		assert.True(t, status.Valid)
		assert.Equal(t, shortOrder.ID, status.OrderID, "7d order is consumed before 30d order")

		// Failover expired the lapsed order and moved the pointer.
		lapsed, _ := store.FindOrderByID(ctx, currentOrder.ID)
		assert.Equal(t, subscription.OrderStatusExpired, lapsed.Status)
		sel2, _ := store.FindSellerByID(ctx, sel.ID)
		assert.Equal(t, shortOrder.ID, sel2.CurrentPlanOrderID.Int64)
	})

	t.Run("stays invalid when no alternative exists", func(t *testing.T) {
		svc, store, clock := newTestService(t)
		sel := seedSeller(store)
		plan := seedPlan(store, "Starter", 300, 1, subscription.PlanKindStandard)
		order := paidOrder(t, svc, sel.ID, plan.ID)
		activateOrder(t, svc, sel.ID, order.ID)

		clock.Advance(48 * time.Hour)

		status, err := svc.EnsureValid(ctx, sel.ID)
		require.NoError(t, err)
		assert.False(t, status.Valid)
	})

	t.Run("top-ups are never failover candidates", func(t *testing.T) {
		svc, store, clock := newTestService(t)
		sel := seedSeller(store)
		std := seedPlan(store, "Starter", 300, 1, subscription.PlanKindStandard)
		mini := seedPlan(store, "Top-Up 50", 200, 0, subscription.PlanKindMini)

		order := paidOrder(t, svc, sel.ID, std.ID)
		activateOrder(t, svc, sel.ID, order.ID)
		res, err := svc.Activate(ctx, sel.ID, &subscription.ActivateRequest{PlanID: &mini.ID})
		require.NoError(t, err)
		_, err = svc.CompletePayment(ctx, sel.ID, res.OrderID)
		require.NoError(t, err)

		clock.Advance(48 * time.Hour)

		status, err := svc.EnsureValid(ctx, sel.ID)
		require.NoError(t, err)
		assert.False(t, status.Valid)
	})
}

func TestRemainingValidityReport(t *testing.T) {
	ctx := context.Background()
	svc, store, clock := newTestService(t)
	sel := seedSeller(store)
	planA := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)
	planB := seedPlan(store, "Pro", 3000, 30, subscription.PlanKindStandard)

	orderA := paidOrder(t, svc, sel.ID, planA.ID)
	orderB := paidOrder(t, svc, sel.ID, planB.ID)
	activateOrder(t, svc, sel.ID, orderA.ID)
	clock.Advance(10 * 24 * time.Hour)

	report, err := svc.RemainingValidity(ctx, sel.ID)
	require.NoError(t, err)
	require.Len(t, report, 2)

	byID := map[int64]subscription.OrderValidity{}
	for _, row := range report {
		byID[row.OrderID] = row
	}
	assert.Equal(t, 20*dayMs, byID[orderA.ID].RemainingMs)
	assert.Equal(t, subscription.OrderStatusActive, byID[orderA.ID].Status)
	assert.Equal(t, 30*dayMs, byID[orderB.ID].RemainingMs)
	assert.Equal(t, subscription.OrderStatusPaused, byID[orderB.ID].Status)

	// The running order's cached expiry was refreshed.
	a, _ := store.FindOrderByID(ctx, orderA.ID)
	require.True(t, a.ExpiryDate.Valid)
	assert.Equal(t, clock.Now().Add(20*24*time.Hour), a.ExpiryDate.Time)
}

// interceptingOrderStore runs a one-shot hook after a FindOrdersBySeller read,
// simulating work that lands between a report's read and its write-back.
type interceptingOrderStore struct {
	*MemoryStore
	hook func()
}

func (s *interceptingOrderStore) FindOrdersBySeller(ctx context.Context, sellerID int64) ([]*subscription.PlanOrder, error) {
	orders, err := s.MemoryStore.FindOrdersBySeller(ctx, sellerID)
	if s.hook != nil {
		h := s.hook
		s.hook = nil
		h()
	}
	return orders, err
}

// A validity report raced by an activation must not restore the old order to
// active from its stale snapshot. The expiry refresh writes the cached expiry
// date only, so the activation's pause of the old order survives.
func TestRemainingValidityDoesNotClobberActivation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	clock := newFakeClock()

	svc := NewSubscriptionService(store, store, store, nil, zap.NewNop())
	svc.now = clock.Now

	intercepted := &interceptingOrderStore{MemoryStore: store}
	reporter := NewSubscriptionService(store, intercepted, store, nil, zap.NewNop())
	reporter.now = clock.Now

	sel := seedSeller(store)
	planA := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)
	planB := seedPlan(store, "Pro", 3000, 30, subscription.PlanKindStandard)
	orderA := paidOrder(t, svc, sel.ID, planA.ID)
	orderB := paidOrder(t, svc, sel.ID, planB.ID)
	activateOrder(t, svc, sel.ID, orderA.ID)
	clock.Advance(10 * 24 * time.Hour)

	intercepted.hook = func() {
		activateOrder(t, svc, sel.ID, orderB.ID)
	}

	_, err := reporter.RemainingValidity(ctx, sel.ID)
	require.NoError(t, err)

	a, err := store.FindOrderByID(ctx, orderA.ID)
	require.NoError(t, err)
	b, err := store.FindOrderByID(ctx, orderB.ID)
	require.NoError(t, err)

	assert.Equal(t, subscription.OrderStatusPaused, a.Status)
	assert.False(t, a.LastActivatedAt.Valid)
	assert.Equal(t, 10*dayMs, a.UsedMs)
	assert.Equal(t, subscription.OrderStatusActive, b.Status)

	sel2, err := store.FindSellerByID(ctx, sel.ID)
	require.NoError(t, err)
	require.True(t, sel2.CurrentPlanOrderID.Valid)
	assert.Equal(t, orderB.ID, sel2.CurrentPlanOrderID.Int64)
}

func TestListOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	sel := seedSeller(store)
	plan := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)

	first := paidOrder(t, svc, sel.ID, plan.ID)
	second := paidOrder(t, svc, sel.ID, plan.ID)
	third := paidOrder(t, svc, sel.ID, plan.ID)

	orders, err := svc.ListOrders(ctx, sel.ID)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, third.ID, orders[0].ID)
	assert.Equal(t, second.ID, orders[1].ID)
	assert.Equal(t, first.ID, orders[2].ID)
}

func TestUsageAndQuota(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	sel := seedSeller(store)
	plan := store.PutPlan(&subscription.Plan{
		Name:         "Standard",
		Price:        1500,
		DurationDays: 30,
		Kind:         subscription.PlanKindStandard,
		MaxCustomers: sql.NullInt32{Int32: 2, Valid: true},
		IsActive:     true,
	})
	order := paidOrder(t, svc, sel.ID, plan.ID)
	activateOrder(t, svc, sel.ID, order.ID)

	require.NoError(t, svc.ConsumeCustomerQuota(ctx, sel.ID))
	require.NoError(t, svc.ConsumeCustomerQuota(ctx, sel.ID))
	assert.ErrorIs(t, svc.ConsumeCustomerQuota(ctx, sel.ID), xerrors.ErrQuotaExceeded)

	summary, err := svc.UsageSummary(ctx, sel.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Summary.Customers.Used)
	assert.Equal(t, 2, summary.Summary.Customers.Limit)
	assert.Equal(t, 0, summary.Summary.Customers.Remaining)
	assert.True(t, summary.Summary.Products.Unlimited)
	require.NotNil(t, summary.PlanDetails)
	assert.Equal(t, plan.ID, summary.PlanDetails.ID)
}

// Concurrent activations of two different orders for one seller must
// serialize: afterwards exactly one order is active and the seller pointer
// names it.
func TestActivateConcurrency(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	sel := seedSeller(store)
	planA := seedPlan(store, "Standard", 1500, 30, subscription.PlanKindStandard)
	planB := seedPlan(store, "Pro", 3000, 30, subscription.PlanKindStandard)
	orderA := paidOrder(t, svc, sel.ID, planA.ID)
	orderB := paidOrder(t, svc, sel.ID, planB.ID)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		target := orderA.ID
		if i%2 == 1 {
			target = orderB.ID
		}
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := svc.Activate(ctx, sel.ID, &subscription.ActivateRequest{OrderID: &id})
			assert.NoError(t, err)
		}(target)
	}
	wg.Wait()

	orders, err := store.FindOrdersBySeller(ctx, sel.ID)
	require.NoError(t, err)

	var active []*subscription.PlanOrder
	for _, o := range orders {
		if o.Status == subscription.OrderStatusActive {
			active = append(active, o)
		}
	}
	require.Len(t, active, 1, "exactly one order active after concurrent switching")

	sel2, err := store.FindSellerByID(ctx, sel.ID)
	require.NoError(t, err)
	require.True(t, sel2.CurrentPlanOrderID.Valid)
	assert.Equal(t, active[0].ID, sel2.CurrentPlanOrderID.Int64)
}
