// internal/repository/postgres/plan_order_repo.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dukani-service/internal/domain/subscription"
	xerrors "dukani-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

// PlanOrderRepository persists plan orders. SaveActivation is the only write
// path that touches status, last_activated_at or used_ms together with the
// seller's current pointer; everything it changes lands in one transaction.
type PlanOrderRepository struct {
	dbWrapper *DB
}

func NewPlanOrderRepository(db *DB) *PlanOrderRepository {
	return &PlanOrderRepository{dbWrapper: db}
}

const orderColumns = `id, order_reference, seller_id, plan_id, plan_name, plan_kind,
	       duration_days, price, payment_status, status,
	       last_activated_at, used_ms, expiry_date,
	       customer_limit, product_limit, order_limit,
	       customer_count, product_count, order_count,
	       created_at, updated_at`

func scanOrder(row pgx.Row) (*subscription.PlanOrder, error) {
	var o subscription.PlanOrder
	err := row.Scan(
		&o.ID, &o.OrderReference, &o.SellerID, &o.PlanID, &o.PlanName, &o.PlanKind,
		&o.DurationDays, &o.Price, &o.PaymentStatus, &o.Status,
		&o.LastActivatedAt, &o.UsedMs, &o.ExpiryDate,
		&o.CustomerLimit, &o.ProductLimit, &o.OrderLimit,
		&o.CustomerCount, &o.ProductCount, &o.OrderCount,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan plan order: %w", err)
	}
	return &o, nil
}

// CreateOrder inserts a new plan order with its snapshotted plan fields
func (r *PlanOrderRepository) CreateOrder(ctx context.Context, o *subscription.PlanOrder) error {
	query := `
		INSERT INTO plan_orders (
			order_reference, seller_id, plan_id, plan_name, plan_kind,
			duration_days, price, payment_status, status,
			customer_limit, product_limit, order_limit
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	err := r.dbWrapper.Pool().QueryRow(
		ctx, query,
		o.OrderReference, o.SellerID, o.PlanID, o.PlanName, o.PlanKind,
		o.DurationDays, o.Price, o.PaymentStatus, o.Status,
		o.CustomerLimit, o.ProductLimit, o.OrderLimit,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create plan order: %w", err)
	}
	return nil
}

// FindOrderByID retrieves a plan order by ID
func (r *PlanOrderRepository) FindOrderByID(ctx context.Context, id int64) (*subscription.PlanOrder, error) {
	query := fmt.Sprintf(`SELECT %s FROM plan_orders WHERE id = $1`, orderColumns)
	return scanOrder(r.dbWrapper.Pool().QueryRow(ctx, query, id))
}

// FindOrdersBySeller retrieves every order a seller owns, newest first
func (r *PlanOrderRepository) FindOrdersBySeller(ctx context.Context, sellerID int64) ([]*subscription.PlanOrder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM plan_orders
		WHERE seller_id = $1
		ORDER BY created_at DESC, id DESC
	`, orderColumns)

	rows, err := r.dbWrapper.Pool().Query(ctx, query, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan orders: %w", err)
	}
	defer rows.Close()

	orders := []*subscription.PlanOrder{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// FindOpenOrderByPlan retrieves the seller's newest unexpired order for a plan
func (r *PlanOrderRepository) FindOpenOrderByPlan(ctx context.Context, sellerID, planID int64) (*subscription.PlanOrder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM plan_orders
		WHERE seller_id = $1 AND plan_id = $2 AND status <> 'expired'
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, orderColumns)

	return scanOrder(r.dbWrapper.Pool().QueryRow(ctx, query, sellerID, planID))
}

// UpdateOrder rewrites an order's mutable fields
func (r *PlanOrderRepository) UpdateOrder(ctx context.Context, o *subscription.PlanOrder) error {
	result, err := r.dbWrapper.Pool().Exec(ctx, orderUpdateQuery,
		o.PaymentStatus, o.Status, o.LastActivatedAt, o.UsedMs, o.ExpiryDate,
		time.Now(), o.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update plan order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// UpdateOrderExpiry refreshes the cached expiry date without touching the
// activation fields, so it is safe to call outside the activation lock
func (r *PlanOrderRepository) UpdateOrderExpiry(ctx context.Context, orderID int64, expiry time.Time) error {
	result, err := r.dbWrapper.Pool().Exec(ctx,
		`UPDATE plan_orders SET expiry_date = $1, updated_at = $2 WHERE id = $3`,
		expiry, time.Now(), orderID,
	)
	if err != nil {
		return fmt.Errorf("failed to refresh order expiry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

const orderUpdateQuery = `
	UPDATE plan_orders
	SET payment_status = $1, status = $2, last_activated_at = $3,
	    used_ms = $4, expiry_date = $5, updated_at = $6
	WHERE id = $7
`

// SaveActivation persists the outcome of one activation pass: every mutated
// order plus the seller's current pointer, atomically.
func (r *PlanOrderRepository) SaveActivation(ctx context.Context, sellerID int64, currentOrderID sql.NullInt64, orders []*subscription.PlanOrder) error {
	tx, err := r.dbWrapper.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	for _, o := range orders {
		result, err := tx.Exec(ctx, orderUpdateQuery,
			o.PaymentStatus, o.Status, o.LastActivatedAt, o.UsedMs, o.ExpiryDate,
			now, o.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update plan order %d: %w", o.ID, err)
		}
		if result.RowsAffected() == 0 {
			return xerrors.Wrap(xerrors.ErrNotFound, fmt.Sprintf("plan order %d missing", o.ID))
		}
	}

	if currentOrderID.Valid {
		result, err := tx.Exec(ctx,
			`UPDATE sellers SET current_plan_order_id = $1, updated_at = $2 WHERE id = $3`,
			currentOrderID, now, sellerID,
		)
		if err != nil {
			return fmt.Errorf("failed to update seller pointer: %w", err)
		}
		if result.RowsAffected() == 0 {
			return xerrors.Wrap(xerrors.ErrNotFound, "seller missing")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// IncrementCustomerCount charges one customer slot against an order. The
// increment and the limit check are a single conditional update.
func (r *PlanOrderRepository) IncrementCustomerCount(ctx context.Context, orderID int64) error {
	return r.incrementCounter(ctx, orderID, "customer_count", "customer_limit")
}

// IncrementProductCount charges one product slot against an order
func (r *PlanOrderRepository) IncrementProductCount(ctx context.Context, orderID int64) error {
	return r.incrementCounter(ctx, orderID, "product_count", "product_limit")
}

// IncrementOrderCount charges one sales-order slot against an order
func (r *PlanOrderRepository) IncrementOrderCount(ctx context.Context, orderID int64) error {
	return r.incrementCounter(ctx, orderID, "order_count", "order_limit")
}

func (r *PlanOrderRepository) incrementCounter(ctx context.Context, orderID int64, counter, limit string) error {
	query := fmt.Sprintf(`
		UPDATE plan_orders
		SET %s = %s + 1, updated_at = $1
		WHERE id = $2 AND (%s IS NULL OR %s < %s)
	`, counter, counter, limit, counter, limit)

	result, err := r.dbWrapper.Pool().Exec(ctx, query, time.Now(), orderID)
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", counter, err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	// Distinguish a missing order from an exhausted quota.
	var exists bool
	err = r.dbWrapper.Pool().QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM plan_orders WHERE id = $1)`, orderID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check plan order: %w", err)
	}
	if !exists {
		return xerrors.ErrNotFound
	}
	return xerrors.ErrQuotaExceeded
}
