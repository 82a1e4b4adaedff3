// internal/repository/postgres/plan_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dukani-service/internal/domain/subscription"
	xerrors "dukani-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PlanRepository struct {
	db *pgxpool.Pool
}

func NewPlanRepository(db *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{db: db}
}

const planColumns = `id, name, description, price, duration_days, kind,
	       max_customers, max_products, max_orders,
	       is_active, created_at, updated_at`

func scanPlan(row pgx.Row) (*subscription.Plan, error) {
	var p subscription.Plan
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.DurationDays, &p.Kind,
		&p.MaxCustomers, &p.MaxProducts, &p.MaxOrders,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan plan: %w", err)
	}
	return &p, nil
}

// Create inserts a new catalog plan
func (r *PlanRepository) Create(ctx context.Context, plan *subscription.Plan) error {
	query := `
		INSERT INTO plans (
			name, description, price, duration_days, kind,
			max_customers, max_products, max_orders, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		plan.Name, plan.Description, plan.Price, plan.DurationDays, plan.Kind,
		plan.MaxCustomers, plan.MaxProducts, plan.MaxOrders, plan.IsActive,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	return nil
}

// FindPlanByID retrieves a plan by ID
func (r *PlanRepository) FindPlanByID(ctx context.Context, id int64) (*subscription.Plan, error) {
	query := fmt.Sprintf(`SELECT %s FROM plans WHERE id = $1`, planColumns)
	return scanPlan(r.db.QueryRow(ctx, query, id))
}

// List retrieves catalog plans, cheapest first. Inactive plans are included
// only when requested (admin views).
func (r *PlanRepository) List(ctx context.Context, includeInactive bool) ([]subscription.Plan, error) {
	query := fmt.Sprintf(`SELECT %s FROM plans`, planColumns)
	if !includeInactive {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY price ASC, id ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	plans := []subscription.Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// Update rewrites a plan's catalog fields. Order snapshots are untouched.
func (r *PlanRepository) Update(ctx context.Context, id int64, plan *subscription.Plan) error {
	query := `
		UPDATE plans
		SET name = $1, description = $2, price = $3, duration_days = $4,
		    max_customers = $5, max_products = $6, max_orders = $7,
		    updated_at = $8
		WHERE id = $9
	`

	result, err := r.db.Exec(
		ctx, query,
		plan.Name, plan.Description, plan.Price, plan.DurationDays,
		plan.MaxCustomers, plan.MaxProducts, plan.MaxOrders,
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// SetActive toggles a plan's availability in the catalog
func (r *PlanRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE plans SET is_active = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Exec(ctx, query, active, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update plan status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// Stats retrieves aggregate catalog statistics
func (r *PlanRepository) Stats(ctx context.Context) (*subscription.PlanStats, error) {
	query := `
		SELECT
			COUNT(*) as total_plans,
			COUNT(CASE WHEN is_active THEN 1 END) as active_plans,
			COUNT(CASE WHEN NOT is_active THEN 1 END) as inactive_plans,
			COALESCE(AVG(price), 0) as average_price
		FROM plans
	`

	var stats subscription.PlanStats
	err := r.db.QueryRow(ctx, query).Scan(
		&stats.TotalPlans,
		&stats.ActivePlans,
		&stats.InactivePlans,
		&stats.AveragePrice,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan stats: %w", err)
	}
	return &stats, nil
}
