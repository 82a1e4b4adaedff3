// internal/service/plan/plan_service.go
package plan

import (
	"context"
	"database/sql"
	"fmt"

	"dukani-service/internal/domain/subscription"
	xerrors "dukani-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// Store is the catalog persistence surface.
type Store interface {
	Create(ctx context.Context, plan *subscription.Plan) error
	FindPlanByID(ctx context.Context, id int64) (*subscription.Plan, error)
	List(ctx context.Context, includeInactive bool) ([]subscription.Plan, error)
	Update(ctx context.Context, id int64, plan *subscription.Plan) error
	SetActive(ctx context.Context, id int64, active bool) error
	Stats(ctx context.Context) (*subscription.PlanStats, error)
}

type PlanService struct {
	planRepo Store
	logger   *zap.Logger
}

func NewPlanService(planRepo Store, logger *zap.Logger) *PlanService {
	return &PlanService{
		planRepo: planRepo,
		logger:   logger,
	}
}

// CreatePlan creates a new catalog plan
func (s *PlanService) CreatePlan(ctx context.Context, req *subscription.CreatePlanRequest) (*subscription.Plan, error) {
	kind := req.Kind
	if kind == "" {
		kind = subscription.PlanKindStandard
	}
	if kind == subscription.PlanKindStandard && req.DurationDays < 1 {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "duration_days must be at least 1")
	}

	plan := &subscription.Plan{
		Name:         req.Name,
		Description:  sql.NullString{String: req.Description, Valid: req.Description != ""},
		Price:        req.Price,
		DurationDays: req.DurationDays,
		Kind:         kind,
		IsActive:     true,
	}
	if req.MaxCustomers != nil {
		plan.MaxCustomers = sql.NullInt32{Int32: *req.MaxCustomers, Valid: true}
	}
	if req.MaxProducts != nil {
		plan.MaxProducts = sql.NullInt32{Int32: *req.MaxProducts, Valid: true}
	}
	if req.MaxOrders != nil {
		plan.MaxOrders = sql.NullInt32{Int32: *req.MaxOrders, Valid: true}
	}

	if err := s.planRepo.Create(ctx, plan); err != nil {
		s.logger.Error("failed to create plan", zap.Error(err))
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	s.logger.Info("plan created",
		zap.Int64("plan_id", plan.ID),
		zap.String("name", plan.Name),
		zap.String("kind", string(plan.Kind)),
	)
	return plan, nil
}

// GetPlan retrieves a plan by ID
func (s *PlanService) GetPlan(ctx context.Context, id int64) (*subscription.Plan, error) {
	return s.planRepo.FindPlanByID(ctx, id)
}

// ListPlans retrieves catalog plans. Only admins see inactive plans.
func (s *PlanService) ListPlans(ctx context.Context, includeInactive bool) ([]subscription.Plan, error) {
	return s.planRepo.List(ctx, includeInactive)
}

// UpdatePlan applies a partial update to a plan's catalog fields. Existing
// orders keep their purchase-time snapshots.
func (s *PlanService) UpdatePlan(ctx context.Context, id int64, req *subscription.UpdatePlanRequest) (*subscription.Plan, error) {
	plan, err := s.planRepo.FindPlanByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		plan.Name = *req.Name
	}
	if req.Description != nil {
		plan.Description = sql.NullString{String: *req.Description, Valid: *req.Description != ""}
	}
	if req.Price != nil {
		plan.Price = *req.Price
	}
	if req.DurationDays != nil {
		plan.DurationDays = *req.DurationDays
	}
	if req.MaxCustomers != nil {
		plan.MaxCustomers = sql.NullInt32{Int32: *req.MaxCustomers, Valid: true}
	}
	if req.MaxProducts != nil {
		plan.MaxProducts = sql.NullInt32{Int32: *req.MaxProducts, Valid: true}
	}
	if req.MaxOrders != nil {
		plan.MaxOrders = sql.NullInt32{Int32: *req.MaxOrders, Valid: true}
	}
	if plan.Kind == subscription.PlanKindStandard && plan.DurationDays < 1 {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "duration_days must be at least 1")
	}

	if err := s.planRepo.Update(ctx, id, plan); err != nil {
		s.logger.Error("failed to update plan", zap.Int64("plan_id", id), zap.Error(err))
		return nil, err
	}

	if req.IsActive != nil && *req.IsActive != plan.IsActive {
		if err := s.planRepo.SetActive(ctx, id, *req.IsActive); err != nil {
			return nil, err
		}
		plan.IsActive = *req.IsActive
	}

	s.logger.Info("plan updated", zap.Int64("plan_id", id))
	return plan, nil
}

// DeactivatePlan removes a plan from the catalog without touching existing
// orders; their snapshots keep running until the activation engine rejects
// them on the inactive-plan check.
func (s *PlanService) DeactivatePlan(ctx context.Context, id int64) error {
	if err := s.planRepo.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.logger.Info("plan deactivated", zap.Int64("plan_id", id))
	return nil
}

// GetStats retrieves aggregate catalog statistics
func (s *PlanService) GetStats(ctx context.Context) (*subscription.PlanStats, error) {
	return s.planRepo.Stats(ctx)
}
