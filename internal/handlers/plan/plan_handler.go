// internal/handlers/plan/plan_handler.go
package plan

import (
	"net/http"
	"strconv"

	"dukani-service/internal/domain/subscription"
	"dukani-service/internal/middleware"
	"dukani-service/internal/pkg/response"
	service "dukani-service/internal/service/plan"

	"github.com/gin-gonic/gin"
)

type PlanHandler struct {
	planService *service.PlanService
}

func NewPlanHandler(planService *service.PlanService) *PlanHandler {
	return &PlanHandler{
		planService: planService,
	}
}

// ========== Public/Seller Endpoints ==========

// ListPlans retrieves catalog plans. Admin tokens also see inactive plans.
func (h *PlanHandler) ListPlans(c *gin.Context) {
	plans, err := h.planService.ListPlans(c.Request.Context(), middleware.IsAdmin(c))
	if err != nil {
		response.FromError(c, "failed to list plans", err)
		return
	}

	response.Success(c, http.StatusOK, "plans retrieved", plans)
}

// GetPlan retrieves a single plan by ID
func (h *PlanHandler) GetPlan(c *gin.Context) {
	planID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid plan ID", err)
		return
	}

	plan, err := h.planService.GetPlan(c.Request.Context(), planID)
	if err != nil {
		response.FromError(c, "plan not found", err)
		return
	}

	response.Success(c, http.StatusOK, "plan retrieved", plan)
}

// ========== Admin Only Endpoints ==========

// CreatePlan creates a new catalog plan (admin only)
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req subscription.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to create plan", err)
		return
	}

	response.Success(c, http.StatusCreated, "plan created", plan)
}

// UpdatePlan updates a catalog plan (admin only)
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	planID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid plan ID", err)
		return
	}

	var req subscription.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	plan, err := h.planService.UpdatePlan(c.Request.Context(), planID, &req)
	if err != nil {
		response.FromError(c, "failed to update plan", err)
		return
	}

	response.Success(c, http.StatusOK, "plan updated", plan)
}

// DeactivatePlan removes a plan from the catalog (admin only)
func (h *PlanHandler) DeactivatePlan(c *gin.Context) {
	planID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid plan ID", err)
		return
	}

	if err := h.planService.DeactivatePlan(c.Request.Context(), planID); err != nil {
		response.FromError(c, "failed to deactivate plan", err)
		return
	}

	response.Success(c, http.StatusOK, "plan deactivated", nil)
}

// GetStats retrieves catalog statistics (admin only)
func (h *PlanHandler) GetStats(c *gin.Context) {
	stats, err := h.planService.GetStats(c.Request.Context())
	if err != nil {
		response.FromError(c, "failed to get plan stats", err)
		return
	}

	response.Success(c, http.StatusOK, "stats retrieved", stats)
}
