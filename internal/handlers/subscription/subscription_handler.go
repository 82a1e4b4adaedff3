// internal/handlers/subscription/subscription_handler.go
package subscription

import (
	"net/http"
	"strconv"

	"dukani-service/internal/domain/subscription"
	"dukani-service/internal/middleware"
	"dukani-service/internal/pkg/response"
	service "dukani-service/internal/service/subscription"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
	}
}

// PurchaseOrder buys a plan, creating a pending (or free, completed) order
func (h *SubscriptionHandler) PurchaseOrder(c *gin.Context) {
	sellerID := middleware.MustGetSellerID(c)

	var req subscription.PurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	order, err := h.subscriptionService.PurchaseOrder(c.Request.Context(), sellerID, req.PlanID)
	if err != nil {
		response.FromError(c, "failed to purchase plan", err)
		return
	}

	response.Success(c, http.StatusCreated, "plan order created", order)
}

// CompletePayment marks a pending order as paid
func (h *SubscriptionHandler) CompletePayment(c *gin.Context) {
	sellerID := middleware.MustGetSellerID(c)

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid order ID", err)
		return
	}

	order, err := h.subscriptionService.CompletePayment(c.Request.Context(), sellerID, orderID)
	if err != nil {
		response.FromError(c, "failed to complete payment", err)
		return
	}

	response.Success(c, http.StatusOK, "payment completed", order)
}

// Activate switches the seller's running subscription to the requested
// plan or order
func (h *SubscriptionHandler) Activate(c *gin.Context) {
	sellerID := middleware.MustGetSellerID(c)

	var req subscription.ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.subscriptionService.Activate(c.Request.Context(), sellerID, &req)
	if err != nil {
		response.FromError(c, "activation failed", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription activated", result)
}

// GetStatus returns the seller's current validity verdict, after failover
func (h *SubscriptionHandler) GetStatus(c *gin.Context) {
	sellerID := middleware.MustGetSellerID(c)

	status, err := h.subscriptionService.EnsureValid(c.Request.Context(), sellerID)
	if err != nil {
		response.FromError(c, "failed to check subscription", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription status", status)
}

// GetValidity reports remaining time for every order the seller owns
func (h *SubscriptionHandler) GetValidity(c *gin.Context) {
	sellerID := middleware.MustGetSellerID(c)

	report, err := h.subscriptionService.RemainingValidity(c.Request.Context(), sellerID)
	if err != nil {
		response.FromError(c, "failed to compute validity", err)
		return
	}

	response.Success(c, http.StatusOK, "validity report", report)
}

// GetUsage reports quota counters against the current order's limits
func (h *SubscriptionHandler) GetUsage(c *gin.Context) {
	sellerID := middleware.MustGetSellerID(c)

	summary, err := h.subscriptionService.UsageSummary(c.Request.Context(), sellerID)
	if err != nil {
		response.FromError(c, "failed to load usage", err)
		return
	}

	response.Success(c, http.StatusOK, "usage summary", summary)
}

// ListOrders returns the seller's plan orders, newest first
func (h *SubscriptionHandler) ListOrders(c *gin.Context) {
	sellerID := middleware.MustGetSellerID(c)

	orders, err := h.subscriptionService.ListOrders(c.Request.Context(), sellerID)
	if err != nil {
		response.FromError(c, "failed to list orders", err)
		return
	}

	response.Success(c, http.StatusOK, "orders retrieved", orders)
}
