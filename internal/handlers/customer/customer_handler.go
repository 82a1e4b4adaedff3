// internal/handlers/customer/customer_handler.go
package customer

import (
	"net/http"
	"strconv"

	"dukani-service/internal/domain/customer"
	"dukani-service/internal/middleware"
	"dukani-service/internal/pkg/response"
	service "dukani-service/internal/service/customer"

	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	customerService *service.CustomerService
}

func NewCustomerHandler(customerService *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
	}
}

// CreateCustomer creates a customer record, charging one quota slot
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	sellerID := middleware.MustGetSellerID(c)

	var req customer.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	created, err := h.customerService.CreateCustomer(c.Request.Context(), sellerID, &req)
	if err != nil {
		response.FromError(c, "failed to create customer", err)
		return
	}

	response.Success(c, http.StatusCreated, "customer created", created)
}

// ListCustomers lists the seller's customers with search and pagination
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	sellerID := middleware.MustGetSellerID(c)

	var filters customer.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.customerService.ListCustomers(c.Request.Context(), sellerID, &filters)
	if err != nil {
		response.FromError(c, "failed to list customers", err)
		return
	}

	response.Success(c, http.StatusOK, "customers retrieved", result)
}

// GetCustomer retrieves a single customer
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	sellerID := middleware.MustGetSellerID(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid customer ID", err)
		return
	}

	cust, err := h.customerService.GetCustomer(c.Request.Context(), sellerID, id)
	if err != nil {
		response.FromError(c, "customer not found", err)
		return
	}

	response.Success(c, http.StatusOK, "customer retrieved", cust)
}

// UpdateCustomer updates a customer record
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	sellerID := middleware.MustGetSellerID(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid customer ID", err)
		return
	}

	var req customer.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	updated, err := h.customerService.UpdateCustomer(c.Request.Context(), sellerID, id, &req)
	if err != nil {
		response.FromError(c, "failed to update customer", err)
		return
	}

	response.Success(c, http.StatusOK, "customer updated", updated)
}

// DeleteCustomer removes a customer record
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	sellerID := middleware.MustGetSellerID(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid customer ID", err)
		return
	}

	if err := h.customerService.DeleteCustomer(c.Request.Context(), sellerID, id); err != nil {
		response.FromError(c, "failed to delete customer", err)
		return
	}

	response.Success(c, http.StatusOK, "customer deleted", nil)
}
