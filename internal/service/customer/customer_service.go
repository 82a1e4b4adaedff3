// internal/service/customer/customer_service.go
package customer

import (
	"context"
	"database/sql"
	"fmt"

	"dukani-service/internal/domain/customer"

	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Store is the customer persistence surface.
type Store interface {
	Create(ctx context.Context, c *customer.Customer) error
	FindByID(ctx context.Context, sellerID, id int64) (*customer.Customer, error)
	List(ctx context.Context, sellerID int64, filters *customer.ListFilters) ([]customer.Customer, int64, error)
	Update(ctx context.Context, c *customer.Customer) error
	Delete(ctx context.Context, sellerID, id int64) error
}

// QuotaConsumer charges one customer slot against the seller's current plan
// order before a record is created.
type QuotaConsumer interface {
	ConsumeCustomerQuota(ctx context.Context, sellerID int64) error
}

type CustomerService struct {
	customerRepo Store
	quota        QuotaConsumer
	logger       *zap.Logger
}

func NewCustomerService(customerRepo Store, quota QuotaConsumer, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		quota:        quota,
		logger:       logger,
	}
}

// CreateCustomer charges the seller's customer quota and creates the record.
func (s *CustomerService) CreateCustomer(ctx context.Context, sellerID int64, req *customer.CreateCustomerRequest) (*customer.Customer, error) {
	if err := s.quota.ConsumeCustomerQuota(ctx, sellerID); err != nil {
		return nil, err
	}

	c := &customer.Customer{
		SellerID:          sellerID,
		CustomerReference: "CUS-" + ulid.Make().String(),
		FullName:          req.FullName,
		PhoneNumber:       req.PhoneNumber,
		Email:             sql.NullString{String: req.Email, Valid: req.Email != ""},
		Notes:             sql.NullString{String: req.Notes, Valid: req.Notes != ""},
		Tags:              pq.StringArray(req.Tags),
		IsActive:          true,
	}

	if err := s.customerRepo.Create(ctx, c); err != nil {
		s.logger.Error("failed to create customer",
			zap.Int64("seller_id", sellerID), zap.Error(err))
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.logger.Info("customer created",
		zap.Int64("customer_id", c.ID),
		zap.Int64("seller_id", sellerID),
	)
	return c, nil
}

// GetCustomer retrieves one customer owned by the seller.
func (s *CustomerService) GetCustomer(ctx context.Context, sellerID, id int64) (*customer.Customer, error) {
	return s.customerRepo.FindByID(ctx, sellerID, id)
}

// ListCustomers retrieves the seller's customers with search and pagination.
func (s *CustomerService) ListCustomers(ctx context.Context, sellerID int64, filters *customer.ListFilters) (*customer.ListResponse, error) {
	customers, total, err := s.customerRepo.List(ctx, sellerID, filters)
	if err != nil {
		return nil, err
	}
	return &customer.ListResponse{
		Customers: customers,
		Total:     total,
		Page:      filters.Page,
		PageSize:  filters.PageSize,
	}, nil
}

// UpdateCustomer applies a partial update to a customer record. Updates do
// not charge quota; only creation counts.
func (s *CustomerService) UpdateCustomer(ctx context.Context, sellerID, id int64, req *customer.CreateCustomerRequest) (*customer.Customer, error) {
	c, err := s.customerRepo.FindByID(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}

	c.FullName = req.FullName
	c.PhoneNumber = req.PhoneNumber
	c.Email = sql.NullString{String: req.Email, Valid: req.Email != ""}
	c.Notes = sql.NullString{String: req.Notes, Valid: req.Notes != ""}
	c.Tags = pq.StringArray(req.Tags)

	if err := s.customerRepo.Update(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("customer updated",
		zap.Int64("customer_id", id), zap.Int64("seller_id", sellerID))
	return c, nil
}

// DeleteCustomer removes a customer record. The quota slot is not refunded.
func (s *CustomerService) DeleteCustomer(ctx context.Context, sellerID, id int64) error {
	if err := s.customerRepo.Delete(ctx, sellerID, id); err != nil {
		return err
	}
	s.logger.Info("customer deleted",
		zap.Int64("customer_id", id), zap.Int64("seller_id", sellerID))
	return nil
}
