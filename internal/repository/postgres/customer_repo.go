// internal/repository/postgres/customer_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dukani-service/internal/domain/customer"
	xerrors "dukani-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CustomerRepository struct {
	db *pgxpool.Pool
}

func NewCustomerRepository(db *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{db: db}
}

const customerColumns = `id, seller_id, customer_reference, full_name, phone_number,
	       email, notes, tags, is_active, created_at, updated_at`

func scanCustomer(row pgx.Row) (*customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(
		&c.ID, &c.SellerID, &c.CustomerReference, &c.FullName, &c.PhoneNumber,
		&c.Email, &c.Notes, &c.Tags, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan customer: %w", err)
	}
	return &c, nil
}

// Create inserts a new customer record
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	query := `
		INSERT INTO customers (
			seller_id, customer_reference, full_name, phone_number,
			email, notes, tags, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		c.SellerID, c.CustomerReference, c.FullName, c.PhoneNumber,
		c.Email, c.Notes, c.Tags, c.IsActive,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// FindByID retrieves a customer owned by the given seller
func (r *CustomerRepository) FindByID(ctx context.Context, sellerID, id int64) (*customer.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE id = $1 AND seller_id = $2`, customerColumns)
	return scanCustomer(r.db.QueryRow(ctx, query, id, sellerID))
}

// List retrieves a seller's customers with search and pagination
func (r *CustomerRepository) List(ctx context.Context, sellerID int64, filters *customer.ListFilters) ([]customer.Customer, int64, error) {
	conditions := []string{"seller_id = $1"}
	args := []interface{}{sellerID}
	argPos := 2

	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR phone_number ILIKE $%d OR customer_reference ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, "%"+filters.Search+"%")
		argPos++
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM customers %s", whereClause)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}
	offset := (filters.Page - 1) * filters.PageSize

	query := fmt.Sprintf(`
		SELECT %s FROM customers
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, customerColumns, whereClause, argPos, argPos+1)
	args = append(args, filters.PageSize, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := []customer.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, *c)
	}
	return customers, total, rows.Err()
}

// Update rewrites a customer's editable fields
func (r *CustomerRepository) Update(ctx context.Context, c *customer.Customer) error {
	query := `
		UPDATE customers
		SET full_name = $1, phone_number = $2, email = $3, notes = $4,
		    tags = $5, is_active = $6, updated_at = $7
		WHERE id = $8 AND seller_id = $9
	`

	result, err := r.db.Exec(
		ctx, query,
		c.FullName, c.PhoneNumber, c.Email, c.Notes,
		c.Tags, c.IsActive, time.Now(), c.ID, c.SellerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// Delete removes a customer owned by the given seller
func (r *CustomerRepository) Delete(ctx context.Context, sellerID, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1 AND seller_id = $2`, id, sellerID)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
