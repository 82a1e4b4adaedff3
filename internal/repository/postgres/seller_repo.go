// internal/repository/postgres/seller_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"dukani-service/internal/domain/seller"
	xerrors "dukani-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SellerRepository struct {
	db *pgxpool.Pool
}

func NewSellerRepository(db *pgxpool.Pool) *SellerRepository {
	return &SellerRepository{db: db}
}

const sellerColumns = `id, full_name, email, password_hash, role, is_active,
	       current_plan_order_id, created_at, updated_at`

func scanSeller(row pgx.Row) (*seller.Seller, error) {
	var s seller.Seller
	err := row.Scan(
		&s.ID, &s.FullName, &s.Email, &s.PasswordHash, &s.Role, &s.IsActive,
		&s.CurrentPlanOrderID, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan seller: %w", err)
	}
	return &s, nil
}

// CreateSeller registers a new seller account
func (r *SellerRepository) CreateSeller(ctx context.Context, s *seller.Seller) error {
	query := `
		INSERT INTO sellers (full_name, email, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		s.FullName, s.Email, s.PasswordHash, s.Role, s.IsActive,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return xerrors.Wrap(xerrors.ErrConflict, "email already registered")
	}
	if err != nil {
		return fmt.Errorf("failed to create seller: %w", err)
	}
	return nil
}

// FindSellerByID retrieves a seller by ID
func (r *SellerRepository) FindSellerByID(ctx context.Context, id int64) (*seller.Seller, error) {
	query := fmt.Sprintf(`SELECT %s FROM sellers WHERE id = $1`, sellerColumns)
	return scanSeller(r.db.QueryRow(ctx, query, id))
}

// FindSellerByEmail retrieves a seller by login email
func (r *SellerRepository) FindSellerByEmail(ctx context.Context, email string) (*seller.Seller, error) {
	query := fmt.Sprintf(`SELECT %s FROM sellers WHERE email = $1`, sellerColumns)
	return scanSeller(r.db.QueryRow(ctx, query, email))
}
