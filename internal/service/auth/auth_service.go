// internal/service/auth/auth_service.go
package auth

import (
	"context"
	"fmt"

	"dukani-service/internal/domain/seller"
	xerrors "dukani-service/internal/pkg/errors"
	"dukani-service/internal/pkg/jwt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Store is the seller persistence surface the auth flow needs.
type Store interface {
	CreateSeller(ctx context.Context, s *seller.Seller) error
	FindSellerByID(ctx context.Context, id int64) (*seller.Seller, error)
	FindSellerByEmail(ctx context.Context, email string) (*seller.Seller, error)
}

type AuthService struct {
	sellers    Store
	jwtManager *jwt.Manager
	logger     *zap.Logger
}

func NewAuthService(sellers Store, jwtManager *jwt.Manager, logger *zap.Logger) *AuthService {
	return &AuthService{
		sellers:    sellers,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// Register creates a seller account and returns a signed token.
func (s *AuthService) Register(ctx context.Context, req *seller.RegisterRequest) (*seller.AuthResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	sel := &seller.Seller{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         "seller",
		IsActive:     true,
	}
	if err := s.sellers.CreateSeller(ctx, sel); err != nil {
		return nil, err
	}

	token, err := s.jwtManager.Generate(sel.ID, sel.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("seller registered",
		zap.Int64("seller_id", sel.ID),
		zap.String("email", sel.Email),
	)
	return &seller.AuthResponse{Token: token, Seller: sel}, nil
}

// Login verifies credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, req *seller.LoginRequest) (*seller.AuthResponse, error) {
	sel, err := s.sellers.FindSellerByEmail(ctx, req.Email)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		return nil, xerrors.Wrap(xerrors.ErrUnauthorized, "invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if !sel.IsActive {
		return nil, xerrors.Wrap(xerrors.ErrForbidden, "account disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(sel.PasswordHash), []byte(req.Password)); err != nil {
		return nil, xerrors.Wrap(xerrors.ErrUnauthorized, "invalid email or password")
	}

	token, err := s.jwtManager.Generate(sel.ID, sel.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("seller logged in", zap.Int64("seller_id", sel.ID))
	return &seller.AuthResponse{Token: token, Seller: sel}, nil
}

// ValidateToken verifies a bearer token and returns its claims.
func (s *AuthService) ValidateToken(tokenStr string) (*jwt.Claims, error) {
	claims, err := s.jwtManager.Verify(tokenStr)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrUnauthorized, err.Error())
	}
	return claims, nil
}

// GetMe retrieves the authenticated seller's profile.
func (s *AuthService) GetMe(ctx context.Context, sellerID int64) (*seller.Seller, error) {
	return s.sellers.FindSellerByID(ctx, sellerID)
}

// EnsureAdminExists creates the bootstrap admin account if the email is not
// yet registered. Called once at startup.
func (s *AuthService) EnsureAdminExists(ctx context.Context, email, password, fullName string) error {
	_, err := s.sellers.FindSellerByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !xerrors.Is(err, xerrors.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &seller.Seller{
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         "admin",
		IsActive:     true,
	}
	if err := s.sellers.CreateSeller(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	s.logger.Info("admin account created", zap.String("email", email))
	return nil
}
