// internal/handlers/auth/auth_handler.go
package auth

import (
	"net/http"

	"dukani-service/internal/domain/seller"
	"dukani-service/internal/middleware"
	"dukani-service/internal/pkg/response"
	"dukani-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *auth.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *auth.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register creates a new seller account
func (h *AuthHandler) Register(c *gin.Context) {
	var req seller.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "registration failed", err)
		return
	}

	response.Success(c, http.StatusCreated, "account created", resp)
}

// Login authenticates a seller and returns a token
func (h *AuthHandler) Login(c *gin.Context) {
	var req seller.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "login failed", err)
		return
	}

	response.Success(c, http.StatusOK, "login successful", resp)
}

// GetMe returns the authenticated seller's profile
func (h *AuthHandler) GetMe(c *gin.Context) {
	sellerID := middleware.MustGetSellerID(c)

	sel, err := h.authService.GetMe(c.Request.Context(), sellerID)
	if err != nil {
		response.FromError(c, "failed to load profile", err)
		return
	}

	response.Success(c, http.StatusOK, "profile retrieved", sel)
}
