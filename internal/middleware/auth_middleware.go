// internal/middleware/auth_middleware.go
package middleware

import (
	"net/http"
	"strings"

	"dukani-service/internal/pkg/response"
	"dukani-service/internal/service/auth"

	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	authService *auth.AuthService
}

func NewAuthMiddleware(authService *auth.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// Auth validates the bearer token and stores the seller identity on the
// request context.
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "missing authorization token", nil)
			return
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid or expired token", err)
			return
		}

		c.Set("seller_id", claims.SellerID)
		c.Set("role", claims.Role)
		c.Set("jti", claims.ID)

		c.Next()
	}
}

// RequireAdmin restricts a route to administrator tokens.
// MUST be used after Auth() middleware
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.Error(c, http.StatusForbidden, "authentication required", nil)
			return
		}
		if r, ok := role.(string); !ok || r != "admin" {
			response.Error(c, http.StatusForbidden, "insufficient permissions", nil)
			return
		}
		c.Next()
	}
}

// AdminOnly returns middlewares for admin-only routes (Auth + RequireAdmin)
func (m *AuthMiddleware) AdminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.Auth(),
		m.RequireAdmin(),
	}
}

// extractToken extracts Bearer token from Authorization header
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	// Fallback for websocket clients that cannot set headers
	return c.Query("token")
}

// GetSellerID gets the authenticated seller ID from context
func GetSellerID(c *gin.Context) (int64, bool) {
	sellerID, exists := c.Get("seller_id")
	if !exists {
		return 0, false
	}
	id, ok := sellerID.(int64)
	return id, ok
}
