// internal/middleware/helpers.go
package middleware

import "github.com/gin-gonic/gin"

// MustGetSellerID gets the seller ID from context or panics
func MustGetSellerID(c *gin.Context) int64 {
	sellerID, exists := GetSellerID(c)
	if !exists {
		panic("seller_id not found in context")
	}
	return sellerID
}

// GetRole gets the authenticated role from context
func GetRole(c *gin.Context) string {
	role, exists := c.Get("role")
	if !exists {
		return ""
	}
	r, ok := role.(string)
	if !ok {
		return ""
	}
	return r
}

// IsAdmin checks if the request carries an admin token
func IsAdmin(c *gin.Context) bool {
	return GetRole(c) == "admin"
}
