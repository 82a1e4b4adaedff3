// internal/middleware/subscription_guard.go
package middleware

import (
	"context"
	"net/http"

	"dukani-service/internal/domain/subscription"
	"dukani-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ValidityChecker yields the seller's current subscription verdict,
// attempting failover before giving up.
type ValidityChecker interface {
	EnsureValid(ctx context.Context, sellerID int64) (*subscription.ValidityStatus, error)
}

// ValidityCache is a short-lived verdict cache in front of the checker.
type ValidityCache interface {
	Get(ctx context.Context, sellerID int64) (*subscription.ValidityStatus, error)
	Set(ctx context.Context, sellerID int64, status *subscription.ValidityStatus) error
}

// SubscriptionGuard blocks mutating requests from sellers without a valid
// subscription. Reads always pass; a seller with a lapsed plan can still see
// their data. MUST be used after Auth() middleware.
type SubscriptionGuard struct {
	checker ValidityChecker
	cache   ValidityCache
	logger  *zap.Logger
}

func NewSubscriptionGuard(checker ValidityChecker, cache ValidityCache, logger *zap.Logger) *SubscriptionGuard {
	return &SubscriptionGuard{
		checker: checker,
		cache:   cache,
		logger:  logger,
	}
}

// RequireValid is the write gate.
func (g *SubscriptionGuard) RequireValid() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		sellerID, ok := GetSellerID(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "authentication required", nil)
			return
		}

		status := g.cachedStatus(c.Request.Context(), sellerID)
		if status == nil {
			fresh, err := g.checker.EnsureValid(c.Request.Context(), sellerID)
			if err != nil {
				response.Error(c, http.StatusInternalServerError, "failed to check subscription", err)
				return
			}
			status = fresh
			g.storeStatus(c.Request.Context(), sellerID, fresh)
		}

		if !status.Valid {
			response.PaymentRequired(c, "active subscription required", nil)
			return
		}

		c.Next()
	}
}

// cachedStatus returns a cached verdict, but only a positive one: an invalid
// verdict is always re-checked so failover gets a chance to run.
func (g *SubscriptionGuard) cachedStatus(ctx context.Context, sellerID int64) *subscription.ValidityStatus {
	if g.cache == nil {
		return nil
	}
	status, err := g.cache.Get(ctx, sellerID)
	if err != nil {
		g.logger.Warn("validity cache read failed",
			zap.Int64("seller_id", sellerID), zap.Error(err))
		return nil
	}
	if status == nil || !status.Valid {
		return nil
	}
	return status
}

func (g *SubscriptionGuard) storeStatus(ctx context.Context, sellerID int64, status *subscription.ValidityStatus) {
	if g.cache == nil || status == nil || !status.Valid {
		return
	}
	if err := g.cache.Set(ctx, sellerID, status); err != nil {
		g.logger.Warn("validity cache write failed",
			zap.Int64("seller_id", sellerID), zap.Error(err))
	}
}
