// internal/service/subscription/cache.go
package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dukani-service/internal/domain/subscription"

	"github.com/redis/go-redis/v9"
)

const validityCacheTTL = 5 * time.Second

// ValidityCache keeps the write-gate verdict in redis for a few seconds so
// bursts of mutating requests don't recompute validity per request. Every
// activation and payment completion invalidates the seller's entry.
type ValidityCache struct {
	client *redis.Client
}

func NewValidityCache(client *redis.Client) *ValidityCache {
	return &ValidityCache{client: client}
}

func validityKey(sellerID int64) string {
	return fmt.Sprintf("subscription:validity:%d", sellerID)
}

// Get returns the cached verdict, or (nil, nil) on a miss.
func (c *ValidityCache) Get(ctx context.Context, sellerID int64) (*subscription.ValidityStatus, error) {
	raw, err := c.client.Get(ctx, validityKey(sellerID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("validity cache get: %w", err)
	}

	var status subscription.ValidityStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("validity cache decode: %w", err)
	}
	return &status, nil
}

func (c *ValidityCache) Set(ctx context.Context, sellerID int64, status *subscription.ValidityStatus) error {
	raw, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("validity cache encode: %w", err)
	}
	if err := c.client.Set(ctx, validityKey(sellerID), raw, validityCacheTTL).Err(); err != nil {
		return fmt.Errorf("validity cache set: %w", err)
	}
	return nil
}

func (c *ValidityCache) Invalidate(ctx context.Context, sellerID int64) error {
	if err := c.client.Del(ctx, validityKey(sellerID)).Err(); err != nil {
		return fmt.Errorf("validity cache invalidate: %w", err)
	}
	return nil
}
