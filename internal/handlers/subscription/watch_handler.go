// internal/handlers/subscription/watch_handler.go
package subscription

import (
	"context"
	"net/http"
	"time"

	"dukani-service/internal/middleware"
	service "dukani-service/internal/service/subscription"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	watchInterval = 30 * time.Second
	writeWait     = 10 * time.Second
)

// WatchHandler streams validity verdicts over a websocket so dashboards can
// show a live countdown and react the moment a subscription lapses.
type WatchHandler struct {
	subscriptionService *service.SubscriptionService
	logger              *zap.Logger
}

func NewWatchHandler(subscriptionService *service.SubscriptionService, logger *zap.Logger) *WatchHandler {
	return &WatchHandler{
		subscriptionService: subscriptionService,
		logger:              logger,
	}
}

// Watch upgrades the connection and pushes the seller's validity status
// immediately and then on every tick until the client disconnects.
func (h *WatchHandler) Watch(c *gin.Context) {
	sellerID := middleware.MustGetSellerID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			zap.Int64("seller_id", sellerID),
			zap.Error(err),
		)
		return
	}
	defer conn.Close()

	h.logger.Info("validity watch connected", zap.Int64("seller_id", sellerID))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Reader exists only to observe the close handshake.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		status, err := h.subscriptionService.EnsureValid(ctx, sellerID)
		if err != nil {
			h.logger.Warn("validity watch check failed",
				zap.Int64("seller_id", sellerID), zap.Error(err))
			return
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(status); err != nil {
			return
		}

		select {
		case <-ctx.Done():
			h.logger.Info("validity watch disconnected", zap.Int64("seller_id", sellerID))
			return
		case <-ticker.C:
		}
	}
}
