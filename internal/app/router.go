// internal/app/router.go
package app

import (
	authHandler "dukani-service/internal/handlers/auth"
	customerHandler "dukani-service/internal/handlers/customer"
	planHandler "dukani-service/internal/handlers/plan"
	subscriptionHandler "dukani-service/internal/handlers/subscription"
	"dukani-service/internal/middleware"
	"dukani-service/internal/repository/postgres"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	AuthHandler         *authHandler.AuthHandler
	PlanHandler         *planHandler.PlanHandler
	SubscriptionHandler *subscriptionHandler.SubscriptionHandler
	WatchHandler        *subscriptionHandler.WatchHandler
	CustomerHandler     *customerHandler.CustomerHandler
	AuthMiddleware      *middleware.AuthMiddleware
	SubscriptionGuard   *middleware.SubscriptionGuard
	DB                  *postgres.DB
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		if err := h.DB.Ping(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== Public Auth Routes ====================
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/register", h.AuthHandler.Register)
		authPublic.POST("/login", h.AuthHandler.Login)
	}

	// ==================== Authenticated Auth Routes ====================
	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.GET("/me", h.AuthHandler.GetMe)
	}

	// ==================== Plan Catalog ====================
	plans := api.Group("/plans")
	{
		// Browsing the catalog needs no account
		plans.GET("", h.PlanHandler.ListPlans)
		plans.GET("/:id", h.PlanHandler.GetPlan)

		// Admin endpoints
		plansAdmin := plans.Group("")
		plansAdmin.Use(h.AuthMiddleware.AdminOnly()...)
		{
			plansAdmin.POST("", h.PlanHandler.CreatePlan)
			plansAdmin.PATCH("/:id", h.PlanHandler.UpdatePlan)
			plansAdmin.DELETE("/:id", h.PlanHandler.DeactivatePlan)
			plansAdmin.GET("/stats", h.PlanHandler.GetStats)
		}
	}

	// ==================== Subscription ====================
	subscription := api.Group("/subscription")
	subscription.Use(h.AuthMiddleware.Auth())
	{
		subscription.POST("/orders", h.SubscriptionHandler.PurchaseOrder)
		subscription.GET("/orders", h.SubscriptionHandler.ListOrders)
		subscription.POST("/orders/:id/payment", h.SubscriptionHandler.CompletePayment)
		subscription.POST("/activate", h.SubscriptionHandler.Activate)
		subscription.GET("/status", h.SubscriptionHandler.GetStatus)
		subscription.GET("/validity", h.SubscriptionHandler.GetValidity)
		subscription.GET("/usage", h.SubscriptionHandler.GetUsage)
		subscription.GET("/watch", h.WatchHandler.Watch)
	}

	// ==================== Customers ====================
	// Writes are gated on a valid subscription; reads always pass.
	customers := api.Group("/customers")
	customers.Use(h.AuthMiddleware.Auth(), h.SubscriptionGuard.RequireValid())
	{
		customers.GET("", h.CustomerHandler.ListCustomers)
		customers.GET("/:id", h.CustomerHandler.GetCustomer)
		customers.POST("", h.CustomerHandler.CreateCustomer)
		customers.PUT("/:id", h.CustomerHandler.UpdateCustomer)
		customers.DELETE("/:id", h.CustomerHandler.DeleteCustomer)
	}
}
