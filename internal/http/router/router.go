package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/fundraising-backend/internal/config"
	"github.com/ignatzorin/fundraising-backend/internal/http/middleware"
	"github.com/ignatzorin/fundraising-backend/internal/interface/http/handler"
	"github.com/ignatzorin/fundraising-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	transactionHandler *handler.TransactionHandler,
	healthHandler *handler.HealthHandler,
	seedHandler *handler.SeedHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	if seedHandler != nil && cfg.Env == "development" {
		api.POST("/seed", seedHandler.Seed)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	protected.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))

	transactions := protected.Group("/transactions/:id", middleware.UUIDValidator("id"))
	{
		transactions.GET("", transactionHandler.GetTransaction)
		transactions.GET("/history", transactionHandler.History)
		transactions.POST("/mark-processing", transactionHandler.MarkProcessing)
		transactions.POST("/complete", transactionHandler.Complete)
		transactions.POST("/mark-failed", transactionHandler.MarkFailed)
	}

	campaigns := protected.Group("/campaigns/:id", middleware.UUIDValidator("id"))
	{
		campaigns.GET("/transactions", transactionHandler.ListByCampaign)
		campaigns.GET("/ledger", transactionHandler.Ledger)
	}

	return r
}
