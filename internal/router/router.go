package router

import (
	"context"
	"time"

	"avalon/config"
	"avalon/internal/handler"
	"avalon/internal/middleware"
	"avalon/internal/repository"
	"avalon/internal/service"
	"avalon/internal/ws"
	"avalon/pkg/gateway"
	"avalon/pkg/provider"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Setup wires repositories, services, and handlers into the gin engine.
// rootCtx bounds background work (status pollers); cancelling it stops
// every poll loop. The returned Poller lets main wait for loops to drain
// on shutdown.
func Setup(cfg *config.Config, db *gorm.DB, rootCtx context.Context) (*gin.Engine, *service.Poller) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	txRepo := repository.NewTransactionRepository(db)
	gameRepo := repository.NewGameRepository(db)
	voucherRepo := repository.NewVoucherRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	userRepo := repository.NewUserRepository(db)

	// External adapters
	gw := gateway.NewMidtransGateway(cfg.Midtrans.ServerKey, cfg.Midtrans.IsProduction, cfg.Midtrans.Timeout)
	prov := provider.NewHTTPClient(cfg.Apigames.MerchantID, cfg.Apigames.SecretKey, cfg.Apigames.BaseURL, cfg.Apigames.Timeout)

	// Services
	hub := ws.NewHub()
	audit := service.NewAuditLogger(auditRepo)
	voucherSvc := service.NewVoucherService(voucherRepo)
	rec := service.NewReconciler(txRepo, gameRepo, prov, audit, hub)
	poller := service.NewPoller(txRepo, gw, rec, cfg.Poller.Interval, cfg.Poller.MaxAttempts)

	// Handlers
	txHandler := handler.NewTransactionHandler(txRepo, gameRepo, voucherSvc, gw, poller, audit, rootCtx)
	webhookHandler := handler.NewWebhookHandler(rec, cfg.Midtrans.ServerKey)
	voucherHandler := handler.NewVoucherHandler(voucherRepo, voucherSvc)
	gameHandler := handler.NewGameHandler(gameRepo, prov)
	logHandler := handler.NewLogHandler(auditRepo, audit)
	authHandler := handler.NewAuthHandler(cfg, userRepo, audit)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.AdminRequired()

	api := r.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)

		tx := api.Group("/transactions")
		{
			tx.POST("", txHandler.Create)
			tx.POST("/notification", webhookHandler.Handle)
			tx.GET("/stats", authMw, adminMw, txHandler.Stats)
			tx.GET("", authMw, adminMw, txHandler.ListAll)
			tx.GET("/user/:userId", txHandler.ListByUser)
			tx.GET("/:id", txHandler.Get)
			tx.DELETE("/:id", authMw, adminMw, txHandler.Delete)
		}

		vouchers := api.Group("/vouchers")
		{
			vouchers.POST("/verify", voucherHandler.Verify)
			vouchers.POST("", authMw, adminMw, voucherHandler.Create)
			vouchers.GET("", authMw, adminMw, voucherHandler.List)
			vouchers.DELETE("/:id", authMw, adminMw, voucherHandler.Delete)
		}

		games := api.Group("/games")
		{
			games.GET("", gameHandler.List)
			games.GET("/:id", gameHandler.Get)
			games.POST("/validate-account", gameHandler.ValidateAccount)
		}

		logs := api.Group("/logs")
		logs.Use(authMw, adminMw)
		{
			logs.GET("", logHandler.List)
			logs.DELETE("", logHandler.Purge)
		}
	}

	r.GET("/ws/transactions/:id", ws.SubscribeOrder(hub))

	return r, poller
}
