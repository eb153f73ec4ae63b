package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/kuruswap-bot/backend/internal/config"
	"github.com/kuruswap-bot/backend/internal/http/handlers"
	"github.com/kuruswap-bot/backend/internal/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	walletHandler *handlers.WalletHandler,
	swapHandler *handlers.SwapHandler,
	tokenHandler *handlers.TokenHandler,
	sessionHandler *handlers.SessionHandler,
	healthHandler *handlers.HealthHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Liveness + dependency health
	app.Get("/healthz", healthHandler.Healthz)

	api := app.Group("/api/v1")

	// Auth (public)
	api.Post("/auth/telegram", authHandler.TelegramAuth)

	api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMin, time.Minute))

	// Token metadata probe (public: used to validate pasted addresses)
	api.Get("/tokens/:address", tokenHandler.GetToken)

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// User
	protected.Get("/me", userHandler.GetMe)

	// Wallets
	protected.Post("/me/wallets", walletHandler.CreateWallet)
	protected.Post("/me/wallets/import", walletHandler.ImportWallet)
	protected.Get("/me/wallets", walletHandler.ListWallets)
	protected.Post("/me/wallets/:id/activate", walletHandler.ActivateWallet)
	protected.Get("/me/balance", walletHandler.GetBalance)

	// Swaps
	protected.Post("/me/swap/quote", swapHandler.Quote)
	protected.Post("/me/swap", swapHandler.Execute)
	protected.Get("/me/transactions", swapHandler.History)

	// Conversational session
	protected.Get("/me/session", sessionHandler.GetSession)
	protected.Put("/me/session", sessionHandler.UpdateSession)
	protected.Delete("/me/session", sessionHandler.ClearSession)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
