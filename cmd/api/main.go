package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/kuruswap-bot/backend/internal/chain"
	"github.com/kuruswap-bot/backend/internal/config"
	"github.com/kuruswap-bot/backend/internal/db"
	"github.com/kuruswap-bot/backend/internal/events"
	apphttp "github.com/kuruswap-bot/backend/internal/http"
	"github.com/kuruswap-bot/backend/internal/http/handlers"
	"github.com/kuruswap-bot/backend/internal/keystore"
	"github.com/kuruswap-bot/backend/internal/kuru"
	"github.com/kuruswap-bot/backend/internal/metrics"
	"github.com/kuruswap-bot/backend/internal/repositories"
	"github.com/kuruswap-bot/backend/internal/services"
	"github.com/kuruswap-bot/backend/internal/sessions"
	"go.uber.org/zap"
)

func main() {
	log := newLogger()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Chain
	chainClient, err := chain.Dial(ctx, chain.Config{
		RPCURL:  cfg.RPCURL,
		ChainID: cfg.ChainID,
		Timeout: cfg.RPCTimeout,
	}, log)
	if err != nil {
		log.Fatal("failed to connect to chain rpc", zap.Error(err))
	}
	defer chainClient.Close()

	// Custody
	ks, err := keystore.New(cfg.WalletKEK)
	if err != nil {
		log.Fatal("invalid WALLET_KEK", zap.Error(err))
	}

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	walletRepo := repositories.NewWalletRepo(pool)
	txRepo := repositories.NewTransactionRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Kuru integration
	resolver := kuru.NewResolver(cfg.DiscoveryURL, cfg.DiscoveryTimeout, log)
	quoter := kuru.NewQuoter(chainClient, common.HexToAddress(cfg.PriceRouteAddress))

	// Sessions
	sessionStore := sessions.NewStore(rdb, cfg.SessionTTL)

	// Services
	walletService := services.NewWalletService(walletRepo, auditRepo, chainClient, ks, publisher, cfg, log)
	swapService := services.NewSwapService(walletRepo, txRepo, auditRepo, chainClient, resolver, quoter, ks, publisher, cfg, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, cfg, log)
	userHandler := handlers.NewUserHandler(userRepo, walletService, log)
	walletHandler := handlers.NewWalletHandler(walletService, log)
	swapHandler := handlers.NewSwapHandler(swapService, log)
	tokenHandler := handlers.NewTokenHandler(chainClient, log)
	sessionHandler := handlers.NewSessionHandler(sessionStore, log)
	healthHandler := handlers.NewHealthHandler(pool, chainClient)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Metrics listener on its own port
	metricsSrv := metrics.Serve(":" + cfg.MetricsPort)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, authHandler, userHandler, walletHandler, swapHandler, tokenHandler, sessionHandler, healthHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = metricsSrv.Close()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server",
		zap.String("addr", addr),
		zap.Int64("chain_id", cfg.ChainID),
	)
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

func newLogger() *zap.Logger {
	if os.Getenv("APP_ENV") == "development" {
		log, _ := zap.NewDevelopment()
		return log
	}
	log, _ := zap.NewProduction()
	return log
}
