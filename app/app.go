// File: app/app.go
package app

import (
	"context"
	"database/sql"
	"go-bank-ledger/config"
	"go-bank-ledger/db"
	"go-bank-ledger/handler"
	"go-bank-ledger/logger"
	"go-bank-ledger/repository"
	"go-bank-ledger/router"
	"go-bank-ledger/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
)

// App is the fully wired service.
type App struct {
	DB     *sql.DB
	Redis  *redis.Client
	Router http.Handler
}

// NewApp wires repositories, services and handlers on top of an open
// database. A nil redisClient disables the account cache.
func NewApp(cfg config.Config, database *sql.DB, redisClient *redis.Client) *App {
	// Repositories
	accountRepo := repository.NewAccountRepository(database)
	transactionRepo := repository.NewTransactionRepository(database)
	pixKeyRepo := repository.NewPixKeyRepository(database)
	ledgerStore := repository.NewLedgerStore(database, accountRepo, transactionRepo, repository.RetryConfig{
		MaxRetries:      cfg.Ledger.MaxRetries,
		InitialInterval: cfg.Ledger.RetryInitialInterval,
	})

	// The interface must stay nil when Redis is off; a typed nil would not be.
	var cacheClient service.ICacheClient
	if redisClient != nil {
		cacheClient = redisClient
	}
	accountCache := service.NewAccountCache(cacheClient, cfg.Cache.AccountsTTL)

	// Services
	identityService := service.NewIdentityService(repository.NewClientRepository(database), cfg.JWT.SecretKey)
	accountService := service.NewAccountService(accountRepo, repository.NewAgencyRepository(database), accountCache)
	transactionService := service.NewTransactionService(accountRepo, transactionRepo, pixKeyRepo, ledgerStore, accountCache)
	pixKeyService := service.NewPixKeyService(pixKeyRepo, accountRepo)

	checks := map[string]handler.HealthCheckFunc{
		"database": database.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	r := router.NewRouter(
		handler.NewHealthHandler(checks),
		handler.NewAccountHandler(accountService),
		handler.NewTransactionHandler(transactionService),
		handler.NewPixKeyHandler(pixKeyService),
		handler.AuthMiddleware(identityService),
	)

	return &App{DB: database, Redis: redisClient, Router: r}
}

func Run() {
	config.LoadConfig(".")
	cfg := config.AppConfig
	logger.Init()
	logger.SetLevel(cfg.Log.Level)
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect(cfg)
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if cfg.Database.AutoMigrate {
		if err := db.RunMigrations(cfg.Database.MigrationsPath, db.ConnString(cfg)); err != nil {
			logger.Log.Fatalf("Error running migrations: %v", err)
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = db.ConnectRedis(context.Background(), cfg)
		if err != nil {
			// The cache is optional; run without it rather than refuse to start.
			logger.Log.WithError(err).Warn("Redis unavailable, account cache disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	application := NewApp(cfg, database, redisClient)

	// --- Start the Server with Graceful Shutdown ---
	port := cfg.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: application.Router,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
