package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kevin07696/billing-sync/internal/adapters/notify"
	adapterports "github.com/kevin07696/billing-sync/internal/adapters/ports"
	"github.com/kevin07696/billing-sync/internal/adapters/postgres"
	"github.com/kevin07696/billing-sync/internal/adapters/secrets"
	"github.com/kevin07696/billing-sync/internal/adapters/stripeapi"
	"github.com/kevin07696/billing-sync/internal/config"
	webhookHandler "github.com/kevin07696/billing-sync/internal/handlers/webhook"
	cardService "github.com/kevin07696/billing-sync/internal/services/card"
	"github.com/kevin07696/billing-sync/internal/services/dispatcher"
	discountService "github.com/kevin07696/billing-sync/internal/services/discount"
	invoiceService "github.com/kevin07696/billing-sync/internal/services/invoice"
	planService "github.com/kevin07696/billing-sync/internal/services/plan"
	subscriptionService "github.com/kevin07696/billing-sync/internal/services/subscription"
	pkghttp "github.com/kevin07696/billing-sync/pkg/http"
	"github.com/kevin07696/billing-sync/pkg/logging"
	"github.com/kevin07696/billing-sync/pkg/middleware"
	"github.com/kevin07696/billing-sync/pkg/observability"
	"github.com/kevin07696/billing-sync/pkg/resilience"
	"github.com/kevin07696/billing-sync/pkg/shutdown"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := logging.NewZapLoggerFromLevel(cfg.Logger.Level, cfg.Logger.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	logger := logging.NewZapLogger(zapLogger)

	zapLogger.Info("Starting billing sync service",
		zap.Bool("validate_webhooks", cfg.Provider.ValidateWebhooks),
	)

	ctx := context.Background()

	dbPool, err := initDatabase(ctx, cfg)
	if err != nil {
		zapLogger.Fatal("Failed to initialize database", zap.Error(err))
	}
	zapLogger.Info("Database connection established",
		zap.String("database", cfg.Database.Database),
	)

	apiKey, err := resolveAPIKey(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to resolve provider API key", zap.Error(err))
	}

	// Adapters
	db := postgres.NewDBExecutor(dbPool)
	customers := postgres.NewCustomerRepository(db)
	billables := postgres.NewBillableRepository(customers)
	plans := postgres.NewPlanRepository(db)
	cards := postgres.NewCardRepository(db, customers)
	discounts := postgres.NewDiscountRepository(db)
	subscriptions := postgres.NewSubscriptionRepository(db, plans, customers, discounts)
	invoices := postgres.NewInvoiceRepository(db, customers, subscriptions)
	providerHTTP := pkghttp.NewRetryingClient(
		pkghttp.NewHTTPClient(pkghttp.ProviderClientConfig(), time.Duration(cfg.Provider.Timeout)*time.Second),
		resilience.ProviderBackoff(),
		cfg.Provider.MaxRetries,
	)
	provider := stripeapi.NewClient(cfg.Provider.BaseURL, apiKey, providerHTTP, logger)
	notifier := notify.NewLoggingNotifier(logger)

	// Services
	planSvc := planService.NewService(plans, provider, logger)
	cardSvc := cardService.NewService(cards, provider, logger)
	discountSvc := discountService.NewService(discounts, customers, subscriptions, provider, logger)
	subscriptionSvc := subscriptionService.NewService(subscriptions, billables, provider, logger)
	invoiceSvc := invoiceService.NewService(invoices, customers, subscriptions, provider, notifier, logger)

	d := dispatcher.NewDispatcher(provider,
		planSvc, cardSvc, discountSvc, subscriptionSvc, invoiceSvc,
		cfg.Provider.ValidateWebhooks, logger)

	mux := http.NewServeMux()
	webhookHandler.NewHandler(d, logger).Register(mux)

	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      rateLimiter.Middleware(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	healthChecker := observability.NewHealthChecker(dbPool)
	metricsServer := observability.StartMetricsServer(fmt.Sprintf("%d", cfg.Server.MetricsPort), healthChecker)
	zapLogger.Info("Metrics server listening", zap.Int("port", cfg.Server.MetricsPort))

	// Registration order is dependency order: the manager shuts down in
	// reverse, so the worker and servers stop before the pool closes.
	manager := shutdown.NewManager(zapLogger, 30*time.Second)
	manager.RegisterNoErr("db_pool", dbPool.Close)
	manager.RegisterNoErr("rate_limiter", rateLimiter.Shutdown)
	manager.RegisterHTTPServer("metrics_server", metricsServer)
	manager.RegisterHTTPServer("webhook_server", httpServer)

	if cfg.Sync.PlanSyncInterval > 0 {
		worker := shutdown.NewPeriodicWorker("plan_sync", cfg.Sync.PlanSyncInterval, zapLogger)
		worker.Start(func(ctx context.Context) {
			if err := planSvc.SyncAll(ctx); err != nil {
				zapLogger.Error("Periodic plan sync failed", zap.Error(err))
			}
		})
		manager.Register("plan_sync_worker", worker.Shutdown)
	}

	go func() {
		zapLogger.Info("Webhook server listening", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	manager.WaitForShutdown()
}

// initDatabase creates the pgx connection pool
func initDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.MaxConns = cfg.Database.MaxConns
	poolConfig.MinConns = cfg.Database.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// resolveAPIKey returns the provider API key, fetching it from the configured
// secret manager when it is not set directly
func resolveAPIKey(ctx context.Context, cfg *config.Config, logger *zap.Logger) (string, error) {
	if cfg.Provider.APIKey != "" {
		return cfg.Provider.APIKey, nil
	}

	manager, err := buildSecretManager(ctx, cfg, logger)
	if err != nil {
		return "", err
	}
	secret, err := manager.GetSecret(ctx, cfg.Provider.APIKeySecretPath)
	if err != nil {
		return "", err
	}
	return secret.Value, nil
}

func buildSecretManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) (adapterports.SecretManagerAdapter, error) {
	switch cfg.Secrets.Backend {
	case "local":
		return secrets.NewLocalSecretManager(cfg.Secrets.LocalPath, logger), nil
	case "aws":
		return secrets.NewAWSSecretsManagerAdapter(ctx,
			secrets.DefaultAWSSecretsManagerConfig(cfg.Secrets.AWSRegion), logger)
	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(cfg.Secrets.VaultAddress)
		vaultCfg.Token = cfg.Secrets.VaultToken
		vaultCfg.MountPath = cfg.Secrets.VaultMount
		if cfg.Secrets.VaultRoleID != "" {
			vaultCfg.AuthMethod = "approle"
			vaultCfg.RoleID = cfg.Secrets.VaultRoleID
			vaultCfg.SecretID = cfg.Secrets.VaultSecretID
		}
		return secrets.NewVaultAdapter(ctx, vaultCfg, logger)
	default:
		return nil, fmt.Errorf("unsupported secrets backend %q", cfg.Secrets.Backend)
	}
}
