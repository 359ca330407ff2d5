// Command sync-plans imports the provider's full plan catalog into the local
// store once and exits. Useful for bootstrapping a fresh database and for
// repairing drift after missed webhooks.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kevin07696/billing-sync/internal/adapters/postgres"
	"github.com/kevin07696/billing-sync/internal/adapters/stripeapi"
	"github.com/kevin07696/billing-sync/internal/config"
	planService "github.com/kevin07696/billing-sync/internal/services/plan"
	pkghttp "github.com/kevin07696/billing-sync/pkg/http"
	"github.com/kevin07696/billing-sync/pkg/logging"
	"github.com/kevin07696/billing-sync/pkg/resilience"
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

	if cfg.Provider.APIKey == "" {
		zapLogger.Fatal("PROVIDER_API_KEY is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.ConnectionString())
	if err != nil {
		zapLogger.Fatal("Failed to parse database config", zap.Error(err))
	}
	dbPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	db := postgres.NewDBExecutor(dbPool)
	plans := postgres.NewPlanRepository(db)

	providerHTTP := pkghttp.NewRetryingClient(
		pkghttp.NewHTTPClient(pkghttp.ProviderClientConfig(), time.Duration(cfg.Provider.Timeout)*time.Second),
		resilience.ProviderBackoff(),
		cfg.Provider.MaxRetries,
	)
	provider := stripeapi.NewClient(cfg.Provider.BaseURL, cfg.Provider.APIKey, providerHTTP, logger)

	planSvc := planService.NewService(plans, provider, logger)

	start := time.Now()
	if err := planSvc.SyncAll(ctx); err != nil {
		zapLogger.Fatal("Plan import failed", zap.Error(err))
	}

	zapLogger.Info("Plan import completed",
		zap.Duration("elapsed", time.Since(start)),
	)
}
