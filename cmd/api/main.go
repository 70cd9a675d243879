package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/surprisebag-backend/api/routes"
	"github.com/angelmondragon/surprisebag-backend/internal/boxes"
	"github.com/angelmondragon/surprisebag-backend/internal/cart"
	"github.com/angelmondragon/surprisebag-backend/internal/catalog"
	"github.com/angelmondragon/surprisebag-backend/internal/orders"
	"github.com/angelmondragon/surprisebag-backend/internal/vendors"
	"github.com/angelmondragon/surprisebag-backend/pkg/clock"
	"github.com/angelmondragon/surprisebag-backend/pkg/config"
	"github.com/angelmondragon/surprisebag-backend/pkg/db"
	"github.com/angelmondragon/surprisebag-backend/pkg/instance"
	"github.com/angelmondragon/surprisebag-backend/pkg/logger"
	"github.com/angelmondragon/surprisebag-backend/pkg/metrics"
	"github.com/angelmondragon/surprisebag-backend/pkg/migrate"
	"github.com/angelmondragon/surprisebag-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	loc, err := cfg.Market.Location()
	if err != nil {
		logg.Error(context.Background(), "failed to load market timezone", err)
		os.Exit(1)
	}
	clk := clock.New(loc)

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.FeatureFlags.UseRedis {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis disabled: no rate limiting or category cache")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	marketMetrics := metrics.NewMarketplaceMetrics(registry)

	conn := dbClient.DB()
	vendorService, err := vendors.NewService(vendors.NewRepository(conn), clk)
	requireService(logg, "vendor", err)

	catalogRepo := catalog.NewRepository(conn)
	var catalogService catalog.Service
	if redisClient != nil {
		catalogService, err = catalog.NewService(catalogRepo, vendorService, clk, cfg.Market, redisClient)
	} else {
		catalogService, err = catalog.NewService(catalogRepo, vendorService, clk, cfg.Market, nil)
	}
	requireService(logg, "catalog", err)

	boxService, err := boxes.NewService(boxes.NewRepository(conn), dbClient, vendorService, clk, marketMetrics)
	requireService(logg, "box", err)

	cartService, err := cart.NewService(cart.NewRepository(conn), dbClient, cfg.Market)
	requireService(logg, "cart", err)

	orderService, err := orders.NewService(orders.NewRepository(conn), dbClient, clk, cfg.Market, marketMetrics)
	requireService(logg, "order", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"timezone": loc.String(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry,
			vendorService, catalogService, boxService, cartService, orderService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server stopped")
	}
}

func requireService(logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+name+" service", err)
	os.Exit(1)
}
