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

	"github.com/ismetkarakus/coziyoo-v2-sub000/api/routes"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/compliance"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/deliveryproof"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/disclosures"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/disputes"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/finance"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/lots"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/orders"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/payments"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/config"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/logger"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/migrate"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/outbox"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/payprovider"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/redis"
)

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
	})

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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()

	outboxRepo := outbox.NewRepository(gormDB)
	outboxSvc := outbox.NewService(outboxRepo, logg)
	dlqRepo := outbox.NewDLQRepository(gormDB)

	complianceSvc, err := compliance.NewService(compliance.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create compliance service", err)
		os.Exit(1)
	}

	disclosureSvc, err := disclosures.NewService(gormDB, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create disclosures service", err)
		os.Exit(1)
	}

	proofSvc, err := deliveryproof.NewService(gormDB, dbClient, redisClient, cfg.DeliveryProof)
	if err != nil {
		logg.Error(context.Background(), "failed to create delivery proof service", err)
		os.Exit(1)
	}

	lotsSvc, err := lots.NewService(lots.NewRepository(gormDB), dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create lots service", err)
		os.Exit(1)
	}

	financeSvc, err := finance.NewService(gormDB, finance.NewRepository(gormDB), outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create finance service", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repo:       orders.NewRepository(gormDB),
		Tx:         dbClient,
		Outbox:     outboxSvc,
		Compliance: complianceSvc,
		Disclosure: disclosureSvc,
		Proof:      proofSvc,
		Allocator:  lotsSvc,
		Finance:    financeSvc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	disputesSvc, err := disputes.NewService(disputes.NewRepository(gormDB), dbClient, outboxSvc, financeSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create disputes service", err)
		os.Exit(1)
	}

	providerClient := payprovider.NewClient(cfg.Payments, logg)
	paymentsSvc, err := payments.NewService(gormDB, payments.NewRepository(gormDB), dbClient, outboxSvc, ordersSvc, providerClient, cfg.Payments)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, routes.Services{
			Orders:        ordersSvc,
			Payments:      paymentsSvc,
			Lots:          lotsSvc,
			Compliance:    complianceSvc,
			Disclosures:   disclosureSvc,
			DeliveryProof: proofSvc,
			Finance:       financeSvc,
			Disputes:      disputesSvc,
		}, dlqRepo),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	}()

	<-stop
	logg.Info(ctx, "shutting down api server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
	}
}
