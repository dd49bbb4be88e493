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
	"go.uber.org/multierr"

	"github.com/angelmondragon/invoicedesk/api/controllers"
	"github.com/angelmondragon/invoicedesk/api/routes"
	"github.com/angelmondragon/invoicedesk/internal/auth"
	"github.com/angelmondragon/invoicedesk/internal/catalog"
	"github.com/angelmondragon/invoicedesk/internal/dashboard"
	"github.com/angelmondragon/invoicedesk/internal/invoices"
	"github.com/angelmondragon/invoicedesk/internal/receipts"
	"github.com/angelmondragon/invoicedesk/internal/session"
	"github.com/angelmondragon/invoicedesk/internal/workspace"
	"github.com/angelmondragon/invoicedesk/pkg/config"
	"github.com/angelmondragon/invoicedesk/pkg/db"
	"github.com/angelmondragon/invoicedesk/pkg/inventoryapi"
	"github.com/angelmondragon/invoicedesk/pkg/logger"
	"github.com/angelmondragon/invoicedesk/pkg/metrics"
	"github.com/angelmondragon/invoicedesk/pkg/migrate"
	"github.com/angelmondragon/invoicedesk/pkg/redis"
)

const shutdownTimeout = 20 * time.Second

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
		Terminal:    cfg.App.Terminal,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	backendMetrics := metrics.NewBackendMetrics(registry)
	submissionMetrics := metrics.NewSubmissionMetrics(registry)

	api, err := inventoryapi.NewClient(cfg.Backend.BaseURL,
		inventoryapi.WithTimeout(cfg.Backend.RequestTimeout),
		inventoryapi.WithObserver(backendMetrics),
	)
	requireResource(ctx, logg, "inventory api client", err)

	loader, err := catalog.NewLoader(api, cfg.Backend.MaxCatalogPage, logg)
	requireResource(ctx, logg, "catalog loader", err)

	workspaces, err := workspace.NewRegistry(loader, logg)
	requireResource(ctx, logg, "workspace registry", err)

	sessionStore, err := session.NewStore(redisClient, cfg.Session)
	requireResource(ctx, logg, "session store", err)

	sessionManager, err := session.NewManager(sessionStore, cfg.JWT)
	requireResource(ctx, logg, "session manager", err)

	archive, err := receipts.NewArchive(receipts.NewRepository(dbClient.DB()), logg)
	requireResource(ctx, logg, "receipt archive", err)

	invoiceService, err := invoices.NewService(api, archive, submissionMetrics, logg, invoices.Options{
		Terminal:       cfg.App.Terminal,
		SubmitTimeout:  cfg.Backend.SubmitTimeout,
		MaxClientPages: cfg.Backend.MaxCatalogPage,
	})
	requireResource(ctx, logg, "invoice service", err)

	dashboardService, err := dashboard.NewService(api, logg)
	requireResource(ctx, logg, "dashboard service", err)

	authService, err := auth.NewService(api, sessionStore, sessionManager, workspaces, logg)
	requireResource(ctx, logg, "auth service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"terminal": cfg.App.Terminal,
	})

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(cfg, logg, redisClient, registry,
			map[string]controllers.Pinger{"database": dbClient, "redis": redisClient},
			routes.Services{
				Auth:       authService,
				Sessions:   sessionManager,
				Workspaces: workspaces,
				Invoices:   invoiceService,
				Receipts:   archive,
				Dashboard:  dashboardService,
				Directory:  api,
			}),
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var closeErr error
	closeErr = multierr.Append(closeErr, server.Shutdown(shutdownCtx))
	closeErr = multierr.Append(closeErr, redisClient.Close())
	closeErr = multierr.Append(closeErr, dbClient.Close())
	if closeErr != nil {
		logg.Error(ctx, "shutdown finished with errors", closeErr)
		exitCode = 1
	} else {
		logg.Info(ctx, "api server stopped")
	}

	stop()
	os.Exit(exitCode)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
