package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/trackmap/trackmap-engine/pkg/config"
	"github.com/trackmap/trackmap-engine/pkg/database"
	"github.com/trackmap/trackmap-engine/pkg/handlers"
	"github.com/trackmap/trackmap-engine/pkg/middleware"
	"github.com/trackmap/trackmap-engine/pkg/repositories"
	"github.com/trackmap/trackmap-engine/pkg/retry"
	"github.com/trackmap/trackmap-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("database", cfg.Database.User+"@"+cfg.Database.Host+"/"+cfg.Database.Database),
		zap.String("classifier_policy", cfg.Classifier.Policy))

	classifier, err := cfg.Classifier.Build()
	if err != nil {
		return err
	}

	db, err := database.Connect(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
		MinConnections: cfg.Database.MaxIdleConns,
	}, retry.DefaultConfig(), logger)
	if err != nil {
		return err
	}
	defer db.Close()

	// RunMigrations closes the connection it was given; the pool stays open.
	if err := database.RunMigrations(stdlib.OpenDBFromPool(db.Pool), logger); err != nil {
		return err
	}

	productRepo := repositories.NewProductRepository()
	pageRepo := repositories.NewPageRepository()
	eventRepo := repositories.NewEventRepository()
	suggestedValueRepo := repositories.NewSuggestedValueRepository()

	productService := services.NewProductService(productRepo, logger)
	pageService := services.NewPageService(pageRepo, logger)
	eventService := services.NewEventService(eventRepo, pageRepo, logger)
	suggestedValueService := services.NewSuggestedValueService(suggestedValueRepo, classifier, logger)

	productMiddleware := database.WithProductContext(db, logger)
	globalMiddleware := database.WithGlobalContext(db, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	handlers.NewProductHandler(productService, pageService, logger).RegisterRoutes(mux, globalMiddleware, productMiddleware)
	handlers.NewEventHandler(eventService, pageService, logger).RegisterRoutes(mux, productMiddleware)
	handlers.NewSuggestedValueHandler(suggestedValueService, logger).RegisterRoutes(mux, productMiddleware)

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           middleware.Recover(logger)(middleware.RequestLogger(logger)(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting trackmap-engine",
			zap.String("addr", srv.Addr),
			zap.String("version", cfg.Version),
			zap.Bool("tls", cfg.TLSCertPath != ""))

		var err error
		if cfg.TLSCertPath != "" {
			err = srv.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
