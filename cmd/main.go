package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrEvil84/BlueStorage/config"
	"github.com/mrEvil84/BlueStorage/internal/cache"
	"github.com/mrEvil84/BlueStorage/internal/delivery"
	"github.com/mrEvil84/BlueStorage/internal/domain"
	"github.com/mrEvil84/BlueStorage/internal/repository"
	"github.com/mrEvil84/BlueStorage/internal/usecase"
	"github.com/mrEvil84/BlueStorage/pkg/db"
)

type store interface {
	domain.ProductRepository
	Migrate(ctx context.Context) error
}

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.LoadConfig(logger)
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if level := logger.GetLevel(); level < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Starting BlueStorage...")
	ctx := context.Background()

	// --- Store ---
	repo, closeStore := openStore(ctx, cfg, logger)
	if err := repo.Migrate(ctx); err != nil {
		logger.Fatalf("Failed to migrate products table: %v", err)
	}
	logger.Infof("Store initialized (%s).", cfg.StoreDriver)

	// --- Search cache ---
	var searchCache *cache.SearchCache
	if cfg.RedisAddr != "" {
		c, err := cache.Connect(ctx, cache.Config{Addr: cfg.RedisAddr, Prefix: cfg.CachePrefix, TTL: cfg.CacheTTL}, logger)
		if err != nil {
			logger.Warnf("Search cache disabled: %v", err)
		} else {
			searchCache = c
			logger.Infof("Search cache connected at %s", cfg.RedisAddr)
		}
	}

	// --- Dependency Injection ---
	var productUseCase usecase.ProductUseCase
	if searchCache != nil {
		productUseCase = usecase.NewProductUseCase(repo, searchCache, logger)
	} else {
		productUseCase = usecase.NewProductUseCase(repo, nil, logger)
	}

	productHandler := delivery.NewProductHandler(productUseCase, domain.NewQueryFactory(cfg.MinAmount, cfg.MaxPerPage), logger)
	systemHandler := delivery.NewSystemHandler(productUseCase, cfg.StoreTimeout, logger)
	if searchCache != nil {
		systemHandler.WithCacheStats(searchCache)
	}
	logger.Info("Handlers initialized.")

	router := gin.New()
	router.Use(
		delivery.Recovery(logger),
		delivery.RequestID(),
		delivery.RequestLogger(logger),
		delivery.StoreTimeout(cfg.StoreTimeout),
	)
	systemHandler.RegisterRoutes(router)
	productHandler.RegisterRoutes(router)
	logger.Info("API Routes registered.")

	server := &http.Server{
		Addr:    cfg.HTTPPort,
		Handler: router,
	}
	go func() {
		logger.Infof("Starting server on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// One operation so the server drains before the store and cache close.
	wait := gfshutdown.GracefulShutdown(ctx, cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		"bluestorage": func(ctx context.Context) error {
			logger.Info("Graceful shutdown initiated...")
			var errs []error
			if err := server.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("http server: %w", err))
			}
			if searchCache != nil {
				stats := searchCache.Stats()
				logger.Infof("Search cache stats: hits=%d misses=%d errors=%d invalidations=%d",
					stats.Hits, stats.Misses, stats.Errors, stats.Invalidations)
				if err := searchCache.Close(); err != nil {
					errs = append(errs, fmt.Errorf("search cache: %w", err))
				}
			}
			if err := closeStore(); err != nil {
				errs = append(errs, fmt.Errorf("store: %w", err))
			}
			return errors.Join(errs...)
		},
	})

	exitCode := <-wait
	logger.Infof("BlueStorage exited with code %d", exitCode)
	os.Exit(exitCode)
}

func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (store, func() error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		gdb, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			logger.Fatalf("FATAL: Failed to open sqlite database: %v", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			logger.Fatalf("FATAL: Failed to access sqlite connection pool: %v", err)
		}
		return repository.NewGormProductRepository(gdb, logger), sqlDB.Close
	default:
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("FATAL: Failed to connect to database: %v", err)
		}
		logger.Info("Database connection established.")
		return repository.NewPostgresProductRepository(database, logger), database.Close
	}
}
