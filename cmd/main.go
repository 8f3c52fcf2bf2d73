package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Kosench/qlink/internal/cache"
	"github.com/Kosench/qlink/internal/config"
	"github.com/Kosench/qlink/internal/database"
	"github.com/Kosench/qlink/internal/handler"
	"github.com/Kosench/qlink/internal/logger"
	"github.com/Kosench/qlink/internal/repository"
	"github.com/Kosench/qlink/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const serviceVersion = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Error("failed to connect database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	log.Info("database ready", "driver", db.DriverName())

	linkCache := newCache(cfg, log)
	defer linkCache.Close()

	var linkRepo repository.LinkRepository = repository.NewSQLLinkRepository(db)
	if linkCache.Name() != config.CacheNone {
		linkRepo = repository.NewCachedLinkRepository(linkRepo, linkCache, log)
	}

	linkService := service.NewLinkService(linkRepo, service.Options{
		ShortCodeLength:  cfg.App.ShortCodeLength,
		ManageCodeLength: cfg.App.ManageCodeLength,
		MaxRetries:       cfg.App.MaxRetries,
		OpenDelete:       cfg.App.OpenDelete,
	}, log)
	linkHandler := handler.NewLinkHandler(linkService, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(handler.RequestLogger(log), gin.Recovery())

	if origins := cfg.GetAllowedOrigins(); len(origins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", handler.RequestIDHeader},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	} else {
		log.Warn("CORS disabled: app.allowed_origins is empty in production")
	}

	registerPages(router, cfg.App.StaticDir, log)

	router.GET("/health", func(c *gin.Context) {
		ctx := c.Request.Context()
		services := gin.H{}
		status := "healthy"

		if err := db.HealthCheck(ctx); err != nil {
			log.WarnContext(ctx, "database health check failed", "error", err)
			services["database"] = "unhealthy"
			status = "degraded"
		} else {
			services["database"] = "healthy"
		}

		switch err := linkCache.HealthCheck(ctx); {
		case linkCache.Name() == config.CacheNone:
			services["cache"] = "disabled"
		case err != nil:
			log.WarnContext(ctx, "cache health check failed", "error", err)
			services["cache"] = "unhealthy"
			status = "degraded"
		default:
			services["cache"] = "healthy"
		}

		statusCode := http.StatusOK
		if status == "degraded" {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, gin.H{"status": status, "services": services})
	})

	router.GET("/info", func(c *gin.Context) {
		version, err := db.GetVersion(c.Request.Context())
		if err != nil {
			version = "unknown"
		}
		c.JSON(http.StatusOK, gin.H{
			"service":          "qlink",
			"version":          serviceVersion,
			"database_driver":  db.DriverName(),
			"database_version": version,
			"cache_driver":     linkCache.Name(),
		})
	})

	linkHandler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info("server starting", "addr", srv.Addr, "environment", cfg.App.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		return
	}

	log.Info("server stopped")
}

// newCache выбирает кэш по cache.driver. Если Redis недоступен, работаем
// с кэшем в памяти.
func newCache(cfg *config.Config, log *slog.Logger) cache.Cache {
	switch cfg.Cache.Driver {
	case config.CacheRedis:
		redisClient, err := cache.NewRedisClient(context.Background(), cache.RedisConfig{
			Addr:         cfg.RedisAddress(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			TTL:          cfg.Cache.TTL,
		})
		if err != nil {
			log.Warn("redis unavailable, falling back to in-memory cache", "addr", cfg.RedisAddress(), "error", err)
			return cache.NewLRUCache(cfg.Cache.Size, cfg.Cache.TTL)
		}
		log.Info("cache ready", "driver", redisClient.Name(), "addr", cfg.RedisAddress())
		return redisClient
	case config.CacheMemory:
		log.Info("cache ready", "driver", config.CacheMemory, "size", cfg.Cache.Size)
		return cache.NewLRUCache(cfg.Cache.Size, cfg.Cache.TTL)
	default:
		return cache.NewNullCache()
	}
}

// registerPages отдает index.html и links.html, если они есть в dir
func registerPages(router *gin.Engine, dir string, log *slog.Logger) {
	pages := map[string]string{
		"/":      "index.html",
		"/links": "links.html",
	}

	for route, name := range pages {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			log.Debug("page not found, route not registered", "route", route, "path", path)
			continue
		}
		router.StaticFile(route, path)
	}
}
