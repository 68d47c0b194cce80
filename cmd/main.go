package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/eaglebank/user-crud/internal/cache"
	"github.com/eaglebank/user-crud/internal/command"
	"github.com/eaglebank/user-crud/internal/config"
	"github.com/eaglebank/user-crud/internal/events"
	"github.com/eaglebank/user-crud/internal/handler"
	"github.com/eaglebank/user-crud/internal/logger"
	"github.com/eaglebank/user-crud/internal/middleware"
	"github.com/eaglebank/user-crud/internal/models"
	"github.com/eaglebank/user-crud/internal/query"
	"github.com/eaglebank/user-crud/internal/repository"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load(getEnv("CONFIG_FILE", "config.yaml"))
	logger.Configure(cfg.Log.Level, cfg.Log.Format)
	log := logger.Log.WithFields(logrus.Fields{"func": "main"})
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Store.Driver, err)
	}
	defer closeStore()
	log.Infof("Using %s user store", cfg.Store.Driver)

	// Redis (view cache + event stream) is optional.
	var viewCache *cache.ViewCache[models.UserView]
	var publisher command.EventPublisher = events.NopPublisher{}
	if cfg.Redis.Addr != "" {
		redis, err := cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redis.Close()
		viewCache = cache.NewViewCache[models.UserView](redis.Client, "user-view-cache", cfg.Redis.CacheTTL)
		publisher = events.NewPublisher(redis.Client)
	}

	readRepo := repository.NewUserReadRepository(store, viewCache)
	commandSvc := command.NewUserCommandService(store, readRepo, publisher, cfg.Security.BcryptCost)
	querySvc := query.NewUserQueryService(readRepo)
	userHandler := handler.NewUserHandler(commandSvc, querySvc)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           newRouter(cfg.Server.Mode, userHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("User service starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Errorf("Server stopped: %v", err)
	}
}

func newRouter(mode string, userHandler *handler.UserHandler) *gin.Engine {
	gin.SetMode(mode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware(), middleware.CORSMiddleware())

	userHandler.RegisterRoutes(router.Group("/users"))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

// openStore builds the configured persistence collaborator and returns a
// function releasing its resources.
func openStore(ctx context.Context, cfg config.Store) (repository.UserStore, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		store := repository.NewPostgresUserStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() { db.Close() }, nil

	case config.DriverGormPostgres, config.DriverGormMySQL:
		db, err := repository.OpenGorm(strings.TrimPrefix(cfg.Driver, "gorm-"), cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return repository.NewGormUserStore(db), func() { sqlDB.Close() }, nil

	default:
		return repository.NewMemoryUserStore(), func() {}, nil
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
