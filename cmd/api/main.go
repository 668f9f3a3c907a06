package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "musicsocial/api/swagger" // swagger docs
	"musicsocial/internal/auth"
	"musicsocial/internal/cache"
	"musicsocial/internal/config"
	"musicsocial/internal/database"
	"musicsocial/internal/handler"
	"musicsocial/internal/logger"
	"musicsocial/internal/metrics"
	"musicsocial/internal/middleware"
	"musicsocial/internal/repository"
	"musicsocial/internal/service"
	"musicsocial/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// @title           Music Social API
// @version         1.0
// @description     Roles, permissions and the artist approval workflow of the music social platform.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load("configs/.env")
	if err != nil {
		logger.Global().Fatal("invalid configuration", logger.Fields(logger.FieldError, err.Error()))
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logger.SetGlobal(log)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(ctx, cfg.DB.DSN(), database.Options{
		SlowQueryThreshold: cfg.DB.SlowQueryThreshold,
		Log:                log,
	})
	if err != nil {
		log.Fatal("database connection failed", logger.Fields(logger.FieldError, err.Error()))
	}
	log.Info("connected to PostgreSQL")
	if err := database.Migrate(db); err != nil {
		log.Fatal("migration failed", logger.Fields(logger.FieldError, err.Error()))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	store, closeStore := newCacheStore(ctx, cfg, log)
	defer closeStore()
	permCache := cache.New(store, cache.WithMetrics(m), cache.WithLogger(log.WithComponent("permission-cache")))

	wsHub := websocket.NewHub(log)
	go wsHub.Run(ctx)

	// Set up dependencies (Repository -> Service -> Handler)
	auditService := service.NewAuditService(repository.NewAuditRepository(db),
		service.Options{QueryTimeout: cfg.DB.QueryTimeout, Logger: log})
	opts := service.Options{QueryTimeout: cfg.DB.QueryTimeout, Logger: log, Audit: auditService}
	txManager := repository.NewTransactionManager(db)
	roleRepo := repository.NewRoleRepository(db)
	permRepo := repository.NewPermissionRepository(db)
	rolePermRepo := repository.NewRolePermissionRepository(db)
	userRoleRepo := repository.NewUserRoleRepository(db)
	artistRepo := repository.NewArtistRepository(db)
	userRepo := repository.NewUserRepository(db)

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)
	roleService := service.NewRoleService(roleRepo, permCache, opts)
	permService := service.NewPermissionService(permRepo, permCache, opts)
	rolePermService := service.NewRolePermissionService(roleRepo, permRepo, rolePermRepo, permCache, opts)
	userRoleService := service.NewUserRoleService(roleRepo, userRoleRepo, opts)
	artistService := service.NewArtistService(service.ArtistServiceDeps{
		Artists:   artistRepo,
		Roles:     roleRepo,
		UserRoles: userRoleService,
		Events:    wsHub,
		Metrics:   m,
	}, opts)
	userService := service.NewUserService(service.UserServiceDeps{
		Tx:        txManager,
		Users:     userRepo,
		Roles:     roleRepo,
		UserRoles: userRoleRepo,
		Tokens:    tokens,
	}, opts)

	if cfg.SeedOnStart {
		seeder := service.NewSeedService(txManager, roleRepo, permRepo, rolePermRepo, permCache, opts)
		if _, err := seeder.SeedDefaultRolesAndPermissions(ctx); err != nil {
			log.Fatal("seed failed", logger.Fields(logger.FieldError, err.Error()))
		}
	}

	router := handler.NewRouter(handler.RouterDeps{
		Logger:          log,
		Tokens:          tokens,
		Gate:            middleware.NewGate(rolePermService, m),
		Metrics:         m,
		Hub:             wsHub,
		CORSOrigins:     cfg.CORSOrigins,
		SecureCookie:    cfg.IsProduction(),
		Roles:           roleService,
		Permissions:     permService,
		RolePermissions: rolePermService,
		UserRoles:       userRoleService,
		Artists:         artistService,
		Users:           userService,
		Audit:           auditService,
		Statistics:      service.NewStatisticsService(db, opts),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("server listening", logger.Fields("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", logger.Fields(logger.FieldError, err.Error()))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newCacheStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (cache.Store, func()) {
	if cfg.Cache.Backend != config.CacheBackendRedis {
		return cache.NewMemoryStore(), func() {}
	}
	store, err := cache.NewRedisStore(ctx, cache.RedisOptions{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
		TTL:      cfg.Cache.TTL,
	})
	if err != nil {
		log.Fatal("redis connection failed", logger.Fields(logger.FieldError, err.Error()))
	}
	log.Info("permission cache backed by redis", logger.Fields("addr", cfg.Cache.RedisAddr))
	return store, func() { _ = store.Close() }
}
