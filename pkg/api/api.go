// Package api assembles the gin engine: middleware, routes and the services
// behind them.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/cache"
	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/handle"
	"github.com/yeisme/filevault/pkg/internal/jobs"
	"github.com/yeisme/filevault/pkg/internal/record"
	"github.com/yeisme/filevault/pkg/internal/router"
	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/internal/storage"
	"github.com/yeisme/filevault/pkg/internal/types"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/metrics"
	"github.com/yeisme/filevault/pkg/middleware"
	"github.com/yeisme/filevault/pkg/rule"
	"github.com/yeisme/filevault/pkg/scheduler"
)

// Services are the domain services shared by the handlers and the jobs.
type Services struct {
	Files   *service.FileService
	Auth    *service.AuthService
	Cleaner *jobs.OrphanCleaner
}

// NewServices builds the services on top of an initialized storage manager.
func NewServices(cfg *configs.AppConfig, mgr *storage.Manager, m *metrics.Metrics) *Services {
	gdb := mgr.GetDBClient().DB
	records := record.NewStore(gdb)

	var listCache *cache.Cache
	if kvc := mgr.GetKVClient(); kvc != nil {
		listCache = cache.NewCache(kvc)
	}

	files := service.NewFileService(service.FileDeps{
		Records: records,
		Blobs:   mgr.GetBlobStore(),
		Cache:   listCache,
		Metrics: m,
		Files:   cfg.Files,
		Events:  cfg.Events,
	})

	auth := service.NewAuthService(service.AuthDeps{
		Users: record.NewUsers(gdb),
		KV:    mgr.GetKVClient(),
		Auth:  cfg.Auth,
	})

	cleaner := &jobs.OrphanCleaner{
		Records: records,
		Blobs:   mgr.GetBlobStore(),
		Metrics: m,
		Grace:   cfg.Jobs.Orphan.Grace,
		Publish: cfg.Events.Enabled && cfg.Events.File.OrphanRemoved,
		Logger:  log.Logger(),
	}

	if mqc := mgr.GetMQClient(); mqc != nil {
		files.Publisher = mqc.Publisher()
		cleaner.Publisher = mqc.Publisher()
	}

	return &Services{Files: files, Auth: auth, Cleaner: cleaner}
}

// Options are the collaborators of NewEngine. Metrics and Scheduler may be
// nil.
type Options struct {
	Config    *configs.AppConfig
	Storage   *storage.Manager
	Services  *Services
	Metrics   *metrics.Metrics
	Scheduler *scheduler.Scheduler
}

// NewEngine returns the configured gin engine.
func NewEngine(opts Options) *gin.Engine {
	// Request binding validates with the rule tag; this must run before the
	// first bind.
	rule.Engine()

	cfg := opts.Config

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	engine.Use(
		middleware.RecoveryMiddleware(),
		middleware.GinLoggerMiddleware(),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(opts.Metrics),
		middleware.CORSMiddleware(cfg.CORS, cfg.Server.Debug),
		middleware.RateLimitMiddleware(cfg.RateLimit),
		middleware.CircuitBreakerMiddleware(cfg.CircuitBreaker),
		middleware.StorageMiddleware(opts.Storage),
	)

	if opts.Scheduler != nil {
		engine.Use(middleware.SchedulerMiddleware(opts.Scheduler))
	}

	if opts.Metrics != nil && cfg.Metrics.Enabled && cfg.Metrics.Endpoint == "" {
		opts.Metrics.Mount(engine)
	}

	router.RegisterHealthCheckRoute(engine)
	router.RegisterSwaggerRoute(engine, cfg.Server)

	apiGroup := engine.Group("/api", middleware.AuthMiddleware(opts.Services.Auth, cfg.Auth))
	{
		router.RegisterFilesRoutes(apiGroup, handle.NewFileHandlers(opts.Services.Files))
		router.RegisterAuthRoutes(apiGroup, handle.NewAuthHandlers(opts.Services.Auth, cfg.Auth))
		router.RegisterSchedulerRoutes(apiGroup)
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, types.Fail(types.CodeNotFound, "route not found"))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, types.Fail(types.CodeValidation, "method not allowed"))
	})

	return engine
}
