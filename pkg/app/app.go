// Package app wires configuration, storage, services and the HTTP server
// into one process and runs its goroutines until a signal arrives.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/filevault/pkg/api"
	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/events"
	"github.com/yeisme/filevault/pkg/internal/jobs"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/storage"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/metrics"
	"github.com/yeisme/filevault/pkg/scheduler"
	"github.com/yeisme/filevault/pkg/tracing"
)

// App is a fully initialized server process.
type App struct {
	Engine *gin.Engine

	config    *configs.AppConfig
	metrics   *metrics.Metrics
	storage   *storage.Manager
	scheduler *scheduler.Scheduler
	consumer  *events.Consumer
	logger    *zerolog.Logger
}

// New loads the configuration at configPath and initializes every
// component. Anything opened before a failure is closed again.
func New(ctx context.Context, configPath string) (*App, error) {
	if err := configs.InitConfig(configPath); err != nil {
		return nil, fmt.Errorf("init config: %w", err)
	}

	cfg := configs.GetConfig()

	log.InitWith(cfg.Log, cfg.Server.Debug)
	l := log.Logger()

	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	if err := tracing.InitTracer(cfg.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	m := metrics.New(cfg.Metrics)

	var registry prometheus.Registerer
	if cfg.Metrics.Enabled {
		registry = m.Registry
	}

	mgr, err := storage.Init(ctx, cfg, registry)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	a := &App{config: cfg, metrics: m, storage: mgr, logger: l}

	if err := a.init(ctx, registry); err != nil {
		_ = a.close(ctx)
		return nil, err
	}

	return a, nil
}

func (a *App) init(ctx context.Context, registry prometheus.Registerer) error {
	cfg := a.config

	if cfg.Server.AutoMigrate {
		if err := a.storage.DB.Migrate(ctx, model.All()...); err != nil {
			return err
		}
	}

	services := api.NewServices(cfg, a.storage, a.metrics)

	sched, err := scheduler.NewScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	a.scheduler = sched

	if err := jobs.RegisterCronJobs(ctx, sched, cfg.Jobs, services.Cleaner); err != nil {
		return fmt.Errorf("register jobs: %w", err)
	}

	if cfg.Events.Enabled && cfg.Events.Consumer {
		consumer, err := events.NewConsumer(a.storage.MQ, a.metrics, registry)
		if err != nil {
			return fmt.Errorf("init events consumer: %w", err)
		}

		a.consumer = consumer
	}

	a.Engine = api.NewEngine(api.Options{
		Config:    cfg,
		Storage:   a.storage,
		Services:  services,
		Metrics:   a.metrics,
		Scheduler: sched,
	})

	return nil
}

// Run serves until ctx is cancelled, SIGINT or SIGTERM arrives, or a
// component fails; then it shuts everything down.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := a.config
	g, gctx := errgroup.WithContext(ctx)

	servers := []*http.Server{{
		Addr:              cfg.Server.Addr(),
		Handler:           a.Engine,
		ReadHeaderTimeout: cfg.Server.GetTimeoutDuration(),
		WriteTimeout:      0, // downloads stream for as long as they need
	}}

	if cfg.Metrics.Enabled && cfg.Metrics.Endpoint != "" {
		me := gin.New()
		a.metrics.Mount(me)
		servers = append(servers, &http.Server{Addr: cfg.Metrics.Endpoint, Handler: me, ReadHeaderTimeout: 5 * time.Second})
	}

	for _, srv := range servers {
		g.Go(func() error {
			a.logger.Info().Str("addr", srv.Addr).Msg("http server listening")

			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", srv.Addr, err)
			}

			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GetShutdownTimeout())
		defer cancel()

		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(shutdownCtx))
		}

		return errors.Join(errs...)
	})

	if a.consumer != nil {
		g.Go(func() error {
			if err := a.consumer.Run(gctx); err != nil {
				return fmt.Errorf("events consumer: %w", err)
			}

			return nil
		})
	}

	a.scheduler.Start()

	err := g.Wait()

	a.logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GetShutdownTimeout())
	defer cancel()

	return errors.Join(err, a.close(shutdownCtx))
}

func (a *App) close(ctx context.Context) error {
	var errs []error

	if a.scheduler != nil {
		errs = append(errs, a.scheduler.Stop())
	}

	if a.consumer != nil {
		errs = append(errs, a.consumer.Close())
	}

	errs = append(errs, tracing.ShutdownTracer(ctx))

	if a.storage != nil {
		errs = append(errs, a.storage.Close())
	}

	return errors.Join(errs...)
}
