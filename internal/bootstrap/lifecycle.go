package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/onco-dash/citewatch/config"
	"github.com/onco-dash/citewatch/internal/adapters/scheduler"
	"github.com/onco-dash/citewatch/internal/observability/statsd"
)

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// SchedulerConfig contains dependencies for the in-process scheduler.
type SchedulerConfig struct {
	Job     scheduler.FreshnessJob
	Config  config.SchedulerConfig
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// RunScheduler triggers freshness runs on the configured interval until ctx is cancelled.
func RunScheduler(ctx context.Context, cfg SchedulerConfig) error {
	runner, err := scheduler.NewRunner(scheduler.RunnerOptions{
		Job:        cfg.Job,
		Interval:   cfg.Config.Interval,
		RunOnStart: cfg.Config.RunOnStart,
		Logger:     cfg.Logger,
		Metrics:    cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create scheduler runner: %w", err)
	}
	return runner.Run(ctx)
}

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error", "service", descriptor.name, "error", errMsg)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

func newSchedulerBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeScheduler,
		name: "scheduler",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil || deps.cfg.Services.Freshness == nil {
				return errors.New("freshness service is not configured")
			}
			var schedulerCfg config.SchedulerConfig
			if deps.cfg.Config != nil {
				schedulerCfg = deps.cfg.Config.Scheduler
			}
			var metrics statsd.Sink
			if sink := deps.cfg.Services.Observability.MetricsSink; sink != nil {
				metrics = sink
			}
			return RunScheduler(ctx, SchedulerConfig{
				Job:     deps.cfg.Services.Freshness,
				Config:  schedulerCfg,
				Logger:  deps.logger,
				Metrics: metrics,
			})
		},
	}
}

func startBackgroundServices(deps *serviceStartupDeps) []backgroundServiceHandle {
	services := []backgroundService{newSchedulerBackgroundService(deps)}
	handles := make([]backgroundServiceHandle, 0, len(services))
	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}
		handles = append(handles, backgroundServiceHandle{mode: svc.mode, name: svc.name, done: done})
	}
	return handles
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	var server *http.Server
	if enabledServices[config.ServiceModeHTTP] {
		server, err = StartHTTPServer(serviceCtx, &HTTPServerConfig{
			Config:      cfg.Config,
			Services:    cfg.Services,
			DB:          cfg.DB,
			RedisClient: cfg.RedisClient,
			Logger:      logger,
		})
		if err != nil {
			return fmt.Errorf("start http server: %w", err)
		}
	}

	backgrounds := startBackgroundServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})

	return waitForShutdown(shutdownConfig{
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  server,
		logger:      logger,
		backgrounds: backgrounds,
	})
}

func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	return errorChannelCapacity(enabled) + 1
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	// The service context is already cancelled; in-flight requests get their own budget.
	if err := ShutdownHTTPServer(ShutdownConfig{
		Context: context.Background(),
		Server:  cfg.httpServer,
		Logger:  cfg.logger,
	}); err != nil {
		return err
	}

	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
