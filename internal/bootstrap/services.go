package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/onco-dash/citewatch/config"
	"github.com/onco-dash/citewatch/internal/adapters/prober"
	"github.com/onco-dash/citewatch/internal/core"
	"github.com/onco-dash/citewatch/internal/data"
	"github.com/onco-dash/citewatch/internal/observability/notify/slack"
	"github.com/onco-dash/citewatch/internal/observability/statsd"
	"github.com/onco-dash/citewatch/internal/service"
	"github.com/onco-dash/citewatch/internal/service/failurenotifier"
)

// runLockGrace is added to the run timeout to form the lock TTL.
const runLockGrace = time.Minute

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Freshness     *service.FreshnessService
	Query         *service.FreshnessQueryService
	RunLock       *core.RunLock // nil when Redis is disabled
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink     *statsd.Client
	MetricsConfig   config.ObservabilityMetricsConfig
	FailureNotifier *failurenotifier.Service
	NotifierConfig  config.ObservabilityNotificationsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient // Optional
	Logger      *slog.Logger
	// Prober overrides the HTTP prober (tests).
	Prober core.Prober
}

// serviceRepositories groups data adapters backing service ports; no business rules here.
type serviceRepositories struct {
	Evidence *data.EvidenceRepo
	Statuses *data.FreshnessStatusRepo
	Runs     *data.FreshnessRunRepo
}

// buildObservability configures metrics and notification adapters.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig, freshness config.FreshnessConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  "citewatch",
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:     metricsSink,
		MetricsConfig:   cfg.Metrics,
		FailureNotifier: buildFailureNotifier(obsLogger, cfg.Notifications, !freshness.NotifyOnStale),
		NotifierConfig:  cfg.Notifications,
	}
}

func buildFailureNotifier(
	logger *slog.Logger,
	cfg config.ObservabilityNotificationsConfig,
	skipStale bool,
) *failurenotifier.Service {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	if !cfg.Enabled {
		return failurenotifier.NewService(failurenotifier.Options{
			Logger: baseLogger.With("component", "failure_notifier"),
		})
	}

	sinks := make([]failurenotifier.SinkRegistration, 0, 1)

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL:      cfg.Slack.WebhookURL,
			Channel:         cfg.Slack.Channel,
			Username:        cfg.Slack.Username,
			Timeout:         cfg.Timeout,
			RetryLimit:      cfg.RetryLimit,
			StatusURLPrefix: cfg.Slack.StatusURLPrefix,
		})
		if err != nil {
			baseLogger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{
				Name: "slack",
				Sink: client,
			})
		}
	}

	return failurenotifier.NewService(failurenotifier.Options{
		Logger:    baseLogger.With("component", "failure_notifier"),
		Sinks:     sinks,
		SkipStale: skipStale,
	})
}

func buildRepositories(db *sql.DB, cfg config.FreshnessConfig, logger *slog.Logger) (*serviceRepositories, error) {
	evidence, err := data.NewEvidenceRepo(db, data.EvidenceRepoOptions{
		CitationsPath:   cfg.CitationsPath,
		CitationURLPath: cfg.CitationURLPath,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("evidence repository: %w", err)
	}
	return &serviceRepositories{
		Evidence: evidence,
		Statuses: data.NewFreshnessStatusRepo(db),
		Runs:     data.NewFreshnessRunRepo(db),
	}, nil
}

// NewRunLock builds the cross-replica run lock, or nil when no Redis client is configured.
//
//nolint:nilnil // a nil lock means runs are only serialized per process.
func NewRunLock(rdb redis.UniversalClient, cfg config.FreshnessConfig) (*core.RunLock, error) {
	if rdb == nil {
		return nil, nil
	}
	cfg.Sanitize()
	return core.NewRunLock(core.RunLockOptions{
		Repo: data.NewRedisLockRepo(rdb),
		TTL:  cfg.RunTimeout + runLockGrace,
	})
}

func newProber(cfg config.ProbeConfig, logger *slog.Logger, metrics statsd.Sink) *prober.HTTPProber {
	return prober.New(prober.Options{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UserAgent:    cfg.UserAgent,
		GetFallback:  cfg.GetFallback,
		Logger:       logger,
		Metrics:      metrics,
	})
}

// NewServices wires repositories, adapters and services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	if deps.DB == nil {
		return ServiceContainer{}, errors.New("database is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	observability := buildObservability(logger, cfg.Observability, cfg.Freshness)
	var metrics statsd.Sink
	if observability.MetricsSink != nil {
		metrics = observability.MetricsSink
	}

	repos, err := buildRepositories(deps.DB, cfg.Freshness, deps.Logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	lock, err := NewRunLock(deps.RedisClient, cfg.Freshness)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("run lock: %w", err)
	}
	if lock == nil {
		logger.Warn("redis disabled; overlapping freshness runs are not prevented across replicas")
	}

	probe := deps.Prober
	if probe == nil {
		probe = newProber(cfg.Freshness.Probe, logger, metrics)
	}

	freshness, err := service.NewFreshnessService(service.FreshnessServiceOptions{
		Evidence: repos.Evidence,
		Statuses: repos.Statuses,
		Prober:   probe,
		Runs:     repos.Runs,
		Lock:     lock,
		Notifier: observability.FailureNotifier,
		Config:   cfg.Freshness,
		Logger:   logger,
		Metrics:  metrics,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("freshness service: %w", err)
	}

	query, err := service.NewFreshnessQueryService(service.FreshnessQueryServiceOptions{
		Statuses: repos.Statuses,
		Runs:     repos.Runs,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("freshness query service: %w", err)
	}

	return ServiceContainer{
		Freshness:     freshness,
		Query:         query,
		RunLock:       lock,
		Observability: observability,
	}, nil
}
