package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/onco-dash/citewatch/config"
	"github.com/onco-dash/citewatch/internal/data"
)

const connectTimeout = 5 * time.Second

var (
	errNoSentinelNodes = errors.New("redis sentinel configuration requires at least one sentinel node")
	errNoRedisURI      = errors.New("redis direct configuration requires a URI")
)

// DatabaseConfig contains configuration for database connections.
type DatabaseConfig struct {
	Context     context.Context //nolint:containedctx // bounds the connect-and-ping only
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

func (c DatabaseConfig) pingContext() (context.Context, context.CancelFunc) {
	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, connectTimeout)
}

// ConnectDB opens the pgx-backed pool and verifies it with a ping.
func ConnectDB(cfg DatabaseConfig) (*sql.DB, error) {
	pg := cfg.DBConfig
	db, err := sql.Open("pgx", pg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(pg.MaxOpenConns)
	db.SetMaxIdleConns(pg.MaxIdleConns)
	db.SetConnMaxLifetime(pg.ConnMaxLifetime)

	ctx, cancel := cfg.pingContext()
	defer cancel()
	if pingErr := db.PingContext(ctx); pingErr != nil {
		return nil, closeAfter(fmt.Errorf("ping database: %w", pingErr), db.Close)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("database connected",
			"host", pg.Host,
			"port", pg.Port,
			"database", pg.Name,
			"max_open_conns", pg.MaxOpenConns,
		)
	}
	return db, nil
}

// ConnectRedis connects the run-lock store, either directly or through sentinel.
//
//nolint:ireturn // sentinel and direct clients share redis.UniversalClient.
func ConnectRedis(cfg DatabaseConfig) (redis.UniversalClient, error) {
	newClient := newDirectClient
	if cfg.RedisConfig.UseSentinel {
		newClient = newSentinelClient
	}
	client, addr, err := newClient(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}

	ctx, cancel := cfg.pingContext()
	defer cancel()
	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		return nil, closeAfter(fmt.Errorf("ping redis: %w", pingErr), client.Close)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("redis connected", "addr", redactAddr(addr), "sentinel", cfg.RedisConfig.UseSentinel)
	}
	return client, nil
}

//nolint:ireturn // matches ConnectRedis.
func newSentinelClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	if len(cfg.SentinelNodes) == 0 {
		return nil, "", errNoSentinelNodes
	}
	client := redis.NewFailoverClient(&redis.FailoverOptions{
		MasterName:       cfg.SentinelMasterName,
		SentinelAddrs:    cfg.SentinelNodes,
		Password:         cfg.Password,
		SentinelPassword: cfg.SentinelPassword,
	})
	return client, "sentinel:" + cfg.SentinelMasterName, nil
}

//nolint:ireturn // matches ConnectRedis.
func newDirectClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		return nil, "", errNoRedisURI
	}
	if !isRedisURL(uri) {
		return redis.NewClient(&redis.Options{Addr: uri, Password: cfg.Password}), uri, nil
	}
	opt, err := redis.ParseURL(uri)
	if err != nil {
		return nil, "", fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opt), uri, nil
}

func isRedisURL(value string) bool {
	return strings.HasPrefix(value, "redis://") || strings.HasPrefix(value, "rediss://")
}

// redactAddr strips credentials from a redis URL or user:pass@host string for logging.
func redactAddr(addr string) string {
	if isRedisURL(addr) {
		if u, err := url.Parse(addr); err == nil {
			return u.Host
		}
	}
	if i := strings.LastIndex(addr, "@"); i > -1 {
		return addr[i+1:]
	}
	return addr
}

func closeAfter(err error, closeFn func() error) error {
	if cerr := closeFn(); cerr != nil {
		return errors.Join(err, fmt.Errorf("close after failed connect: %w", cerr))
	}
	return err
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := data.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed")
	}
	return nil
}
