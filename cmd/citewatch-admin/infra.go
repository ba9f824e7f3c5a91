package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/onco-dash/citewatch/internal/bootstrap"
)

var errRedisDisabled = errors.New("redis is not enabled (set REDIS_ENABLED=true)")

func withDatabase(
	cmdCtx *commandContext,
	timeout time.Duration,
	f func(context.Context, *sql.DB) error,
) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		Context:  ctx,
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", cerr)
		}
	}()

	return f(ctx, db)
}

// maybeConnectRedis returns nil when Redis is disabled.
//
//nolint:ireturn,nilnil // nil client means Redis is disabled.
func maybeConnectRedis(cmdCtx *commandContext) (redis.UniversalClient, error) {
	if !cmdCtx.Config.Redis.Enabled {
		return nil, nil
	}
	client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		Context:     cmdCtx.Ctx,
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

func closeRedis(cmdCtx *commandContext, client redis.UniversalClient) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		cmdCtx.Logger.Warn("redis close failed", "error", err)
	}
}

func guardRemoteHost(cmdCtx *commandContext, allow bool) error {
	if !isLikelyRemoteHost(cmdCtx.Config.Postgres.Host) || allow {
		return nil
	}
	return fmt.Errorf(
		"refusing to run against potentially remote database host %q; re-run with --allow-remote if this is intentional",
		cmdCtx.Config.Postgres.Host,
	)
}

func isLikelyRemoteHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "" {
		return false
	}
	if h == "localhost" || h == "127.0.0.1" || h == "::1" {
		return false
	}
	if strings.HasSuffix(h, ".local") {
		return false
	}
	if ip := net.ParseIP(h); ip != nil {
		return !ip.IsLoopback()
	}
	return true
}
