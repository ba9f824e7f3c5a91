package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/onco-dash/citewatch/internal/bootstrap"
	"github.com/onco-dash/citewatch/internal/data"
	"github.com/onco-dash/citewatch/internal/devseed"
	"github.com/onco-dash/citewatch/internal/domain/model"
	"github.com/onco-dash/citewatch/internal/service"
)

type migrateOptions struct {
	Timeout time.Duration
}

type dbSeedOptions struct {
	File        string
	Timeout     time.Duration
	AllowRemote bool
}

type runOnceOptions struct {
	Trigger model.RunTrigger
}

type listOptions struct {
	Limit  int
	Offset int
	JSON   bool
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := newFlagSet("migrate")
	opts := migrateOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "Maximum duration to wait for migrations to complete")
	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func parseDBSeedFlags(args []string) (dbSeedOptions, error) {
	fs := newFlagSet("db-seed")
	opts := dbSeedOptions{}
	fs.StringVar(&opts.File, "file", "", "YAML fixture to load (defaults to the bundled sample records)")
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "Maximum duration to wait for seeding to complete")
	fs.BoolVar(&opts.AllowRemote, "allow-remote", false, "Permit running against database hosts that do not look local")
	if err := fs.Parse(args); err != nil {
		return dbSeedOptions{}, err
	}
	if opts.Timeout <= 0 {
		return dbSeedOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func parseRunOnceFlags(args []string) (runOnceOptions, error) {
	fs := newFlagSet("run-once")
	opts := runOnceOptions{Trigger: model.RunTriggerCLI}
	fs.TextVar(&opts.Trigger, "trigger", model.RunTriggerCLI, "Trigger recorded on the run row (http, scheduler, cli)")
	if err := fs.Parse(args); err != nil {
		return runOnceOptions{}, err
	}
	return opts, nil
}

func parseListFlags(name string, args []string, defLimit int) (listOptions, error) {
	fs := newFlagSet(name)
	opts := listOptions{}
	fs.IntVar(&opts.Limit, "limit", defLimit, "Maximum rows to print")
	fs.IntVar(&opts.Offset, "offset", 0, "Rows to skip")
	fs.BoolVar(&opts.JSON, "json", false, "Print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return listOptions{}, err
	}
	if opts.Limit <= 0 {
		return listOptions{}, errors.New("--limit must be greater than zero")
	}
	if opts.Offset < 0 {
		return listOptions{}, errors.New("--offset must not be negative")
	}
	return opts, nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		cmdCtx.Logger.Info("running database migrations")
		if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
			return migrateErr
		}
		cmdCtx.Logger.Info("migrations completed successfully")
		return nil
	})
}

func runDBSeed(cmdCtx *commandContext, args []string) error {
	opts, err := parseDBSeedFlags(args)
	if err != nil {
		return err
	}
	if guardErr := guardRemoteHost(cmdCtx, opts.AllowRemote); guardErr != nil {
		return guardErr
	}

	fx, err := loadFixture(opts.File)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		cmdCtx.Logger.Info("ensuring database migrations are current")
		if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
			return migrateErr
		}

		repo, repoErr := data.NewEvidenceRepo(db, data.EvidenceRepoOptions{
			CitationsPath:   cmdCtx.Config.Freshness.CitationsPath,
			CitationURLPath: cmdCtx.Config.Freshness.CitationURLPath,
			Logger:          cmdCtx.Logger,
		})
		if repoErr != nil {
			return repoErr
		}

		n, seedErr := devseed.Apply(ctx, repo, fx)
		if seedErr != nil {
			return fmt.Errorf("seed evidence: %w", seedErr)
		}
		cmdCtx.Logger.Info("database seeding completed successfully", "records", n)
		return nil
	})
}

func loadFixture(path string) (*devseed.Fixture, error) {
	if path == "" {
		return devseed.Default()
	}
	return devseed.LoadFile(path)
}

func runOnce(cmdCtx *commandContext, args []string) error {
	opts, err := parseRunOnceFlags(args)
	if err != nil {
		return err
	}

	rdb, err := maybeConnectRedis(cmdCtx)
	if err != nil {
		return err
	}
	defer closeRedis(cmdCtx, rdb)

	// The service enforces FRESHNESS_RUN_TIMEOUT; the outer bound only covers connect and teardown.
	timeout := cmdCtx.Config.Freshness.RunTimeout + time.Minute
	return withDatabase(cmdCtx, timeout, func(ctx context.Context, db *sql.DB) error {
		services, buildErr := bootstrap.NewServices(&bootstrap.ServiceDeps{
			Config:      &cmdCtx.Config,
			DB:          db,
			RedisClient: rdb,
			Logger:      cmdCtx.Logger,
		})
		if buildErr != nil {
			return buildErr
		}
		defer func() { _ = services.Observability.MetricsSink.Close() }()

		summary, runErr := services.Freshness.Run(ctx, opts.Trigger)
		if runErr != nil {
			return runErr
		}
		return writeJSON(cmdCtx.Out, summary)
	})
}

func runListStale(cmdCtx *commandContext, args []string) error {
	opts, err := parseListFlags("list-stale", args, 50)
	if err != nil {
		return err
	}
	return withQuery(cmdCtx, func(ctx context.Context, q *service.FreshnessQueryService) error {
		rows, listErr := q.Stale(ctx, opts.Limit, opts.Offset)
		if listErr != nil {
			return listErr
		}
		if opts.JSON {
			return writeJSON(cmdCtx.Out, rows)
		}
		return renderStatuses(cmdCtx.Out, rows)
	})
}

func runListRuns(cmdCtx *commandContext, args []string) error {
	opts, err := parseListFlags("list-runs", args, 20)
	if err != nil {
		return err
	}
	return withQuery(cmdCtx, func(ctx context.Context, q *service.FreshnessQueryService) error {
		runs, listErr := q.Runs(ctx, opts.Limit)
		if listErr != nil {
			return listErr
		}
		if opts.JSON {
			return writeJSON(cmdCtx.Out, runs)
		}
		return renderRuns(cmdCtx.Out, runs)
	})
}

func withQuery(cmdCtx *commandContext, f func(context.Context, *service.FreshnessQueryService) error) error {
	return withDatabase(cmdCtx, defaultQueryTimeout, func(ctx context.Context, db *sql.DB) error {
		q, err := service.NewFreshnessQueryService(service.FreshnessQueryServiceOptions{
			Statuses: data.NewFreshnessStatusRepo(db),
			Runs:     data.NewFreshnessRunRepo(db),
		})
		if err != nil {
			return err
		}
		return f(ctx, q)
	})
}

func runClearRunLock(cmdCtx *commandContext, args []string) error {
	if err := newFlagSet("clear-run-lock").Parse(args); err != nil {
		return err
	}

	rdb, err := maybeConnectRedis(cmdCtx)
	if err != nil {
		return err
	}
	if rdb == nil {
		return errRedisDisabled
	}
	defer closeRedis(cmdCtx, rdb)

	lock, err := bootstrap.NewRunLock(rdb, cmdCtx.Config.Freshness)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultQueryTimeout)
	defer cancel()

	deleted, err := lock.ForceRelease(ctx)
	if err != nil {
		return fmt.Errorf("clear run lock: %w", err)
	}
	return reportLockCleared(cmdCtx.Out, lock.Key(), deleted)
}

func reportLockCleared(w io.Writer, key string, deleted bool) error {
	if !deleted {
		return writef(w, "run lock %s was not held\n", key)
	}
	return writef(w, "run lock %s cleared\n", key)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderStatuses(w io.Writer, rows []*model.FreshnessStatus) error {
	if len(rows) == 0 {
		return writef(w, "No stale citations.\n")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "UNIQUE HASH\tSTATUS\tLAST CHECKED\tERROR\n"); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writef(tw, "%s\t%d\t%s\t%s\n",
			r.UniqueHash,
			r.LastHTTPStatus,
			r.LastCheckedAt.UTC().Format(time.RFC3339),
			deref(r.LastError),
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func renderRuns(w io.Writer, runs []*model.FreshnessRun) error {
	if len(runs) == 0 {
		return writef(w, "No runs recorded.\n")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "ID\tTRIGGER\tSTARTED\tDURATION\tCHECKED\tSTALE\tSKIPPED\tPROBE FAIL\tWRITE FAIL\tERROR\n"); err != nil {
		return err
	}
	for _, r := range runs {
		if err := writef(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			r.ID,
			r.Trigger,
			r.StartedAt.UTC().Format(time.RFC3339),
			runDuration(r),
			r.Checked,
			r.MarkedStale,
			r.Skipped,
			r.ProbeFailures,
			r.WriteFailures,
			deref(r.Error),
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func runDuration(r *model.FreshnessRun) string {
	if r.FinishedAt == nil {
		return "running"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
