package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"time"

	// Import pgx driver for database/sql compatibility in tests.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/onco-dash/citewatch/internal/migrate"
)

// citewatchTables lists tables truncated between shared-database tests, children first.
var citewatchTables = []string{"freshness_status", "freshness_runs", "evidence"}

// TestDBConfig holds connection settings for the integration database.
type TestDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DefaultTestDBConfig reads TEST_DB_* variables. The default port 55432 matches the
// local compose test profile; CI sets TEST_DB_PORT=5432.
func DefaultTestDBConfig() TestDBConfig {
	return TestDBConfig{
		Host:     getEnvOrDefault("TEST_DB_HOST", "localhost"),
		Port:     getEnvOrDefault("TEST_DB_PORT", "55432"),
		User:     getEnvOrDefault("TEST_DB_USER", "citewatch"),
		Password: getEnvOrDefault("TEST_DB_PASSWORD", "citewatch"),
		DBName:   getEnvOrDefault("TEST_DB_NAME", "citewatch"),
		SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
	}
}

// DSN renders the config as a postgres URL, optionally pinning search_path.
func (c TestDBConfig) DSN(schema string) string {
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	if schema != "" {
		q.Set("search_path", schema+",public")
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     c.DBName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// SkipIfNoTestDB skips the test when the integration database cannot be reached.
// TEST_REQUIRE_DB or TEST_REQUIRE_INFRA turns the skip into a failure.
func SkipIfNoTestDB(t TestingTB) {
	t.Helper()

	db, err := sql.Open("pgx", DefaultTestDBConfig().DSN(""))
	if err == nil {
		defer closeAndLog(t, "probe DB", db)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err = db.PingContext(ctx)
	}
	if err == nil {
		return
	}
	if requireDB() {
		t.Fatal("Test database not available:", err)
	}
	t.Skip("Test database not available:", err)
}

// WithAutoDB runs fn against a migrated database. With TEST_DB_EPHEMERAL set each
// test gets its own schema, dropped on cleanup; otherwise the shared database is
// truncated before and after fn.
func WithAutoDB(t TestingTB, fn func(*sql.DB)) {
	t.Helper()
	SkipIfNoTestDB(t)

	if envBool("TEST_DB_EPHEMERAL") {
		fn(setupEphemeralSchemaDB(t))
		return
	}

	db := openMigrated(t, DefaultTestDBConfig().DSN(""))
	truncateTables(t, db)
	defer func() {
		truncateTables(t, db)
		closeAndLog(t, "test DB", db)
	}()
	fn(db)
}

func openMigrated(t TestingTB, dsn string) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatal("Failed to open database:", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		closeAndLog(t, "test DB", db)
		t.Fatal("Failed to connect to test database (is the compose test profile up?):", pingErr)
	}
	if migrateErr := migrate.Run(ctx, db); migrateErr != nil {
		closeAndLog(t, "test DB", db)
		t.Fatal("Failed to run migrations:", migrateErr)
	}
	return db
}

func truncateTables(t TestingTB, db *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, table := range citewatchTables {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("Failed to clean up table %s: %v", table, err)
		}
	}
}

func setupEphemeralSchemaDB(t TestingTB) *sql.DB {
	t.Helper()

	cfg := DefaultTestDBConfig()
	admin, err := sql.Open("pgx", cfg.DSN(""))
	if err != nil {
		t.Fatal("Failed to open admin DB:", err)
	}

	schema := schemaName()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err = admin.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
		closeAndLog(t, "admin DB", admin)
		t.Fatalf("Failed to create schema %s: %v", schema, err)
	}
	t.Logf("Using ephemeral schema: %s", schema)

	var db *sql.DB
	dropSchema := func() {
		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dcancel()
		if db != nil {
			closeAndLog(t, "schema DB", db)
		}
		if _, derr := admin.ExecContext(dctx, "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); derr != nil {
			t.Logf("warning: failed to drop schema %s: %v", schema, derr)
		}
		closeAndLog(t, "admin DB", admin)
	}
	if tc, ok := any(t).(interface{ Cleanup(func()) }); ok {
		tc.Cleanup(dropSchema)
	} else {
		defer dropSchema()
	}

	db = openMigrated(t, cfg.DSN(schema))
	db.SetMaxOpenConns(10)
	return db
}

// schemaName returns t_ followed by 8 hex characters.
func schemaName() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("t_%d", time.Now().UnixNano())
	}
	return "t_" + hex.EncodeToString(b)
}
