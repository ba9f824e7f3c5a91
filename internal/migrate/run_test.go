package migrate

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestVersions_Ordered(t *testing.T) {
	files, err := Versions()
	require.NoError(t, err)
	require.NotEmpty(t, files)

	assert.Equal(t, "0001_evidence.sql", files[0])
	for i := 1; i < len(files); i++ {
		assert.Less(t, files[i-1], files[i])
	}
}

func TestApply_Idempotent(t *testing.T) {
	dsn := testDSN(t)
	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	if pingErr := db.PingContext(ctx); pingErr != nil {
		t.Skip("test database not available:", pingErr)
	}

	_, err = Apply(ctx, db)
	require.NoError(t, err)

	applied, err := Apply(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, applied, "second run must not re-apply migrations")
}
