package data

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onco-dash/citewatch/internal/domain/model"
	"github.com/onco-dash/citewatch/internal/testutil"
)

func TestFreshnessStatusRepo_UpsertAndGet(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		now := testutil.TestTime()
		repo := NewFreshnessStatusRepoWithTimeProvider(db, NewFixedTimeProvider(now))

		_, err := repo.GetByHash(ctx, "h1")
		require.ErrorIs(t, err, model.ErrFreshnessStatusNotFound)

		first, err := repo.Upsert(ctx, &model.UpsertFreshnessStatusRequest{
			UniqueHash: "h1",
			CheckedAt:  now,
			HTTPStatus: 200,
			EntityTag:  testutil.StringPtr(`"abc"`),
		})
		require.NoError(t, err)
		assert.Equal(t, 200, first.LastHTTPStatus)
		require.NotNil(t, first.LastEntityTag)
		assert.Equal(t, `"abc"`, *first.LastEntityTag)
		assert.False(t, first.IsStale)
		assert.Nil(t, first.LastError)

		later := now.Add(24 * time.Hour)
		second, err := repo.Upsert(ctx, &model.UpsertFreshnessStatusRequest{
			UniqueHash: "h1",
			CheckedAt:  later,
			HTTPStatus: 0,
			IsStale:    true,
			Error:      testutil.StringPtr("dial tcp: i/o timeout"),
		})
		require.NoError(t, err)
		assert.Equal(t, 0, second.LastHTTPStatus)
		assert.Nil(t, second.LastEntityTag, "snapshot replaces previous etag")
		assert.True(t, second.IsStale)
		assert.True(t, second.LastCheckedAt.Equal(later))

		got, err := repo.GetByHash(ctx, "h1")
		require.NoError(t, err)
		assert.Equal(t, second.LastCheckedAt.UTC(), got.LastCheckedAt.UTC())
		require.NotNil(t, got.LastError)

		var count int
		require.NoError(t, db.QueryRowContext(ctx,
			`SELECT count(*) FROM freshness_status WHERE unique_hash = 'h1'`).Scan(&count))
		assert.Equal(t, 1, count)
	})
}

func TestFreshnessStatusRepo_ConcurrentUpsertsConverge(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewFreshnessStatusRepo(db)
		runner := testutil.NewConcurrentTestRunner(t)

		funcs := make([]func() error, 8)
		for i := range funcs {
			status := 200 + i
			funcs[i] = func() error {
				_, err := repo.Upsert(ctx, &model.UpsertFreshnessStatusRequest{
					UniqueHash: "same-hash",
					CheckedAt:  time.Now(),
					HTTPStatus: status,
				})
				return err
			}
		}
		runner.AssertNoErrors(runner.RunConcurrent(funcs...))

		var count int
		require.NoError(t, db.QueryRowContext(ctx,
			`SELECT count(*) FROM freshness_status WHERE unique_hash = 'same-hash'`).Scan(&count))
		assert.Equal(t, 1, count)
	})
}

func TestFreshnessStatusRepo_List(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewFreshnessStatusRepo(db)
		base := testutil.TestTime()

		for i := range 5 {
			_, err := repo.Upsert(ctx, &model.UpsertFreshnessStatusRequest{
				UniqueHash: fmt.Sprintf("h%d", i),
				CheckedAt:  base.Add(time.Duration(i) * time.Minute),
				HTTPStatus: 200,
				IsStale:    i%2 == 0,
			})
			require.NoError(t, err)
		}

		stale, err := repo.List(ctx, &model.FreshnessStatusListOptions{StaleOnly: true, Limit: 10})
		require.NoError(t, err)
		require.Len(t, stale, 3)
		assert.Equal(t, "h4", stale[0].UniqueHash, "newest first")

		paged, err := repo.List(ctx, &model.FreshnessStatusListOptions{Limit: 2, Offset: 2})
		require.NoError(t, err)
		require.Len(t, paged, 2)
		assert.Equal(t, "h2", paged[0].UniqueHash)
	})
}

func TestFreshnessStatusRepo_UpsertValidation(t *testing.T) {
	repo := NewFreshnessStatusRepo(nil)

	_, err := repo.Upsert(context.Background(), nil)
	require.Error(t, err)

	_, err = repo.Upsert(context.Background(), &model.UpsertFreshnessStatusRequest{CheckedAt: time.Now()})
	require.Error(t, err)

	_, err = repo.GetByHash(context.Background(), " ")
	require.Error(t, err)
}
