package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onco-dash/citewatch/internal/domain/model"
	"github.com/onco-dash/citewatch/internal/testutil"
)

func TestFreshnessRunRepo_Lifecycle(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewFreshnessRunRepo(db)
		start := testutil.TestTime()

		cursor, err := repo.LastCursor(ctx)
		require.NoError(t, err)
		assert.Empty(t, cursor)

		run, err := repo.Start(ctx, model.RunTriggerScheduler, start)
		require.NoError(t, err)
		require.NotEmpty(t, run.ID)
		assert.Nil(t, run.FinishedAt)
		assert.Equal(t, model.RunTriggerScheduler, run.Trigger)

		done, err := repo.Complete(ctx, &model.CompleteFreshnessRunRequest{
			ID:          run.ID,
			FinishedAt:  start.Add(time.Minute),
			Checked:     2,
			MarkedStale: 1,
			Skipped:     1,
			NextCursor:  testutil.StringPtr("b-hash"),
		})
		require.NoError(t, err)
		require.NotNil(t, done.FinishedAt)
		assert.Equal(t, model.RunSummary{Checked: 2, MarkedStale: 1}, done.Summary())

		cursor, err = repo.LastCursor(ctx)
		require.NoError(t, err)
		assert.Equal(t, "b-hash", cursor)

		runs, err := repo.List(ctx, 10)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, run.ID, runs[0].ID)
	})
}

func TestFreshnessRunRepo_CompleteUnknown(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewFreshnessRunRepo(db)
		_, err := repo.Complete(context.Background(), &model.CompleteFreshnessRunRequest{
			ID:         "00000000-0000-0000-0000-000000000000",
			FinishedAt: time.Now(),
		})
		require.ErrorIs(t, err, ErrFreshnessRunNotFound)
	})
}

func TestFreshnessRunRepo_StartRejectsUnknownTrigger(t *testing.T) {
	repo := NewFreshnessRunRepo(nil)
	_, err := repo.Start(context.Background(), model.RunTrigger("cron"), time.Now())
	require.Error(t, err)
}
