package tests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	businessflow "github.com/keithamus/tickrs/business_flow"
	"github.com/keithamus/tickrs/repository"
	testingutil "github.com/keithamus/tickrs/testing"
	"github.com/keithamus/tickrs/utils"
)

func TestCounterFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewCounterRepository(testDB.DB)
		flow := businessflow.NewCounterFlow(repo, nil, "", 0)
		ctx := testingutil.CreateTestContext()

		t.Run("CreateGeneratesFreshID", func(t *testing.T) {
			row, err := flow.Create(ctx)
			require.NoError(t, err)
			require.NotNil(t, row)
			assert.True(t, utils.ValidNanoID(row.NanoID))
			assert.Len(t, row.NanoID, utils.NanoIDLength)
			assert.Equal(t, int64(0), row.Value)
		})

		t.Run("CounterLifecycle", func(t *testing.T) {
			row, err := flow.CreateWithID(ctx, "abc123")
			require.NoError(t, err)
			assert.Equal(t, int64(0), row.Value)
			assert.WithinDuration(t, row.CreatedAt, row.UpdatedAt, time.Second)

			row, err = flow.Increment(ctx, "abc123", 5)
			require.NoError(t, err)
			assert.Equal(t, int64(5), row.Value)

			row, err = flow.Increment(ctx, "abc123", -3)
			require.NoError(t, err)
			assert.Equal(t, int64(2), row.Value)

			// Driving the counter below zero is rejected and leaves it at 2
			_, err = flow.Increment(ctx, "abc123", -10)
			require.Error(t, err)
			assert.True(t, businessflow.IsValueOutOfRange(err))

			row, err = flow.Get(ctx, "abc123")
			require.NoError(t, err)
			assert.Equal(t, int64(2), row.Value)
		})

		t.Run("DuplicateCreateLeavesRowIntact", func(t *testing.T) {
			row, err := flow.CreateWithID(ctx, "dupcheck")
			require.NoError(t, err)

			_, err = flow.Increment(ctx, "dupcheck", 9)
			require.NoError(t, err)

			_, err = flow.CreateWithID(ctx, "dupcheck")
			require.Error(t, err)
			assert.True(t, businessflow.IsCounterAlreadyExists(err))
			assert.True(t, businessflow.IsDuplicateKey(err))

			row, err = flow.Get(ctx, "dupcheck")
			require.NoError(t, err)
			assert.Equal(t, int64(9), row.Value)
		})

		t.Run("GetUnknownID", func(t *testing.T) {
			_, err := flow.Get(ctx, "unknown")
			require.Error(t, err)
			assert.True(t, businessflow.IsCounterNotFound(err))
			assert.True(t, businessflow.IsNotFound(err))
		})

		t.Run("IncrementUnknownID", func(t *testing.T) {
			_, err := flow.Increment(ctx, "unknown", 1)
			require.Error(t, err)
			assert.True(t, businessflow.IsCounterNotFound(err))
		})

		t.Run("InvalidIDRejected", func(t *testing.T) {
			for _, id := range []string{"", "elevenchars", "has space", "tab\there"} {
				_, err := flow.Get(ctx, id)
				require.Error(t, err)
				assert.True(t, businessflow.IsInvalidNanoID(err), "id %q", id)
			}
		})

		t.Run("HitCreatesAtOne", func(t *testing.T) {
			row, err := flow.Hit(ctx, "hitfresh")
			require.NoError(t, err)
			assert.Equal(t, int64(1), row.Value)

			row, err = flow.Hit(ctx, "hitfresh")
			require.NoError(t, err)
			assert.Equal(t, int64(2), row.Value)
		})

		t.Run("IncrementRefreshesUpdatedAt", func(t *testing.T) {
			row, err := flow.CreateWithID(ctx, "tsmono")
			require.NoError(t, err)
			createdAt := row.CreatedAt
			updatedAt := row.UpdatedAt

			time.Sleep(50 * time.Millisecond)

			row, err = flow.Increment(ctx, "tsmono", 1)
			require.NoError(t, err)
			assert.True(t, row.UpdatedAt.After(updatedAt))
			assert.Equal(t, createdAt.Unix(), row.CreatedAt.Unix(), "created_at stays put")
		})

		t.Run("DeleteIsIdempotent", func(t *testing.T) {
			_, err := flow.CreateWithID(ctx, "shortlived")
			require.NoError(t, err)

			require.NoError(t, flow.Delete(ctx, "shortlived"))

			_, err = flow.Get(ctx, "shortlived")
			require.Error(t, err)
			assert.True(t, businessflow.IsCounterNotFound(err))

			// Deleting again is not an error
			require.NoError(t, flow.Delete(ctx, "shortlived"))
		})

		t.Run("IDIsReusableAfterDelete", func(t *testing.T) {
			_, err := flow.CreateWithID(ctx, "recycled")
			require.NoError(t, err)
			_, err = flow.Increment(ctx, "recycled", 4)
			require.NoError(t, err)

			require.NoError(t, flow.Delete(ctx, "recycled"))

			row, err := flow.CreateWithID(ctx, "recycled")
			require.NoError(t, err)
			assert.Equal(t, int64(0), row.Value)
		})

		return nil
	})
	require.NoError(t, err)
}
