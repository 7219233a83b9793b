// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/keithamus/tickrs/models"
	"github.com/keithamus/tickrs/repository"
	testingutil "github.com/keithamus/tickrs/testing"
	"github.com/keithamus/tickrs/utils"
)

func TestCounterRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewCounterRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()
		fixtures := testingutil.NewTestFixtures(testDB)

		t.Run("SaveAndByNanoID", func(t *testing.T) {
			counter, err := fixtures.CreateTestCounter(0)
			require.NoError(t, err)

			found, err := repo.ByNanoID(ctx, counter.NanoID)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, counter.NanoID, found.NanoID)
			assert.Equal(t, int64(0), found.Value)
			assert.WithinDuration(t, found.CreatedAt, found.UpdatedAt, time.Second)
		})

		t.Run("ByNanoIDNotFound", func(t *testing.T) {
			found, err := repo.ByNanoID(ctx, "nosuchid")
			assert.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("SaveDuplicateNanoID", func(t *testing.T) {
			counter, err := fixtures.CreateTestCounter(0)
			require.NoError(t, err)

			dup := &models.Counter{NanoID: counter.NanoID}
			err = repo.Save(ctx, dup)
			require.Error(t, err)
			assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

			// The original row is untouched
			found, err := repo.ByNanoID(ctx, counter.NanoID)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, counter.ID, found.ID)
		})

		t.Run("IncrementByNanoID", func(t *testing.T) {
			counter, err := fixtures.CreateTestCounter(0)
			require.NoError(t, err)

			row, err := repo.IncrementByNanoID(ctx, counter.NanoID, 5)
			require.NoError(t, err)
			require.NotNil(t, row)
			assert.Equal(t, int64(5), row.Value)

			row, err = repo.IncrementByNanoID(ctx, counter.NanoID, -3)
			require.NoError(t, err)
			require.NotNil(t, row)
			assert.Equal(t, int64(2), row.Value)
		})

		t.Run("IncrementBelowZeroRejected", func(t *testing.T) {
			counter, err := fixtures.CreateTestCounter(2)
			require.NoError(t, err)

			row, err := repo.IncrementByNanoID(ctx, counter.NanoID, -10)
			assert.Nil(t, row)
			require.Error(t, err)
			assert.True(t, errors.Is(err, repository.ErrValueOutOfRange))

			// Value is unchanged after the rejected increment
			found, err := repo.ByNanoID(ctx, counter.NanoID)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, int64(2), found.Value)
		})

		t.Run("IncrementToExactlyZero", func(t *testing.T) {
			counter, err := fixtures.CreateTestCounter(4)
			require.NoError(t, err)

			row, err := repo.IncrementByNanoID(ctx, counter.NanoID, -4)
			require.NoError(t, err)
			require.NotNil(t, row)
			assert.Equal(t, int64(0), row.Value)
		})

		t.Run("IncrementMissingRow", func(t *testing.T) {
			row, err := repo.IncrementByNanoID(ctx, "ghost", 1)
			assert.NoError(t, err)
			assert.Nil(t, row)
		})

		t.Run("IncrementRefreshesUpdatedAt", func(t *testing.T) {
			counter, err := fixtures.CreateTestCounter(0)
			require.NoError(t, err)

			before, err := repo.ByNanoID(ctx, counter.NanoID)
			require.NoError(t, err)

			time.Sleep(50 * time.Millisecond)

			after, err := repo.IncrementByNanoID(ctx, counter.NanoID, 1)
			require.NoError(t, err)
			require.NotNil(t, after)
			assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
			assert.Equal(t, before.CreatedAt.Unix(), after.CreatedAt.Unix())
		})

		t.Run("ConcurrentIncrements", func(t *testing.T) {
			counter, err := fixtures.CreateTestCounter(0)
			require.NoError(t, err)

			const workers = 10
			const perWorker = 20

			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < perWorker; j++ {
						_, err := repo.IncrementByNanoID(ctx, counter.NanoID, 1)
						assert.NoError(t, err)
					}
				}()
			}
			wg.Wait()

			found, err := repo.ByNanoID(ctx, counter.NanoID)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, int64(workers*perWorker), found.Value)
		})

		t.Run("DeleteByNanoID", func(t *testing.T) {
			counter, err := fixtures.CreateTestCounter(7)
			require.NoError(t, err)

			deleted, err := repo.DeleteByNanoID(ctx, counter.NanoID)
			require.NoError(t, err)
			assert.True(t, deleted)

			found, err := repo.ByNanoID(ctx, counter.NanoID)
			require.NoError(t, err)
			assert.Nil(t, found)

			// Second delete is a no-op
			deleted, err = repo.DeleteByNanoID(ctx, counter.NanoID)
			require.NoError(t, err)
			assert.False(t, deleted)
		})

		t.Run("ByFilter", func(t *testing.T) {
			counter, err := fixtures.CreateTestCounter(3)
			require.NoError(t, err)

			rows, err := repo.ByFilter(ctx, models.CounterFilter{NanoID: &counter.NanoID}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, int64(3), rows[0].Value)
		})

		t.Run("CountAndExists", func(t *testing.T) {
			counter, err := fixtures.CreateTestCounter(0)
			require.NoError(t, err)

			count, err := repo.Count(ctx, models.CounterFilter{NanoID: &counter.NanoID})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)

			exists, err := repo.Exists(ctx, models.CounterFilter{NanoID: &counter.NanoID})
			require.NoError(t, err)
			assert.True(t, exists)

			exists, err = repo.Exists(ctx, models.CounterFilter{NanoID: utils.ToPtr("nosuchid")})
			require.NoError(t, err)
			assert.False(t, exists)
		})

		t.Run("ByID", func(t *testing.T) {
			counter, err := fixtures.CreateTestCounter(7)
			require.NoError(t, err)

			found, err := repo.ByID(ctx, counter.ID)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, counter.NanoID, found.NanoID)
			assert.Equal(t, int64(7), found.Value)

			found, err = repo.ByID(ctx, counter.ID+100000)
			require.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("WithTransactionRollback", func(t *testing.T) {
			nanoID, err := utils.NewNanoID()
			require.NoError(t, err)

			sentinel := errors.New("abort")
			err = repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
				if err := repo.Save(txCtx, &models.Counter{NanoID: nanoID}); err != nil {
					return err
				}
				return sentinel
			})
			assert.True(t, errors.Is(err, sentinel))

			// The insert was rolled back with the transaction
			found, err := repo.ByNanoID(ctx, nanoID)
			require.NoError(t, err)
			assert.Nil(t, found)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestGaugeRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewGaugeRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()
		fixtures := testingutil.NewTestFixtures(testDB)

		t.Run("NegativeValuesAllowed", func(t *testing.T) {
			gauge, err := fixtures.CreateTestGauge(0)
			require.NoError(t, err)

			row, err := repo.IncrementByNanoID(ctx, gauge.NanoID, -7)
			require.NoError(t, err)
			require.NotNil(t, row)
			assert.Equal(t, int64(-7), row.Value)

			row, err = repo.IncrementByNanoID(ctx, gauge.NanoID, 3)
			require.NoError(t, err)
			require.NotNil(t, row)
			assert.Equal(t, int64(-4), row.Value)
		})

		t.Run("IncrementMissingRow", func(t *testing.T) {
			row, err := repo.IncrementByNanoID(ctx, "ghost", -1)
			assert.NoError(t, err)
			assert.Nil(t, row)
		})

		t.Run("DeleteByNanoID", func(t *testing.T) {
			gauge, err := fixtures.CreateTestGauge(-5)
			require.NoError(t, err)

			deleted, err := repo.DeleteByNanoID(ctx, gauge.NanoID)
			require.NoError(t, err)
			assert.True(t, deleted)

			deleted, err = repo.DeleteByNanoID(ctx, gauge.NanoID)
			require.NoError(t, err)
			assert.False(t, deleted)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestStatsRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewStatsRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()
		fixtures := testingutil.NewTestFixtures(testDB)

		t.Run("EmptyTables", func(t *testing.T) {
			total, err := repo.TotalRows(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(0), total)

			highest, err := repo.HighestValue(ctx)
			require.NoError(t, err)
			assert.Nil(t, highest)
		})

		t.Run("AcrossBothTables", func(t *testing.T) {
			_, err := fixtures.CreateTestCounter(12)
			require.NoError(t, err)
			_, err = fixtures.CreateTestCounter(99)
			require.NoError(t, err)
			_, err = fixtures.CreateTestGauge(-40)
			require.NoError(t, err)

			total, err := repo.TotalRows(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(3), total)

			highest, err := repo.HighestValue(ctx)
			require.NoError(t, err)
			require.NotNil(t, highest)
			assert.Equal(t, int64(99), *highest)
		})

		t.Run("HighestFromGauge", func(t *testing.T) {
			_, err := fixtures.CreateTestGauge(500)
			require.NoError(t, err)

			highest, err := repo.HighestValue(ctx)
			require.NoError(t, err)
			require.NotNil(t, highest)
			assert.Equal(t, int64(500), *highest)
		})

		t.Run("AfterTruncate", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			total, err := repo.TotalRows(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(0), total)

			highest, err := repo.HighestValue(ctx)
			require.NoError(t, err)
			assert.Nil(t, highest)
		})

		return nil
	})
	require.NoError(t, err)
}
