package tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keithamus/tickrs/models"
	testingutil "github.com/keithamus/tickrs/testing"
)

func TestModelTableNames(t *testing.T) {
	assert.Equal(t, "c", models.Counter{}.TableName())
	assert.Equal(t, "g", models.Gauge{}.TableName())
}

func TestModelConstraints(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		t.Run("CounterValueCheckConstraint", func(t *testing.T) {
			// The table itself refuses negative counter values
			err := testDB.DB.Create(&models.Counter{NanoID: "negative", Value: -1}).Error
			assert.Error(t, err)
		})

		t.Run("GaugeAllowsNegativeValues", func(t *testing.T) {
			err := testDB.DB.Create(&models.Gauge{NanoID: "negative", Value: -1}).Error
			assert.NoError(t, err)
		})

		t.Run("NanoIDLengthLimit", func(t *testing.T) {
			// VARCHAR(10) rejects longer identifiers
			err := testDB.DB.Create(&models.Counter{NanoID: "elevenchars"}).Error
			assert.Error(t, err)
		})

		t.Run("DefaultsApplied", func(t *testing.T) {
			row := &models.Counter{NanoID: "defaulted"}
			require.NoError(t, testDB.DB.Create(row).Error)

			var found models.Counter
			require.NoError(t, testDB.DB.Where("nano_id = ?", "defaulted").First(&found).Error)
			assert.Equal(t, int64(0), found.Value)
			assert.False(t, found.CreatedAt.IsZero())
			assert.False(t, found.UpdatedAt.IsZero())
		})

		return nil
	})
	require.NoError(t, err)
}
