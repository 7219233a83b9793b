// Package testing provides test utilities and database setup for testing the counting service
package testing

import (
	"fmt"

	"github.com/keithamus/tickrs/models"
	"github.com/keithamus/tickrs/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestCounter inserts a counter row with a fresh public id and the given value
func (tf *TestFixtures) CreateTestCounter(value int64) (*models.Counter, error) {
	nanoID, err := utils.NewNanoID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nano id: %w", err)
	}

	counter := &models.Counter{
		NanoID: nanoID,
		Value:  value,
	}

	if err := tf.DB.DB.Create(counter).Error; err != nil {
		return nil, fmt.Errorf("failed to create test counter: %w", err)
	}

	return counter, nil
}

// CreateTestGauge inserts a gauge row with a fresh public id and the given value
func (tf *TestFixtures) CreateTestGauge(value int64) (*models.Gauge, error) {
	nanoID, err := utils.NewNanoID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nano id: %w", err)
	}

	gauge := &models.Gauge{
		NanoID: nanoID,
		Value:  value,
	}

	if err := tf.DB.DB.Create(gauge).Error; err != nil {
		return nil, fmt.Errorf("failed to create test gauge: %w", err)
	}

	return gauge, nil
}
