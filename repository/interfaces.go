// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"

	"github.com/keithamus/tickrs/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

// ErrValueOutOfRange is returned when an increment would drive a counter
// below zero. The row is left untouched.
var ErrValueOutOfRange = errors.New("counter value out of range")

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// CounterRepository defines operations for the non-negative domain (table c)
type CounterRepository interface {
	Repository[models.Counter, models.CounterFilter]
	ByNanoID(ctx context.Context, nanoID string) (*models.Counter, error)
	// IncrementByNanoID atomically adds delta and refreshes updated_at in a
	// single statement. Returns (nil, nil) when no row matches and
	// ErrValueOutOfRange when the result would be negative.
	IncrementByNanoID(ctx context.Context, nanoID string, delta int64) (*models.Counter, error)
	// DeleteByNanoID removes the row. Returns false when nothing was deleted.
	DeleteByNanoID(ctx context.Context, nanoID string) (bool, error)
}

// GaugeRepository defines operations for the signed domain (table g)
type GaugeRepository interface {
	Repository[models.Gauge, models.GaugeFilter]
	ByNanoID(ctx context.Context, nanoID string) (*models.Gauge, error)
	IncrementByNanoID(ctx context.Context, nanoID string, delta int64) (*models.Gauge, error)
	DeleteByNanoID(ctx context.Context, nanoID string) (bool, error)
}

// StatsRepository aggregates across both tables for the public stats endpoints
type StatsRepository interface {
	TotalRows(ctx context.Context) (int64, error)
	// HighestValue returns nil when both tables are empty.
	HighestValue(ctx context.Context) (*int64, error)
}
