// Package businessflow contains the business logic for the application.
package businessflow

import (
	"github.com/keithamus/tickrs/app/dto"
	"github.com/keithamus/tickrs/models"
)

const RequestIDKey = "X-Request-ID"

// Domain names used in cache keys, metrics labels, and routes.
const (
	DomainCounter = "c"
	DomainGauge   = "g"
)

// Bounded retries when a freshly generated nano id collides with an existing
// row. With a 62-character alphabet at length 10 a single retry is already
// overkill.
const maxIDGenerationAttempts = 3

func counterCacheKey(prefix, nanoID string) string {
	return prefix + DomainCounter + ":" + nanoID
}

func gaugeCacheKey(prefix, nanoID string) string {
	return prefix + DomainGauge + ":" + nanoID
}

// ToCounterDTO converts a counter model to its API representation
func ToCounterDTO(row models.Counter) dto.TickDTO {
	return dto.TickDTO{
		NanoID:    row.NanoID,
		Value:     row.Value,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// ToGaugeDTO converts a gauge model to its API representation
func ToGaugeDTO(row models.Gauge) dto.TickDTO {
	return dto.TickDTO{
		NanoID:    row.NanoID,
		Value:     row.Value,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
