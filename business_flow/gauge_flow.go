package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/keithamus/tickrs/app/dto"
	"github.com/keithamus/tickrs/models"
	"github.com/keithamus/tickrs/repository"
	"github.com/keithamus/tickrs/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// GaugeFlow covers the signed domain (table g). Unlike counters, gauges accept
// negative deltas without a lower bound, so Hit takes the step directly.
type GaugeFlow interface {
	Create(ctx context.Context) (*dto.TickDTO, error)
	CreateWithID(ctx context.Context, nanoID string) (*dto.TickDTO, error)
	Get(ctx context.Context, nanoID string) (*dto.TickDTO, error)
	Increment(ctx context.Context, nanoID string, delta int64) (*dto.TickDTO, error)
	Hit(ctx context.Context, nanoID string, delta int64) (*dto.TickDTO, error)
	Delete(ctx context.Context, nanoID string) error
}

type GaugeFlowImpl struct {
	repo        repository.GaugeRepository
	rc          *redis.Client
	cachePrefix string
	cacheTTL    time.Duration
}

func NewGaugeFlow(repo repository.GaugeRepository, rc *redis.Client, cachePrefix string, cacheTTL time.Duration) GaugeFlow {
	return &GaugeFlowImpl{repo: repo, rc: rc, cachePrefix: cachePrefix, cacheTTL: cacheTTL}
}

func (f *GaugeFlowImpl) Create(ctx context.Context) (*dto.TickDTO, error) {
	var lastErr error
	for attempt := 0; attempt < maxIDGenerationAttempts; attempt++ {
		nanoID, err := utils.NewNanoID()
		if err != nil {
			return nil, NewBusinessError("ID_GENERATION_FAILED", "Failed to generate public identifier", err)
		}
		row, err := f.CreateWithID(ctx, nanoID)
		if err == nil {
			return row, nil
		}
		if !IsGaugeAlreadyExists(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, NewBusinessError("ID_SPACE_EXHAUSTED", "Could not allocate a free public identifier", lastErr)
}

func (f *GaugeFlowImpl) CreateWithID(ctx context.Context, nanoID string) (*dto.TickDTO, error) {
	if !utils.ValidNanoID(nanoID) {
		return nil, ErrInvalidNanoID
	}

	now := utils.UTCNow()
	row := &models.Gauge{
		NanoID:    nanoID,
		Value:     0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.repo.Save(ctx, row); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrGaugeAlreadyExists
		}
		return nil, NewBusinessError("GAUGE_CREATE_FAILED", "Failed to create gauge", errors.Join(ErrStorageUnavailable, err))
	}

	ticksCreatedTotal.WithLabelValues(DomainGauge).Inc()
	out := ToGaugeDTO(*row)
	f.cacheSet(ctx, nanoID, &out)
	return &out, nil
}

func (f *GaugeFlowImpl) Get(ctx context.Context, nanoID string) (*dto.TickDTO, error) {
	if !utils.ValidNanoID(nanoID) {
		return nil, ErrInvalidNanoID
	}
	if cached := f.cacheGet(ctx, nanoID); cached != nil {
		return cached, nil
	}

	row, err := f.repo.ByNanoID(ctx, nanoID)
	if err != nil {
		return nil, NewBusinessError("GAUGE_LOOKUP_FAILED", "Failed to lookup gauge", errors.Join(ErrStorageUnavailable, err))
	}
	if row == nil {
		return nil, ErrGaugeNotFound
	}

	out := ToGaugeDTO(*row)
	f.cacheSet(ctx, nanoID, &out)
	return &out, nil
}

func (f *GaugeFlowImpl) Increment(ctx context.Context, nanoID string, delta int64) (*dto.TickDTO, error) {
	if !utils.ValidNanoID(nanoID) {
		return nil, ErrInvalidNanoID
	}

	row, err := f.repo.IncrementByNanoID(ctx, nanoID, delta)
	if err != nil {
		return nil, NewBusinessError("GAUGE_INCREMENT_FAILED", "Failed to increment gauge", errors.Join(ErrStorageUnavailable, err))
	}
	if row == nil {
		return nil, ErrGaugeNotFound
	}

	tickIncrementsTotal.WithLabelValues(DomainGauge).Inc()
	f.cacheInvalidate(ctx, nanoID)
	out := ToGaugeDTO(*row)
	return &out, nil
}

// Hit applies delta, provisioning the row at that delta when it does not
// exist yet. Used by the public /g+/{id} and /g-/{id} endpoints.
func (f *GaugeFlowImpl) Hit(ctx context.Context, nanoID string, delta int64) (*dto.TickDTO, error) {
	if !utils.ValidNanoID(nanoID) {
		return nil, ErrInvalidNanoID
	}

	out, err := f.Increment(ctx, nanoID, delta)
	if !IsGaugeNotFound(err) {
		return out, err
	}

	now := utils.UTCNow()
	row := &models.Gauge{
		NanoID:    nanoID,
		Value:     delta,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.repo.Save(ctx, row); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return f.Increment(ctx, nanoID, delta)
		}
		return nil, NewBusinessError("GAUGE_CREATE_FAILED", "Failed to create gauge", errors.Join(ErrStorageUnavailable, err))
	}

	ticksCreatedTotal.WithLabelValues(DomainGauge).Inc()
	tickIncrementsTotal.WithLabelValues(DomainGauge).Inc()
	res := ToGaugeDTO(*row)
	f.cacheSet(ctx, nanoID, &res)
	return &res, nil
}

// Delete is idempotent: removing an absent gauge is not an error.
func (f *GaugeFlowImpl) Delete(ctx context.Context, nanoID string) error {
	if !utils.ValidNanoID(nanoID) {
		return ErrInvalidNanoID
	}

	deleted, err := f.repo.DeleteByNanoID(ctx, nanoID)
	if err != nil {
		return NewBusinessError("GAUGE_DELETE_FAILED", "Failed to delete gauge", errors.Join(ErrStorageUnavailable, err))
	}
	if deleted {
		tickDeletesTotal.WithLabelValues(DomainGauge).Inc()
	}
	f.cacheInvalidate(ctx, nanoID)
	return nil
}

func (f *GaugeFlowImpl) cacheGet(ctx context.Context, nanoID string) *dto.TickDTO {
	if f.rc == nil {
		return nil
	}
	bs, err := f.rc.Get(ctx, gaugeCacheKey(f.cachePrefix, nanoID)).Bytes()
	if err != nil || len(bs) == 0 {
		return nil
	}
	var out dto.TickDTO
	if err := json.Unmarshal(bs, &out); err != nil {
		return nil
	}
	return &out
}

func (f *GaugeFlowImpl) cacheSet(ctx context.Context, nanoID string, row *dto.TickDTO) {
	if f.rc == nil {
		return
	}
	bs, err := json.Marshal(row)
	if err != nil {
		return
	}
	_ = f.rc.Set(ctx, gaugeCacheKey(f.cachePrefix, nanoID), bs, f.cacheTTL).Err()
}

func (f *GaugeFlowImpl) cacheInvalidate(ctx context.Context, nanoID string) {
	if f.rc == nil {
		return
	}
	_ = f.rc.Del(ctx, gaugeCacheKey(f.cachePrefix, nanoID)).Err()
}
