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

// CounterFlow covers the non-negative domain (table c).
// Hit is the public increment-or-create used by the /c+/{id} endpoints; the
// remaining operations follow the store contract directly.
type CounterFlow interface {
	Create(ctx context.Context) (*dto.TickDTO, error)
	CreateWithID(ctx context.Context, nanoID string) (*dto.TickDTO, error)
	Get(ctx context.Context, nanoID string) (*dto.TickDTO, error)
	Increment(ctx context.Context, nanoID string, delta int64) (*dto.TickDTO, error)
	Hit(ctx context.Context, nanoID string) (*dto.TickDTO, error)
	Delete(ctx context.Context, nanoID string) error
}

type CounterFlowImpl struct {
	repo        repository.CounterRepository
	rc          *redis.Client
	cachePrefix string
	cacheTTL    time.Duration
}

func NewCounterFlow(repo repository.CounterRepository, rc *redis.Client, cachePrefix string, cacheTTL time.Duration) CounterFlow {
	return &CounterFlowImpl{repo: repo, rc: rc, cachePrefix: cachePrefix, cacheTTL: cacheTTL}
}

func (f *CounterFlowImpl) Create(ctx context.Context) (*dto.TickDTO, error) {
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
		if !IsCounterAlreadyExists(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, NewBusinessError("ID_SPACE_EXHAUSTED", "Could not allocate a free public identifier", lastErr)
}

func (f *CounterFlowImpl) CreateWithID(ctx context.Context, nanoID string) (*dto.TickDTO, error) {
	if !utils.ValidNanoID(nanoID) {
		return nil, ErrInvalidNanoID
	}

	now := utils.UTCNow()
	row := &models.Counter{
		NanoID:    nanoID,
		Value:     0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.repo.Save(ctx, row); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCounterAlreadyExists
		}
		return nil, NewBusinessError("COUNTER_CREATE_FAILED", "Failed to create counter", errors.Join(ErrStorageUnavailable, err))
	}

	ticksCreatedTotal.WithLabelValues(DomainCounter).Inc()
	out := ToCounterDTO(*row)
	f.cacheSet(ctx, nanoID, &out)
	return &out, nil
}

func (f *CounterFlowImpl) Get(ctx context.Context, nanoID string) (*dto.TickDTO, error) {
	if !utils.ValidNanoID(nanoID) {
		return nil, ErrInvalidNanoID
	}
	if cached := f.cacheGet(ctx, nanoID); cached != nil {
		return cached, nil
	}

	row, err := f.repo.ByNanoID(ctx, nanoID)
	if err != nil {
		return nil, NewBusinessError("COUNTER_LOOKUP_FAILED", "Failed to lookup counter", errors.Join(ErrStorageUnavailable, err))
	}
	if row == nil {
		return nil, ErrCounterNotFound
	}

	out := ToCounterDTO(*row)
	f.cacheSet(ctx, nanoID, &out)
	return &out, nil
}

func (f *CounterFlowImpl) Increment(ctx context.Context, nanoID string, delta int64) (*dto.TickDTO, error) {
	if !utils.ValidNanoID(nanoID) {
		return nil, ErrInvalidNanoID
	}

	row, err := f.repo.IncrementByNanoID(ctx, nanoID, delta)
	if err != nil {
		if errors.Is(err, repository.ErrValueOutOfRange) {
			return nil, ErrValueOutOfRange
		}
		return nil, NewBusinessError("COUNTER_INCREMENT_FAILED", "Failed to increment counter", errors.Join(ErrStorageUnavailable, err))
	}
	if row == nil {
		return nil, ErrCounterNotFound
	}

	tickIncrementsTotal.WithLabelValues(DomainCounter).Inc()
	f.cacheInvalidate(ctx, nanoID)
	out := ToCounterDTO(*row)
	return &out, nil
}

// Hit increments by one, provisioning the row at 1 when it does not exist.
// A concurrent Hit on the same fresh id may lose the insert race; the
// duplicate-key retry folds it back into a plain increment.
func (f *CounterFlowImpl) Hit(ctx context.Context, nanoID string) (*dto.TickDTO, error) {
	if !utils.ValidNanoID(nanoID) {
		return nil, ErrInvalidNanoID
	}

	out, err := f.Increment(ctx, nanoID, 1)
	if !IsCounterNotFound(err) {
		return out, err
	}

	now := utils.UTCNow()
	row := &models.Counter{
		NanoID:    nanoID,
		Value:     1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.repo.Save(ctx, row); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return f.Increment(ctx, nanoID, 1)
		}
		return nil, NewBusinessError("COUNTER_CREATE_FAILED", "Failed to create counter", errors.Join(ErrStorageUnavailable, err))
	}

	ticksCreatedTotal.WithLabelValues(DomainCounter).Inc()
	tickIncrementsTotal.WithLabelValues(DomainCounter).Inc()
	res := ToCounterDTO(*row)
	f.cacheSet(ctx, nanoID, &res)
	return &res, nil
}

// Delete is idempotent: removing an absent counter is not an error.
func (f *CounterFlowImpl) Delete(ctx context.Context, nanoID string) error {
	if !utils.ValidNanoID(nanoID) {
		return ErrInvalidNanoID
	}

	deleted, err := f.repo.DeleteByNanoID(ctx, nanoID)
	if err != nil {
		return NewBusinessError("COUNTER_DELETE_FAILED", "Failed to delete counter", errors.Join(ErrStorageUnavailable, err))
	}
	if deleted {
		tickDeletesTotal.WithLabelValues(DomainCounter).Inc()
	}
	f.cacheInvalidate(ctx, nanoID)
	return nil
}

func (f *CounterFlowImpl) cacheGet(ctx context.Context, nanoID string) *dto.TickDTO {
	if f.rc == nil {
		return nil
	}
	bs, err := f.rc.Get(ctx, counterCacheKey(f.cachePrefix, nanoID)).Bytes()
	if err != nil || len(bs) == 0 {
		return nil
	}
	var out dto.TickDTO
	if err := json.Unmarshal(bs, &out); err != nil {
		return nil
	}
	return &out
}

func (f *CounterFlowImpl) cacheSet(ctx context.Context, nanoID string, row *dto.TickDTO) {
	if f.rc == nil {
		return
	}
	bs, err := json.Marshal(row)
	if err != nil {
		return
	}
	_ = f.rc.Set(ctx, counterCacheKey(f.cachePrefix, nanoID), bs, f.cacheTTL).Err()
}

func (f *CounterFlowImpl) cacheInvalidate(ctx context.Context, nanoID string) {
	if f.rc == nil {
		return
	}
	_ = f.rc.Del(ctx, counterCacheKey(f.cachePrefix, nanoID)).Err()
}
