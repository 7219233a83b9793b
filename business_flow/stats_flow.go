package businessflow

import (
	"context"
	"errors"

	"github.com/keithamus/tickrs/repository"
)

// StatsFlow serves the public aggregate endpoints (/_total and /_highest).
type StatsFlow interface {
	Total(ctx context.Context) (int64, error)
	// Highest returns nil when no rows exist in either table.
	Highest(ctx context.Context) (*int64, error)
}

type StatsFlowImpl struct {
	repo repository.StatsRepository
}

func NewStatsFlow(repo repository.StatsRepository) StatsFlow {
	return &StatsFlowImpl{repo: repo}
}

func (f *StatsFlowImpl) Total(ctx context.Context) (int64, error) {
	total, err := f.repo.TotalRows(ctx)
	if err != nil {
		return 0, NewBusinessError("STATS_TOTAL_FAILED", "Failed to count rows", errors.Join(ErrStorageUnavailable, err))
	}
	return total, nil
}

func (f *StatsFlowImpl) Highest(ctx context.Context) (*int64, error) {
	highest, err := f.repo.HighestValue(ctx)
	if err != nil {
		return nil, NewBusinessError("STATS_HIGHEST_FAILED", "Failed to find highest value", errors.Join(ErrStorageUnavailable, err))
	}
	return highest, nil
}
