package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// StatsRepositoryImpl implements StatsRepository over both counter tables
type StatsRepositoryImpl struct {
	DB *gorm.DB
}

func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &StatsRepositoryImpl{DB: db}
}

func (r *StatsRepositoryImpl) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(TxContextKey).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.DB
}

func (r *StatsRepositoryImpl) TotalRows(ctx context.Context) (int64, error) {
	db := r.getDB(ctx)
	var total int64
	err := db.Raw(`SELECT (SELECT count(id) FROM c) + (SELECT count(id) FROM g) AS total`).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *StatsRepositoryImpl) HighestValue(ctx context.Context) (*int64, error) {
	db := r.getDB(ctx)
	var highest sql.NullInt64
	err := db.Raw(`SELECT value FROM c UNION SELECT value FROM g ORDER BY value DESC LIMIT 1`).Scan(&highest).Error
	if err != nil {
		return nil, err
	}
	if !highest.Valid {
		return nil, nil
	}
	return &highest.Int64, nil
}
