package repository

import (
	"context"
	"errors"

	"github.com/keithamus/tickrs/models"
	"gorm.io/gorm"
)

// GaugeRepositoryImpl implements GaugeRepository
type GaugeRepositoryImpl struct {
	*BaseRepository[models.Gauge, models.GaugeFilter]
}

func NewGaugeRepository(db *gorm.DB) GaugeRepository {
	return &GaugeRepositoryImpl{BaseRepository: NewBaseRepository[models.Gauge, models.GaugeFilter](db)}
}

func (r *GaugeRepositoryImpl) ByNanoID(ctx context.Context, nanoID string) (*models.Gauge, error) {
	db := r.getDB(ctx)
	var row models.Gauge
	if err := db.Where("nano_id = ?", nanoID).Last(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// IncrementByNanoID mirrors the counter variant without the lower bound: the
// signed domain accepts any delta.
func (r *GaugeRepositoryImpl) IncrementByNanoID(ctx context.Context, nanoID string, delta int64) (*models.Gauge, error) {
	db := r.getDB(ctx)
	var row models.Gauge
	res := db.Raw(`
		UPDATE g
		SET value = value + ?, updated_at = (CURRENT_TIMESTAMP AT TIME ZONE 'UTC')
		WHERE nano_id = ?
		RETURNING id, nano_id, value, created_at, updated_at
	`, delta, nanoID).Scan(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *GaugeRepositoryImpl) DeleteByNanoID(ctx context.Context, nanoID string) (bool, error) {
	db := r.getDB(ctx)
	res := db.Where("nano_id = ?", nanoID).Delete(&models.Gauge{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GaugeRepositoryImpl) applyFilter(db *gorm.DB, f models.GaugeFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.NanoID != nil {
		db = db.Where("nano_id = ?", *f.NanoID)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *GaugeRepositoryImpl) ByFilter(ctx context.Context, filter models.GaugeFilter, orderBy string, limit, offset int) ([]*models.Gauge, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Gauge{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Gauge
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *GaugeRepositoryImpl) Count(ctx context.Context, filter models.GaugeFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Gauge{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GaugeRepositoryImpl) Exists(ctx context.Context, filter models.GaugeFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
