package repository

import (
	"context"
	"errors"

	"github.com/keithamus/tickrs/models"
	"gorm.io/gorm"
)

// CounterRepositoryImpl implements CounterRepository
type CounterRepositoryImpl struct {
	*BaseRepository[models.Counter, models.CounterFilter]
}

func NewCounterRepository(db *gorm.DB) CounterRepository {
	return &CounterRepositoryImpl{BaseRepository: NewBaseRepository[models.Counter, models.CounterFilter](db)}
}

func (r *CounterRepositoryImpl) ByNanoID(ctx context.Context, nanoID string) (*models.Counter, error) {
	db := r.getDB(ctx)
	var row models.Counter
	if err := db.Where("nano_id = ?", nanoID).Last(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// IncrementByNanoID is the one read-modify-write in the system and must stay a
// single statement: value and updated_at change together, and the WHERE guard
// keeps concurrent decrements from driving the value below zero.
func (r *CounterRepositoryImpl) IncrementByNanoID(ctx context.Context, nanoID string, delta int64) (*models.Counter, error) {
	db := r.getDB(ctx)
	var row models.Counter
	res := db.Raw(`
		UPDATE c
		SET value = value + ?, updated_at = (CURRENT_TIMESTAMP AT TIME ZONE 'UTC')
		WHERE nano_id = ? AND value + ? >= 0
		RETURNING id, nano_id, value, created_at, updated_at
	`, delta, nanoID, delta).Scan(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Either the row does not exist or the guard rejected the delta.
		exists, err := r.Exists(ctx, models.CounterFilter{NanoID: &nanoID})
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrValueOutOfRange
		}
		return nil, nil
	}
	return &row, nil
}

func (r *CounterRepositoryImpl) DeleteByNanoID(ctx context.Context, nanoID string) (bool, error) {
	db := r.getDB(ctx)
	res := db.Where("nano_id = ?", nanoID).Delete(&models.Counter{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *CounterRepositoryImpl) applyFilter(db *gorm.DB, f models.CounterFilter) *gorm.DB {
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

func (r *CounterRepositoryImpl) ByFilter(ctx context.Context, filter models.CounterFilter, orderBy string, limit, offset int) ([]*models.Counter, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Counter{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Counter
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CounterRepositoryImpl) Count(ctx context.Context, filter models.CounterFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Counter{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *CounterRepositoryImpl) Exists(ctx context.Context, filter models.CounterFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
