package models

import "time"

// Counter is a named non-negative number stored in table "c".
// NanoID is the only identifier exposed to external callers; ID stays internal.
// Value never goes below zero: the increment statement guards the lower bound.
type Counter struct {
	ID     uint   `gorm:"primaryKey" json:"-"`
	NanoID string `gorm:"size:10;not null;uniqueIndex:uk_c_nano_id" json:"nano_id"`
	Value  int64  `gorm:"not null;default:0;check:value >= 0" json:"value"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// TableName returns the table name for Counter
func (Counter) TableName() string { return "c" }

// CounterFilter provides filter fields for repository queries
type CounterFilter struct {
	ID            *uint
	NanoID        *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
