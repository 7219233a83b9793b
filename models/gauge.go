package models

import "time"

// Gauge is a named signed number stored in table "g".
// Identical shape to Counter except the value may go negative.
type Gauge struct {
	ID     uint   `gorm:"primaryKey" json:"-"`
	NanoID string `gorm:"size:10;not null;uniqueIndex:uk_g_nano_id" json:"nano_id"`
	Value  int64  `gorm:"not null;default:0" json:"value"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// TableName returns the table name for Gauge
func (Gauge) TableName() string { return "g" }

// GaugeFilter provides filter fields for repository queries
type GaugeFilter struct {
	ID            *uint
	NanoID        *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
