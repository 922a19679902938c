package models

import (
	"time"

	"gorm.io/datatypes"
)

// SavedSearch is a persisted filter set re-evaluated periodically for new matches
type SavedSearch struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Name      string         `gorm:"type:varchar(100);not null" json:"name"`
	Filters   datatypes.JSON `json:"filters"` // same keys as the /api/search query
	IsActive  bool           `gorm:"not null;index" json:"is_active"`
	LastRunAt *time.Time     `json:"last_run_at,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (SavedSearch) TableName() string {
	return "saved_searches"
}

// CheckpointAt is the creation bound used for the next evaluation
func (s *SavedSearch) CheckpointAt() time.Time {
	if s.LastRunAt != nil {
		return *s.LastRunAt
	}
	return s.CreatedAt
}
