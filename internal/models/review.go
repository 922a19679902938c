package models

import "time"

// Review is a buyer's rating of a property
type Review struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID uint      `gorm:"not null;index" json:"property_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Rating     int       `gorm:"type:int;not null" json:"rating"` // 1..5
	Comment    string    `gorm:"type:text" json:"comment,omitempty"`
	IsApproved bool      `gorm:"not null" json:"is_approved"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (Review) TableName() string {
	return "reviews"
}
