package models

import "time"

// User is a marketplace account. Credentials are owned by the external identity provider.
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Phone     string    `gorm:"type:varchar(50)" json:"phone,omitempty"`
	Role      UserRole  `gorm:"type:varchar(20);not null;default:'buyer'" json:"role"`
	AvatarURL string    `gorm:"type:text" json:"avatar_url,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// UserRole is the marketplace role of a user
type UserRole string

const (
	UserRoleBuyer UserRole = "buyer"
	UserRoleAgent UserRole = "agent"
	UserRoleAdmin UserRole = "admin"
)

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}
