package model

import (
	"time"
)

// User is the account a caller authenticates as.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"` // bcrypt hash, never serialized
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// All lists every model migrated at startup.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Role{},
		&Permission{},
		&RolePermission{},
		&UserRole{},
		&Artist{},
		&AuditLog{},
	}
}
