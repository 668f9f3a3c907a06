package model

import (
	"time"
)

// Role is a named bundle of permissions grantable to users.
type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Permission is an atomic dotted capability identifier, e.g. "song.create".
type Permission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// RolePermission links a role to a permission. The composite key makes each pair unique.
type RolePermission struct {
	RoleID       uint      `gorm:"primaryKey;column:role_id" json:"role_id"`
	PermissionID uint      `gorm:"primaryKey;column:permission_id;index" json:"permission_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}

// UserRole links a user to a role. The composite key makes each pair unique.
type UserRole struct {
	UserID    uint      `gorm:"primaryKey;column:user_id" json:"user_id"`
	RoleID    uint      `gorm:"primaryKey;column:role_id;index" json:"role_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

// Well-known role names created by the seed.
const (
	RoleAdmin      = "admin"
	RoleArtist     = "artist"
	RoleCommonUser = "common_user"
)
