package model

import "time"

// Audited authorization and moderation actions.
const (
	ActionCreateRole         = "CREATE_ROLE"
	ActionUpdateRole         = "UPDATE_ROLE"
	ActionDeleteRole         = "DELETE_ROLE"
	ActionCreatePermission   = "CREATE_PERMISSION"
	ActionUpdatePermission   = "UPDATE_PERMISSION"
	ActionDeletePermission   = "DELETE_PERMISSION"
	ActionAssignPermission   = "ASSIGN_PERMISSION"
	ActionUnassignPermission = "UNASSIGN_PERMISSION"
	ActionAssignUserRole     = "ASSIGN_USER_ROLE"
	ActionRemoveUserRole     = "REMOVE_USER_ROLE"
	ActionCreateArtistAdmin  = "CREATE_ARTIST_ADMIN"
	ActionAcceptArtist       = "ACCEPT_ARTIST"
	ActionRejectArtist       = "REJECT_ARTIST"
	ActionDeleteArtist       = "DELETE_ARTIST"
	ActionDeleteUser         = "DELETE_USER"
	ActionSeed               = "SEED"
)

// AuditLog records who changed what. ActorID is nil for system actions such as the startup seed.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActorID    *uint     `gorm:"index" json:"actor_id"`
	Actor      *User     `gorm:"foreignKey:ActorID;constraint:OnDelete:SET NULL" json:"-"`
	Action     string    `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityType string    `gorm:"type:varchar(50);not null" json:"entity_type"`
	EntityID   string    `gorm:"type:varchar(50);index" json:"entity_id"`
	Details    string    `gorm:"type:text" json:"details"` // JSON object
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
