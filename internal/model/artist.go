package model

import "time"

// ArtistStatus is the approval workflow state of an artist profile.
type ArtistStatus string

const (
	ArtistPending  ArtistStatus = "PENDING"
	ArtistActive   ArtistStatus = "ACTIVE"
	ArtistRejected ArtistStatus = "REJECTED"
	ArtistDeleted  ArtistStatus = "DELETED"
)

// Valid reports whether s is one of the known states.
func (s ArtistStatus) Valid() bool {
	switch s {
	case ArtistPending, ArtistActive, ArtistRejected, ArtistDeleted:
		return true
	}
	return false
}

// Artist is never hard-deleted; DELETED is a status value.
type Artist struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	ArtistUserID  *uint        `gorm:"column:artist_user_id;index" json:"artist_user_id,omitempty"`
	ArtistName    string       `gorm:"type:varchar(255);not null" json:"artist_name"`
	Biography     *string      `gorm:"type:text" json:"biography,omitempty"`
	Verified      bool         `gorm:"not null;default:false" json:"verified"`
	FormationYear int          `gorm:"not null" json:"formation_year"`
	CountryCode   *string      `gorm:"type:varchar(3)" json:"country_code,omitempty"`
	Status        ArtistStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	CreatedAt     time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// Artist lifecycle event names broadcast to realtime subscribers.
const (
	ArtistEventCreated  = "artist.created"
	ArtistEventUpdated  = "artist.updated"
	ArtistEventAccepted = "artist.accepted"
	ArtistEventRejected = "artist.rejected"
	ArtistEventDeleted  = "artist.deleted"
)

// ArtistEvent is the payload pushed on every lifecycle change.
type ArtistEvent struct {
	Event    string       `json:"event"`
	ArtistID uint         `json:"artist_id"`
	Status   ArtistStatus `json:"status"`
}
