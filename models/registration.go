package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// RegistrationStatus represents the approval state of a registration.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

// Player is a single roster entry inside a registration.
type Player struct {
	Name     string `json:"name"`
	InGameID string `json:"in_game_id,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

// PlayerList is stored as a jsonb column.
type PlayerList []Player

// Value implements driver.Valuer.
func (l PlayerList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *PlayerList) Scan(src interface{}) error {
	if src == nil {
		*l = PlayerList{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported source type for PlayerList: %T", src)
	}
	return json.Unmarshal(data, l)
}

// Registration represents one signup against a tournament. Rejected
// registrations stay on record but do not hold a slot.
type Registration struct {
	ID             int                `json:"id" db:"id"`
	TournamentID   int                `json:"tournament_id" db:"tournament_id"`
	UserID         int                `json:"user_id" db:"user_id"`
	UserName       *string            `json:"user_name,omitempty" db:"user_name"`
	UserEmail      *string            `json:"user_email,omitempty" db:"user_email"`
	TeamName       *string            `json:"team_name,omitempty" db:"team_name"`
	Mode           RegistrationMode   `json:"mode" db:"mode"`
	ContactEmail   string             `json:"contact_email" db:"contact_email"`
	ContactPhone   *string            `json:"contact_phone,omitempty" db:"contact_phone"`
	DiscordHandle  *string            `json:"discord_handle,omitempty" db:"discord_handle"`
	AdditionalInfo *string            `json:"additional_info,omitempty" db:"additional_info"`
	PlayerCount    int                `json:"player_count" db:"player_count"`
	Players        PlayerList         `json:"players" db:"players"`
	Status         RegistrationStatus `json:"status" db:"status"`
	CreatedAt      time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" db:"updated_at"`
}

// HoldsSlot reports whether the registration currently counts against
// tournament capacity.
func (r *Registration) HoldsSlot() bool {
	return r.Status != RegistrationRejected
}
