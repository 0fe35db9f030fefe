package models

import "time"

// TournamentStatus represents tournament lifecycle statuses, matching the ENUM in the DB.
type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusActive    TournamentStatus = "active"
	StatusFull      TournamentStatus = "full"
	StatusCompleted TournamentStatus = "completed"
)

// RegistrationMode determines whether participants sign up alone or as a team.
type RegistrationMode string

const (
	ModeSolo RegistrationMode = "solo"
	ModeTeam RegistrationMode = "team"
)

// RegistrationType determines how entry to the tournament is granted.
type RegistrationType string

const (
	TypeFree   RegistrationType = "free"
	TypePaid   RegistrationType = "paid"
	TypeInvite RegistrationType = "invite"
)

// Tournament represents a tournament.
//
// RegisteredTeams counts registrations currently holding a slot, i.e. every
// registration that is not rejected. It never exceeds TotalSlots once a
// write has committed.
type Tournament struct {
	ID               int              `json:"id" db:"id"`
	Title            string           `json:"title" db:"title"`
	Game             string           `json:"game" db:"game"`
	Description      *string          `json:"description,omitempty" db:"description"`
	StartDate        *time.Time       `json:"start_date,omitempty" db:"start_date"`
	EndDate          *time.Time       `json:"end_date,omitempty" db:"end_date"`
	TotalSlots       int              `json:"total_slots" db:"total_slots"`
	RegisteredTeams  int              `json:"registered_teams" db:"registered_teams"`
	Status           TournamentStatus `json:"status" db:"status"`
	Format           *string          `json:"format,omitempty" db:"format"`
	PrizePool        *string          `json:"prize_pool,omitempty" db:"prize_pool"`
	RegistrationMode RegistrationMode `json:"registration_mode" db:"registration_mode"`
	RegistrationType RegistrationType `json:"registration_type" db:"registration_type"`
	OrganizerID      int              `json:"organizer_id" db:"organizer_id"`
	OrganizerName    *string          `json:"organizer_name,omitempty" db:"organizer_name"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
	ImageKey         *string          `json:"-" db:"image_key"`
	ImageURL         *string          `json:"image_url,omitempty" db:"-"`

	// Optional related entities (populated by the service layer).
	Organizer *User `json:"organizer,omitempty" db:"-"`
}

// IsFull reports whether every slot is taken.
func (t *Tournament) IsFull() bool {
	return t.RegisteredTeams >= t.TotalSlots
}
