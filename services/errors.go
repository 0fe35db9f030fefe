package services

import "errors"

// Shared errors used across services and the HTTP error mapping.
var (
	// Generic not-found
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed           = errors.New("validation failed")
	ErrTournamentTitleRequired    = errors.New("tournament title is required")
	ErrTournamentGameRequired     = errors.New("tournament game is required")
	ErrTournamentInvalidCapacity  = errors.New("tournament total slots must be positive")
	ErrTournamentInvalidDateRange = errors.New("tournament end date must not be before start date")
	ErrTournamentInvalidMode      = errors.New("invalid registration mode provided")
	ErrTournamentInvalidType      = errors.New("invalid registration type provided")
	ErrRegistrationInvalidStatus  = errors.New("invalid registration status provided")
	ErrContactEmailRequired       = errors.New("contact email is required")
	ErrPlayersRequired            = errors.New("at least one player is required")
	ErrTeamNameRequired           = errors.New("team name is required for team registrations")

	// Capacity
	ErrTournamentFull = errors.New("registration is closed: all slots are filled")
	ErrNoFreeSlots    = errors.New("no available slots")

	// Conflicts
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrRegistrationConflict = errors.New("user is already registered for this tournament")

	// Authentication and authorization
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")

	// Entity-specific not-founds
	ErrUserNotFound         = errors.New("user not found")
	ErrTournamentNotFound   = errors.New("tournament not found")
	ErrRegistrationNotFound = errors.New("registration not found")
)
