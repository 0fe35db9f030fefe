package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arenaops/tournament-hub/live"
	"github.com/arenaops/tournament-hub/models"
	"github.com/arenaops/tournament-hub/repositories"
)

type SubmitRegistrationInput struct {
	UserName       *string         `json:"user_name"`
	UserEmail      *string         `json:"user_email"`
	TeamName       *string         `json:"team_name"`
	Mode           string          `json:"mode"`
	ContactEmail   string          `json:"contact_email"`
	ContactPhone   *string         `json:"contact_phone"`
	DiscordHandle  *string         `json:"discord_handle"`
	AdditionalInfo *string         `json:"additional_info"`
	PlayerCount    int             `json:"player_count"`
	Players        []models.Player `json:"players"`
}

// RegistrationService is the admission-control and approval workflow over
// tournament capacity. Every write that touches the slot counter runs with
// the registration write in one transaction.
type RegistrationService struct {
	tx               Transactor
	registrationRepo repositories.RegistrationRepository
	tournamentRepo   repositories.TournamentRepository
	hub              Broadcaster
	logger           *slog.Logger
}

func NewRegistrationService(
	tx Transactor,
	registrationRepo repositories.RegistrationRepository,
	tournamentRepo repositories.TournamentRepository,
	hub Broadcaster,
	logger *slog.Logger,
) *RegistrationService {
	return &RegistrationService{
		tx:               tx,
		registrationRepo: registrationRepo,
		tournamentRepo:   tournamentRepo,
		hub:              hub,
		logger:           logger,
	}
}

// SubmitRegistration signs userID up for a tournament. Preconditions are
// checked in order: the tournament must exist, capacity must remain, and
// required fields must be present. The player list is truncated to the
// mode's bound (1 solo, 6 team); excess entries are dropped, not rejected.
func (s *RegistrationService) SubmitRegistration(ctx context.Context, tournamentID, userID int, input SubmitRegistrationInput) (*models.Registration, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}

	if tournament.IsFull() {
		return nil, ErrTournamentFull
	}

	if input.ContactEmail == "" {
		return nil, ErrContactEmailRequired
	}
	if len(input.Players) == 0 {
		return nil, ErrPlayersRequired
	}

	mode := models.RegistrationMode(input.Mode)
	if mode == "" {
		mode = tournament.RegistrationMode
	}
	if mode != models.ModeSolo && mode != models.ModeTeam {
		return nil, ErrTournamentInvalidMode
	}
	if mode != models.ModeSolo && (input.TeamName == nil || *input.TeamName == "") {
		return nil, ErrTeamNameRequired
	}

	// One active (non-rejected) registration per user per tournament.
	existing, err := s.registrationRepo.FindActiveByUserAndTournament(ctx, userID, tournamentID)
	if err != nil && !errors.Is(err, repositories.ErrRegistrationNotFound) {
		return nil, fmt.Errorf("failed to check for existing registration: %w", err)
	}
	if existing != nil {
		return nil, ErrRegistrationConflict
	}

	maxPlayers := maxTeamPlayers
	if mode == models.ModeSolo {
		maxPlayers = 1
	}
	players := input.Players
	if len(players) > maxPlayers {
		players = players[:maxPlayers]
	}

	playerCount := input.PlayerCount
	if playerCount <= 0 {
		playerCount = len(players)
	}

	registration := &models.Registration{
		TournamentID:   tournamentID,
		UserID:         userID,
		UserName:       input.UserName,
		UserEmail:      input.UserEmail,
		TeamName:       registrationTeamName(mode, input.TeamName, input.UserName, userID),
		Mode:           mode,
		ContactEmail:   input.ContactEmail,
		ContactPhone:   input.ContactPhone,
		DiscordHandle:  input.DiscordHandle,
		AdditionalInfo: input.AdditionalInfo,
		PlayerCount:    playerCount,
		Players:        players,
		Status:         models.RegistrationPending,
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		// The conditional increment is the authoritative capacity check:
		// a racing registration that takes the last slot makes this fail
		// with zero rows affected and nothing is persisted.
		if err := s.tournamentRepo.ClaimSlot(ctx, exec, tournamentID); err != nil {
			if errors.Is(err, repositories.ErrNoFreeSlots) {
				return ErrTournamentFull
			}
			return err
		}
		return s.registrationRepo.Create(ctx, exec, registration)
	})
	if err != nil {
		if errors.Is(err, ErrTournamentFull) {
			return nil, ErrTournamentFull
		}
		return nil, fmt.Errorf("failed to submit registration: %w", err)
	}

	s.broadcastWithSlots(ctx, tournamentID, live.EventRegistrationCreated, registration)
	return registration, nil
}

// ListTournamentRegistrations returns all registrations for a tournament,
// newest first. Reads are unrestricted.
func (s *RegistrationService) ListTournamentRegistrations(ctx context.Context, tournamentID int) ([]models.Registration, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	registrations, err := s.registrationRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations for tournament %d: %w", tournamentID, err)
	}
	return registrations, nil
}

// UpdateRegistrationStatus moves a registration between pending, approved
// and rejected, reconciling the tournament slot counter. Only the owning
// organizer may change statuses. Moving into rejected frees a slot; moving
// out of rejected takes one and is refused when the tournament is full.
func (s *RegistrationService) UpdateRegistrationStatus(ctx context.Context, registrationID, currentUserID int, status models.RegistrationStatus) (*models.Registration, error) {
	switch status {
	case models.RegistrationPending, models.RegistrationApproved, models.RegistrationRejected:
	default:
		return nil, ErrRegistrationInvalidStatus
	}

	registration, err := s.registrationRepo.FindByID(ctx, nil, registrationID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to load registration %d: %w", registrationID, err)
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, nil, registration.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", registration.TournamentID, err)
	}
	if tournament.OrganizerID != currentUserID {
		return nil, ErrForbiddenOperation
	}

	wasRejected := registration.Status == models.RegistrationRejected
	willBeRejected := status == models.RegistrationRejected

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		switch {
		case !wasRejected && willBeRejected:
			if err := s.tournamentRepo.ReleaseSlot(ctx, exec, tournament.ID); err != nil {
				if errors.Is(err, repositories.ErrNoFreeSlots) {
					// Counter already at zero: inconsistent, but refusing the
					// rejection would only make it worse.
					s.logger.Warn("slot counter already zero while rejecting registration",
						slog.Int("tournament_id", tournament.ID),
						slog.Int("registration_id", registrationID))
				} else {
					return err
				}
			}
		case wasRejected && !willBeRejected:
			if err := s.tournamentRepo.ClaimSlot(ctx, exec, tournament.ID); err != nil {
				if errors.Is(err, repositories.ErrNoFreeSlots) {
					return ErrNoFreeSlots
				}
				return err
			}
		}
		return s.registrationRepo.UpdateStatus(ctx, exec, registrationID, status)
	})
	if err != nil {
		if errors.Is(err, ErrNoFreeSlots) {
			return nil, ErrNoFreeSlots
		}
		return nil, fmt.Errorf("failed to update registration %d status: %w", registrationID, err)
	}

	updated, err := s.registrationRepo.FindByID(ctx, nil, registrationID)
	if err != nil {
		// The update committed; fall back to the in-memory copy.
		registration.Status = status
		updated = registration
	}

	s.broadcastWithSlots(ctx, tournament.ID, live.EventRegistrationStatusChanged, updated)
	return updated, nil
}

// broadcastWithSlots pushes the registration event together with the
// tournament's current slot usage so dashboards update without refetching.
func (s *RegistrationService) broadcastWithSlots(ctx context.Context, tournamentID int, eventType string, registration *models.Registration) {
	if s.hub == nil {
		return
	}
	payload := map[string]interface{}{"registration": registration}
	if tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err == nil {
		payload["registered_teams"] = tournament.RegisteredTeams
		payload["total_slots"] = tournament.TotalSlots
		payload["tournament_status"] = tournament.Status
	}
	s.hub.BroadcastToRoom(live.TournamentRoom(tournamentID), eventType, payload)
}

func registrationTeamName(mode models.RegistrationMode, teamName, userName *string, userID int) *string {
	if teamName != nil && *teamName != "" {
		return teamName
	}
	if mode != models.ModeSolo {
		return teamName
	}
	// Solo signups without a team name get a synthesized identifier.
	if userName != nil && *userName != "" {
		return userName
	}
	synthesized := fmt.Sprintf("solo-%d", userID)
	return &synthesized
}
