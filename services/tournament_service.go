package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/arenaops/tournament-hub/live"
	"github.com/arenaops/tournament-hub/models"
	"github.com/arenaops/tournament-hub/repositories"
	"github.com/arenaops/tournament-hub/storage"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const maxTeamPlayers = 6

type CreateTournamentInput struct {
	Title            string     `json:"title"`
	Game             string     `json:"game"`
	Description      *string    `json:"description"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	TotalSlots       int        `json:"total_slots"`
	Format           *string    `json:"format"`
	PrizePool        *string    `json:"prize_pool"`
	RegistrationMode string     `json:"registration_mode"`
	RegistrationType string     `json:"registration_type"`
}

// UpdateTournamentDetailsInput merges only the fields that were provided.
// The organizer is immutable through this path.
type UpdateTournamentDetailsInput struct {
	Title            *string    `json:"title"`
	Game             *string    `json:"game"`
	Description      *string    `json:"description"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	TotalSlots       *int       `json:"total_slots"`
	Status           *string    `json:"status"`
	Format           *string    `json:"format"`
	PrizePool        *string    `json:"prize_pool"`
	RegistrationMode *string    `json:"registration_mode"`
	RegistrationType *string    `json:"registration_type"`
	OrganizerName    *string    `json:"organizer_name"`
}

type TournamentService struct {
	tx               Transactor
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	userRepo         repositories.UserRepository
	uploader         storage.FileUploader
	hub              Broadcaster
	clock            clockwork.Clock
	logger           *slog.Logger
}

func NewTournamentService(
	tx Transactor,
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
	hub Broadcaster,
	clock clockwork.Clock,
	logger *slog.Logger,
) *TournamentService {
	return &TournamentService{
		tx:               tx,
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		userRepo:         userRepo,
		uploader:         uploader,
		hub:              hub,
		clock:            clock,
		logger:           logger,
	}
}

// CreateTournament persists a new tournament owned by organizerID. The
// organizer identity comes from the authenticated session, never from the
// request body.
func (s *TournamentService) CreateTournament(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Title == "" {
		return nil, ErrTournamentTitleRequired
	}
	if input.Game == "" {
		return nil, ErrTournamentGameRequired
	}
	if input.TotalSlots <= 0 {
		return nil, ErrTournamentInvalidCapacity
	}

	mode := models.RegistrationMode(input.RegistrationMode)
	if mode == "" {
		mode = models.ModeSolo
	}
	if mode != models.ModeSolo && mode != models.ModeTeam {
		return nil, ErrTournamentInvalidMode
	}

	regType := models.RegistrationType(input.RegistrationType)
	if regType == "" {
		regType = models.TypeFree
	}
	if regType != models.TypeFree && regType != models.TypePaid && regType != models.TypeInvite {
		return nil, ErrTournamentInvalidType
	}

	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return nil, ErrTournamentInvalidDateRange
	}

	organizer, err := s.userRepo.GetByID(ctx, organizerID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load organizer %d: %w", organizerID, err)
	}

	tournament := &models.Tournament{
		Title:            input.Title,
		Game:             input.Game,
		Description:      input.Description,
		StartDate:        input.StartDate,
		EndDate:          input.EndDate,
		TotalSlots:       input.TotalSlots,
		RegisteredTeams:  0,
		Status:           models.StatusUpcoming,
		Format:           input.Format,
		PrizePool:        input.PrizePool,
		RegistrationMode: mode,
		RegistrationType: regType,
		OrganizerID:      organizerID,
		OrganizerName:    organizerDisplayName(organizer),
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	s.populateImageURL(tournament)
	return tournament, nil
}

func (s *TournamentService) GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}
	s.populateImageURL(tournament)
	return tournament, nil
}

func (s *TournamentService) ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	for i := range tournaments {
		s.populateImageURL(&tournaments[i])
	}
	return tournaments, nil
}

// UpdateTournamentDetails merges the provided fields into the tournament.
// Only the owning organizer may update.
func (s *TournamentService) UpdateTournamentDetails(ctx context.Context, id, currentUserID int, input UpdateTournamentDetailsInput) (*models.Tournament, error) {
	tournament, err := s.GetTournamentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament.OrganizerID != currentUserID {
		return nil, ErrForbiddenOperation
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, ErrTournamentTitleRequired
		}
		tournament.Title = *input.Title
	}
	if input.Game != nil {
		if *input.Game == "" {
			return nil, ErrTournamentGameRequired
		}
		tournament.Game = *input.Game
	}
	if input.Description != nil {
		tournament.Description = input.Description
	}
	if input.StartDate != nil {
		tournament.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		tournament.EndDate = input.EndDate
	}
	if input.Format != nil {
		tournament.Format = input.Format
	}
	if input.PrizePool != nil {
		tournament.PrizePool = input.PrizePool
	}
	if input.OrganizerName != nil {
		tournament.OrganizerName = input.OrganizerName
	}
	if input.RegistrationMode != nil {
		mode := models.RegistrationMode(*input.RegistrationMode)
		if mode != models.ModeSolo && mode != models.ModeTeam {
			return nil, ErrTournamentInvalidMode
		}
		tournament.RegistrationMode = mode
	}
	if input.RegistrationType != nil {
		regType := models.RegistrationType(*input.RegistrationType)
		if regType != models.TypeFree && regType != models.TypePaid && regType != models.TypeInvite {
			return nil, ErrTournamentInvalidType
		}
		tournament.RegistrationType = regType
	}
	if input.TotalSlots != nil {
		// Capacity can never shrink below the number of occupied slots.
		if *input.TotalSlots <= 0 || *input.TotalSlots < tournament.RegisteredTeams {
			return nil, ErrTournamentInvalidCapacity
		}
		tournament.TotalSlots = *input.TotalSlots
		if tournament.Status == models.StatusFull && tournament.RegisteredTeams < tournament.TotalSlots {
			tournament.Status = models.StatusUpcoming
		}
	}
	if input.Status != nil {
		status := models.TournamentStatus(*input.Status)
		switch status {
		case models.StatusUpcoming, models.StatusActive, models.StatusFull, models.StatusCompleted:
			tournament.Status = status
		default:
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidationFailed, *input.Status)
		}
	}
	if tournament.StartDate != nil && tournament.EndDate != nil && tournament.EndDate.Before(*tournament.StartDate) {
		return nil, ErrTournamentInvalidDateRange
	}

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to update tournament %d: %w", id, err)
	}

	s.populateImageURL(tournament)
	s.broadcast(tournament.ID, live.EventTournamentUpdated, tournament)
	return tournament, nil
}

// DeleteTournament removes the tournament and all of its registrations in a
// single transaction. The cascade is explicit so no orphaned registrations
// remain retrievable.
func (s *TournamentService) DeleteTournament(ctx context.Context, id, currentUserID int) error {
	tournament, err := s.GetTournamentByID(ctx, id)
	if err != nil {
		return err
	}
	if tournament.OrganizerID != currentUserID {
		return ErrForbiddenOperation
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		deleted, err := s.registrationRepo.DeleteByTournament(ctx, exec, id)
		if err != nil {
			return err
		}
		if deleted > 0 {
			s.logger.Info("cascading registration delete",
				slog.Int("tournament_id", id), slog.Int64("registrations", deleted))
		}
		return s.tournamentRepo.Delete(ctx, exec, id)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to delete tournament %d: %w", id, err)
	}

	if tournament.ImageKey != nil && s.uploader != nil {
		if err := s.uploader.Delete(ctx, *tournament.ImageKey); err != nil {
			s.logger.Warn("failed to delete tournament banner",
				slog.Int("tournament_id", id), slog.Any("error", err))
		}
	}

	s.broadcast(id, live.EventTournamentDeleted, map[string]int{"tournament_id": id})
	return nil
}

// UploadBanner replaces the tournament banner image. Only the owning
// organizer may upload; the previous object is removed best-effort.
func (s *TournamentService) UploadBanner(ctx context.Context, id, currentUserID int, contentType string, file io.Reader) (*models.Tournament, error) {
	tournament, err := s.GetTournamentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament.OrganizerID != currentUserID {
		return nil, ErrForbiddenOperation
	}
	if s.uploader == nil {
		return nil, errors.New("file uploads are not configured")
	}

	ext, err := extensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	key := fmt.Sprintf("tournaments/%d/banner-%s%s", id, uuid.NewString(), ext)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload banner: %w", err)
	}

	oldKey := tournament.ImageKey
	if err := s.tournamentRepo.UpdateImageKey(ctx, id, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to store banner key: %w", err)
	}
	tournament.ImageKey = &result.Key

	if oldKey != nil && *oldKey != result.Key {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.Warn("failed to delete previous banner",
				slog.Int("tournament_id", id), slog.String("key", *oldKey), slog.Any("error", err))
		}
	}

	s.populateImageURL(tournament)
	s.broadcast(tournament.ID, live.EventTournamentUpdated, tournament)
	return tournament, nil
}

// AdvanceStatusesByDates applies date-driven lifecycle transitions. Run
// periodically by the scheduler.
func (s *TournamentService) AdvanceStatusesByDates(ctx context.Context) error {
	started, completed, err := s.tournamentRepo.AdvanceStatusesByDate(ctx, s.clock.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to advance tournament statuses: %w", err)
	}
	if started > 0 || completed > 0 {
		s.logger.Info("advanced tournament statuses",
			slog.Int64("started", started), slog.Int64("completed", completed))
	}
	return nil
}

func (s *TournamentService) populateImageURL(t *models.Tournament) {
	if t == nil || t.ImageKey == nil || *t.ImageKey == "" || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*t.ImageKey); url != "" {
		t.ImageURL = &url
	}
}

func (s *TournamentService) broadcast(tournamentID int, eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(live.TournamentRoom(tournamentID), eventType, payload)
}

func organizerDisplayName(u *models.User) *string {
	if u == nil {
		return nil
	}
	if u.Name != nil && *u.Name != "" {
		return u.Name
	}
	email := u.Email
	return &email
}

func extensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", fmt.Errorf("unsupported image content type %q", contentType)
	}
}
