package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arenaops/tournament-hub/models"
	"github.com/lib/pq"
)

var (
	ErrRegistrationNotFound          = errors.New("registration not found")
	ErrRegistrationUserInvalid       = errors.New("registration user conflict or invalid")
	ErrRegistrationTournamentInvalid = errors.New("registration tournament conflict or invalid")
)

type RegistrationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error
	FindByID(ctx context.Context, exec SQLExecutor, id int) (*models.Registration, error)
	// FindActiveByUserAndTournament looks for a non-rejected registration
	// by the given user against the given tournament.
	FindActiveByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.Registration, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Registration, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RegistrationStatus) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int64, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const registrationColumns = `
	id, tournament_id, user_id, user_name, user_email, team_name, mode,
	contact_email, contact_phone, discord_handle, additional_info,
	player_count, players, status, created_at, updated_at`

func scanRegistration(row interface {
	Scan(dest ...interface{}) error
}, reg *models.Registration) error {
	return row.Scan(
		&reg.ID, &reg.TournamentID, &reg.UserID, &reg.UserName, &reg.UserEmail,
		&reg.TeamName, &reg.Mode, &reg.ContactEmail, &reg.ContactPhone,
		&reg.DiscordHandle, &reg.AdditionalInfo, &reg.PlayerCount, &reg.Players,
		&reg.Status, &reg.CreatedAt, &reg.UpdatedAt,
	)
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO registrations (
			tournament_id, user_id, user_name, user_email, team_name, mode,
			contact_email, contact_phone, discord_handle, additional_info,
			player_count, players, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`

	err := executor.QueryRowContext(ctx, query,
		reg.TournamentID, reg.UserID, reg.UserName, reg.UserEmail, reg.TeamName,
		reg.Mode, reg.ContactEmail, reg.ContactPhone, reg.DiscordHandle,
		reg.AdditionalInfo, reg.PlayerCount, reg.Players, reg.Status,
	).Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			switch pqErr.Constraint {
			case "registrations_user_id_fkey":
				return ErrRegistrationUserInvalid
			case "registrations_tournament_id_fkey":
				return ErrRegistrationTournamentInvalid
			}
		}
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func (r *postgresRegistrationRepository) FindByID(ctx context.Context, exec SQLExecutor, id int) (*models.Registration, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + registrationColumns + ` FROM registrations WHERE id = $1`

	reg := &models.Registration{}
	err := scanRegistration(executor.QueryRowContext(ctx, query, id), reg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to find registration: %w", err)
	}
	return reg, nil
}

func (r *postgresRegistrationRepository) FindActiveByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.Registration, error) {
	query := `SELECT` + registrationColumns + `
		FROM registrations
		WHERE user_id = $1 AND tournament_id = $2 AND status <> $3
		ORDER BY created_at DESC
		LIMIT 1`

	reg := &models.Registration{}
	err := scanRegistration(r.db.QueryRowContext(ctx, query, userID, tournamentID, models.RegistrationRejected), reg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to find registration by user and tournament: %w", err)
	}
	return reg, nil
}

func (r *postgresRegistrationRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Registration, error) {
	query := `SELECT` + registrationColumns + `
		FROM registrations
		WHERE tournament_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	registrations := make([]models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		if scanErr := scanRegistration(rows, &reg); scanErr != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", scanErr)
		}
		registrations = append(registrations, reg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration rows: %w", err)
	}
	return registrations, nil
}

func (r *postgresRegistrationRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RegistrationStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE registrations SET status = $1, updated_at = now() WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update registration status: %w", err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int64, error) {
	executor := r.getExecutor(exec)
	query := `DELETE FROM registrations WHERE tournament_id = $1`
	result, err := executor.ExecContext(ctx, query, tournamentID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete registrations for tournament %d: %w", tournamentID, err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted registrations: %w", err)
	}
	return deleted, nil
}
