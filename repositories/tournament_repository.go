package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/arenaops/tournament-hub/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound   = errors.New("tournament not found")
	ErrTournamentInvalidOrg = errors.New("invalid organizer reference")

	// ErrNoFreeSlots is returned by ClaimSlot when every slot is already
	// taken, and by ReleaseSlot when the counter is already at zero.
	ErrNoFreeSlots = errors.New("no free slots available")
)

type ListTournamentsFilter struct {
	OrganizerID *int
	Status      *models.TournamentStatus
	Game        *string
	Limit       int
	Offset      int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	UpdateImageKey(ctx context.Context, tournamentID int, imageKey *string) error

	// ClaimSlot atomically takes one slot if any is free, flipping status
	// to "full" when the increment exhausts capacity. Returns
	// ErrNoFreeSlots without modifying anything when at capacity.
	ClaimSlot(ctx context.Context, exec SQLExecutor, id int) error

	// ReleaseSlot atomically frees one slot, reverting a "full" tournament
	// to "upcoming".
	ReleaseSlot(ctx context.Context, exec SQLExecutor, id int) error

	// AdvanceStatusesByDate applies date-driven lifecycle transitions:
	// upcoming tournaments whose start date has passed become active, and
	// started tournaments whose end date has passed become completed.
	AdvanceStatusesByDate(ctx context.Context, now time.Time) (started, completed int64, err error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, title, game, description, start_date, end_date,
	total_slots, registered_teams, status, format, prize_pool,
	registration_mode, registration_type, organizer_id, organizer_name,
	created_at, updated_at, image_key`

func scanTournament(row interface {
	Scan(dest ...interface{}) error
}, t *models.Tournament) error {
	return row.Scan(
		&t.ID, &t.Title, &t.Game, &t.Description, &t.StartDate, &t.EndDate,
		&t.TotalSlots, &t.RegisteredTeams, &t.Status, &t.Format, &t.PrizePool,
		&t.RegistrationMode, &t.RegistrationType, &t.OrganizerID, &t.OrganizerName,
		&t.CreatedAt, &t.UpdatedAt, &t.ImageKey,
	)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			title, game, description, start_date, end_date, total_slots,
			registered_teams, status, format, prize_pool,
			registration_mode, registration_type, organizer_id, organizer_name, image_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Title, t.Game, t.Description, t.StartDate, t.EndDate, t.TotalSlots,
		t.RegisteredTeams, t.Status, t.Format, t.PrizePool,
		t.RegistrationMode, t.RegistrationType, t.OrganizerID, t.OrganizerName, t.ImageKey,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t := &models.Tournament{}
	err := scanTournament(executor.QueryRowContext(ctx, query, id), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.OrganizerID != nil {
		query += fmt.Sprintf(" AND organizer_id = $%d", argID)
		args = append(args, *filter.OrganizerID)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.Game != nil {
		query += fmt.Sprintf(" AND game = $%d", argID)
		args = append(args, *filter.Game)
		argID++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	// registered_teams and image_key have dedicated update paths;
	// organizer_id is immutable.
	query := `
		UPDATE tournaments SET
			title = $1,
			game = $2,
			description = $3,
			start_date = $4,
			end_date = $5,
			total_slots = $6,
			status = $7,
			format = $8,
			prize_pool = $9,
			registration_mode = $10,
			registration_type = $11,
			organizer_name = $12,
			updated_at = now()
		WHERE id = $13
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Title, t.Game, t.Description, t.StartDate, t.EndDate, t.TotalSlots,
		t.Status, t.Format, t.PrizePool, t.RegistrationMode, t.RegistrationType,
		t.OrganizerName, t.ID,
	).Scan(&t.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTournamentNotFound
		}
		return r.handleTournamentError(err)
	}
	return nil
}

func (r *postgresTournamentRepository) UpdateImageKey(ctx context.Context, tournamentID int, imageKey *string) error {
	query := `UPDATE tournaments SET image_key = $1, updated_at = now() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, imageKey, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to update tournament image key: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) ClaimSlot(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	// The capacity check and the increment are a single conditional update,
	// so two racing registrations cannot both take the last slot.
	query := `
		UPDATE tournaments SET
			registered_teams = registered_teams + 1,
			status = CASE WHEN registered_teams + 1 >= total_slots THEN 'full' ELSE status END,
			updated_at = now()
		WHERE id = $1 AND registered_teams < total_slots`

	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to claim tournament slot: %w", err)
	}
	return checkAffectedRows(result, ErrNoFreeSlots)
}

func (r *postgresTournamentRepository) ReleaseSlot(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments SET
			registered_teams = registered_teams - 1,
			status = CASE WHEN status = 'full' THEN 'upcoming' ELSE status END,
			updated_at = now()
		WHERE id = $1 AND registered_teams > 0`

	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to release tournament slot: %w", err)
	}
	return checkAffectedRows(result, ErrNoFreeSlots)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM tournaments WHERE id = $1`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) AdvanceStatusesByDate(ctx context.Context, now time.Time) (int64, int64, error) {
	startQuery := `
		UPDATE tournaments SET status = $1, updated_at = now()
		WHERE status = $2 AND start_date IS NOT NULL AND start_date <= $3`

	startResult, err := r.db.ExecContext(ctx, startQuery, models.StatusActive, models.StatusUpcoming, now)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to activate started tournaments: %w", err)
	}
	started, err := startResult.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count activated tournaments: %w", err)
	}

	endQuery := `
		UPDATE tournaments SET status = $1, updated_at = now()
		WHERE status IN ($2, $3) AND end_date IS NOT NULL AND end_date <= $4`

	endResult, err := r.db.ExecContext(ctx, endQuery, models.StatusCompleted, models.StatusActive, models.StatusFull, now)
	if err != nil {
		return started, 0, fmt.Errorf("failed to complete ended tournaments: %w", err)
	}
	completed, err := endResult.RowsAffected()
	if err != nil {
		return started, 0, fmt.Errorf("failed to count completed tournaments: %w", err)
	}

	return started, completed, nil
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23503" && pqErr.Constraint == "tournaments_organizer_id_fkey" {
			return ErrTournamentInvalidOrg
		}
	}
	return err
}
