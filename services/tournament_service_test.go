package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/arenaops/tournament-hub/live"
	"github.com/arenaops/tournament-hub/models"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

type tournamentFixture struct {
	svc              *TournamentService
	tournamentRepo   *fakeTournamentRepo
	registrationRepo *fakeRegistrationRepo
	userRepo         *fakeUserRepo
	uploader         *fakeUploader
	hub              *recordingBroadcaster
	clock            *clockwork.FakeClock
}

func newTournamentFixture(t *testing.T) *tournamentFixture {
	t.Helper()
	f := &tournamentFixture{
		tournamentRepo:   newFakeTournamentRepo(),
		registrationRepo: newFakeRegistrationRepo(),
		userRepo:         newFakeUserRepo(),
		uploader:         &fakeUploader{baseURL: "https://cdn.example.com"},
		hub:              &recordingBroadcaster{},
		clock:            clockwork.NewFakeClock(),
	}
	f.svc = NewTournamentService(
		&fakeTransactor{},
		f.tournamentRepo,
		f.registrationRepo,
		f.userRepo,
		f.uploader,
		f.hub,
		f.clock,
		testLogger(),
	)
	return f
}

func (f *tournamentFixture) seedOrganizer(id int, name string) *models.User {
	return f.userRepo.add(&models.User{ID: id, Name: strPtr(name), Email: name + "@example.com"})
}

func validCreateInput() CreateTournamentInput {
	return CreateTournamentInput{
		Title:            "Summer Cup",
		Game:             "CS2",
		TotalSlots:       16,
		RegistrationMode: string(models.ModeTeam),
		RegistrationType: string(models.TypeFree),
	}
}

func TestCreateTournament(t *testing.T) {
	tests := []struct {
		name    string
		input   func() CreateTournamentInput
		wantErr error
	}{
		{
			name:  "valid input",
			input: validCreateInput,
		},
		{
			name: "missing title",
			input: func() CreateTournamentInput {
				in := validCreateInput()
				in.Title = ""
				return in
			},
			wantErr: ErrTournamentTitleRequired,
		},
		{
			name: "missing game",
			input: func() CreateTournamentInput {
				in := validCreateInput()
				in.Game = ""
				return in
			},
			wantErr: ErrTournamentGameRequired,
		},
		{
			name: "zero capacity",
			input: func() CreateTournamentInput {
				in := validCreateInput()
				in.TotalSlots = 0
				return in
			},
			wantErr: ErrTournamentInvalidCapacity,
		},
		{
			name: "negative capacity",
			input: func() CreateTournamentInput {
				in := validCreateInput()
				in.TotalSlots = -4
				return in
			},
			wantErr: ErrTournamentInvalidCapacity,
		},
		{
			name: "unknown mode",
			input: func() CreateTournamentInput {
				in := validCreateInput()
				in.RegistrationMode = "trio"
				return in
			},
			wantErr: ErrTournamentInvalidMode,
		},
		{
			name: "unknown type",
			input: func() CreateTournamentInput {
				in := validCreateInput()
				in.RegistrationType = "sponsored"
				return in
			},
			wantErr: ErrTournamentInvalidType,
		},
		{
			name: "end date before start date",
			input: func() CreateTournamentInput {
				in := validCreateInput()
				start := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
				end := start.Add(-24 * time.Hour)
				in.StartDate = &start
				in.EndDate = &end
				return in
			},
			wantErr: ErrTournamentInvalidDateRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTournamentFixture(t)
			f.seedOrganizer(42, "casey")

			tournament, err := f.svc.CreateTournament(context.Background(), 42, tt.input())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, models.StatusUpcoming, tournament.Status)
			assert.Equal(t, 0, tournament.RegisteredTeams)
			assert.Equal(t, 42, tournament.OrganizerID)
			require.NotNil(t, tournament.OrganizerName)
			assert.Equal(t, "casey", *tournament.OrganizerName)
		})
	}
}

func TestCreateTournamentDefaultsModeAndType(t *testing.T) {
	f := newTournamentFixture(t)
	f.seedOrganizer(42, "casey")

	input := validCreateInput()
	input.RegistrationMode = ""
	input.RegistrationType = ""

	tournament, err := f.svc.CreateTournament(context.Background(), 42, input)
	require.NoError(t, err)
	assert.Equal(t, models.ModeSolo, tournament.RegistrationMode)
	assert.Equal(t, models.TypeFree, tournament.RegistrationType)
}

func TestCreateTournamentUnknownOrganizer(t *testing.T) {
	f := newTournamentFixture(t)

	_, err := f.svc.CreateTournament(context.Background(), 42, validCreateInput())
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateTournamentDetails(t *testing.T) {
	f := newTournamentFixture(t)
	f.seedOrganizer(42, "casey")
	tournament := f.tournamentRepo.add(&models.Tournament{
		Title:            "Summer Cup",
		Game:             "CS2",
		TotalSlots:       16,
		RegisteredTeams:  4,
		Status:           models.StatusUpcoming,
		RegistrationMode: models.ModeTeam,
		RegistrationType: models.TypeFree,
		OrganizerID:      42,
	})

	updated, err := f.svc.UpdateTournamentDetails(context.Background(), tournament.ID, 42, UpdateTournamentDetailsInput{
		Title:     strPtr("Autumn Cup"),
		PrizePool: strPtr("$5000"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Autumn Cup", updated.Title)
	require.NotNil(t, updated.PrizePool)
	assert.Equal(t, "$5000", *updated.PrizePool)
	// Untouched fields survive the merge.
	assert.Equal(t, "CS2", updated.Game)
	assert.Equal(t, 16, updated.TotalSlots)

	assert.Contains(t, f.hub.eventTypes(), live.EventTournamentUpdated)
}

func TestUpdateTournamentDetailsForbiddenForNonOwner(t *testing.T) {
	f := newTournamentFixture(t)
	tournament := f.tournamentRepo.add(&models.Tournament{
		Title: "Summer Cup", Game: "CS2", TotalSlots: 16,
		Status: models.StatusUpcoming, OrganizerID: 42,
		RegistrationMode: models.ModeTeam, RegistrationType: models.TypeFree,
	})

	_, err := f.svc.UpdateTournamentDetails(context.Background(), tournament.ID, 99, UpdateTournamentDetailsInput{
		Title: strPtr("Hijacked"),
	})
	require.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestUpdateTournamentDetailsCapacity(t *testing.T) {
	tests := []struct {
		name       string
		registered int
		newSlots   int
		wantErr    error
	}{
		{name: "grow capacity", registered: 4, newSlots: 32},
		{name: "shrink above occupancy", registered: 4, newSlots: 8},
		{name: "shrink below occupancy", registered: 4, newSlots: 3, wantErr: ErrTournamentInvalidCapacity},
		{name: "shrink to zero", registered: 0, newSlots: 0, wantErr: ErrTournamentInvalidCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTournamentFixture(t)
			tournament := f.tournamentRepo.add(&models.Tournament{
				Title: "Summer Cup", Game: "CS2",
				TotalSlots: 16, RegisteredTeams: tt.registered,
				Status: models.StatusUpcoming, OrganizerID: 42,
				RegistrationMode: models.ModeTeam, RegistrationType: models.TypeFree,
			})

			updated, err := f.svc.UpdateTournamentDetails(context.Background(), tournament.ID, 42, UpdateTournamentDetailsInput{
				TotalSlots: intPtr(tt.newSlots),
			})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.newSlots, updated.TotalSlots)
		})
	}
}

func TestUpdateTournamentDetailsGrowingFullTournamentReopens(t *testing.T) {
	f := newTournamentFixture(t)
	tournament := f.tournamentRepo.add(&models.Tournament{
		Title: "Summer Cup", Game: "CS2",
		TotalSlots: 4, RegisteredTeams: 4,
		Status: models.StatusFull, OrganizerID: 42,
		RegistrationMode: models.ModeTeam, RegistrationType: models.TypeFree,
	})

	updated, err := f.svc.UpdateTournamentDetails(context.Background(), tournament.ID, 42, UpdateTournamentDetailsInput{
		TotalSlots: intPtr(8),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpcoming, updated.Status)
}

func TestDeleteTournamentCascades(t *testing.T) {
	f := newTournamentFixture(t)
	tournament := f.tournamentRepo.add(&models.Tournament{
		Title: "Summer Cup", Game: "CS2", TotalSlots: 16,
		Status: models.StatusUpcoming, OrganizerID: 42,
		RegistrationMode: models.ModeTeam, RegistrationType: models.TypeFree,
	})
	f.registrationRepo.add(&models.Registration{TournamentID: tournament.ID, UserID: 1, Status: models.RegistrationPending})
	f.registrationRepo.add(&models.Registration{TournamentID: tournament.ID, UserID: 2, Status: models.RegistrationApproved})

	err := f.svc.DeleteTournament(context.Background(), tournament.ID, 42)
	require.NoError(t, err)

	_, err = f.tournamentRepo.GetByID(context.Background(), nil, tournament.ID)
	assert.Error(t, err)

	regs, err := f.registrationRepo.ListByTournament(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Empty(t, regs, "registrations must be deleted with the tournament")

	assert.Contains(t, f.hub.eventTypes(), live.EventTournamentDeleted)
}

func TestDeleteTournamentForbiddenForNonOwner(t *testing.T) {
	f := newTournamentFixture(t)
	tournament := f.tournamentRepo.add(&models.Tournament{
		Title: "Summer Cup", Game: "CS2", TotalSlots: 16,
		Status: models.StatusUpcoming, OrganizerID: 42,
		RegistrationMode: models.ModeTeam, RegistrationType: models.TypeFree,
	})

	err := f.svc.DeleteTournament(context.Background(), tournament.ID, 99)
	require.ErrorIs(t, err, ErrForbiddenOperation)

	_, err = f.tournamentRepo.GetByID(context.Background(), nil, tournament.ID)
	require.NoError(t, err)
}

func TestUploadBanner(t *testing.T) {
	f := newTournamentFixture(t)
	oldKey := "tournaments/1/banner-old.png"
	tournament := f.tournamentRepo.add(&models.Tournament{
		Title: "Summer Cup", Game: "CS2", TotalSlots: 16,
		Status: models.StatusUpcoming, OrganizerID: 42,
		RegistrationMode: models.ModeTeam, RegistrationType: models.TypeFree,
		ImageKey: &oldKey,
	})

	updated, err := f.svc.UploadBanner(context.Background(), tournament.ID, 42, "image/png", bytes.NewReader([]byte("img")))
	require.NoError(t, err)

	require.NotNil(t, updated.ImageKey)
	assert.NotEqual(t, oldKey, *updated.ImageKey)
	require.NotNil(t, updated.ImageURL)

	require.Len(t, f.uploader.uploads, 1)
	assert.Equal(t, []string{oldKey}, f.uploader.deletes, "previous banner object should be removed")
}

func TestUploadBannerRejectsUnsupportedType(t *testing.T) {
	f := newTournamentFixture(t)
	tournament := f.tournamentRepo.add(&models.Tournament{
		Title: "Summer Cup", Game: "CS2", TotalSlots: 16,
		Status: models.StatusUpcoming, OrganizerID: 42,
		RegistrationMode: models.ModeTeam, RegistrationType: models.TypeFree,
	})

	_, err := f.svc.UploadBanner(context.Background(), tournament.ID, 42, "application/pdf", bytes.NewReader([]byte("%PDF")))
	require.ErrorIs(t, err, ErrValidationFailed)
	assert.Empty(t, f.uploader.uploads)
}

func TestAdvanceStatusesByDates(t *testing.T) {
	f := newTournamentFixture(t)
	now := f.clock.Now().UTC()

	started := now.Add(-time.Hour)
	ended := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	toActivate := f.tournamentRepo.add(&models.Tournament{
		Title: "A", Game: "CS2", TotalSlots: 8,
		Status: models.StatusUpcoming, StartDate: &started, OrganizerID: 42,
		RegistrationMode: models.ModeTeam, RegistrationType: models.TypeFree,
	})
	toComplete := f.tournamentRepo.add(&models.Tournament{
		Title: "B", Game: "CS2", TotalSlots: 8,
		Status: models.StatusActive, EndDate: &ended, OrganizerID: 42,
		RegistrationMode: models.ModeTeam, RegistrationType: models.TypeFree,
	})
	untouched := f.tournamentRepo.add(&models.Tournament{
		Title: "C", Game: "CS2", TotalSlots: 8,
		Status: models.StatusUpcoming, StartDate: &future, OrganizerID: 42,
		RegistrationMode: models.ModeTeam, RegistrationType: models.TypeFree,
	})

	require.NoError(t, f.svc.AdvanceStatusesByDates(context.Background()))

	activated, _ := f.tournamentRepo.GetByID(context.Background(), nil, toActivate.ID)
	assert.Equal(t, models.StatusActive, activated.Status)

	completed, _ := f.tournamentRepo.GetByID(context.Background(), nil, toComplete.ID)
	assert.Equal(t, models.StatusCompleted, completed.Status)

	still, _ := f.tournamentRepo.GetByID(context.Background(), nil, untouched.ID)
	assert.Equal(t, models.StatusUpcoming, still.Status)
}

func TestGetTournamentByIDPopulatesImageURL(t *testing.T) {
	f := newTournamentFixture(t)
	key := "tournaments/1/banner-abc.png"
	tournament := f.tournamentRepo.add(&models.Tournament{
		Title: "Summer Cup", Game: "CS2", TotalSlots: 16,
		Status: models.StatusUpcoming, OrganizerID: 42,
		RegistrationMode: models.ModeTeam, RegistrationType: models.TypeFree,
		ImageKey: &key,
	})

	got, err := f.svc.GetTournamentByID(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ImageURL)
	assert.Equal(t, "https://cdn.example.com/"+key, *got.ImageURL)
}
