package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/arenaops/tournament-hub/models"
	"github.com/arenaops/tournament-hub/repositories"
	"github.com/arenaops/tournament-hub/storage"
)

// fakeTransactor runs the function without a real transaction. Repositories
// backed by maps ignore the executor anyway.
type fakeTransactor struct {
	beginErr error
	calls    int
}

func (t *fakeTransactor) WithinTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	if t.beginErr != nil {
		return t.beginErr
	}
	t.calls++
	return fn(nil)
}

type recordedEvent struct {
	Room    string
	Type    string
	Payload interface{}
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *recordingBroadcaster) BroadcastToRoom(roomID, eventType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{Room: roomID, Type: eventType, Payload: payload})
}

func (b *recordingBroadcaster) eventTypes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	types := make([]string, 0, len(b.events))
	for _, ev := range b.events {
		types = append(types, ev.Type)
	}
	return types
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	tournaments map[int]*models.Tournament
	nextID      int

	claimErr   error
	releaseErr error
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament), nextID: 1}
}

func (r *fakeTournamentRepo) add(t *models.Tournament) *models.Tournament {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == 0 {
		t.ID = r.nextID
		r.nextID++
	} else if t.ID >= r.nextID {
		r.nextID = t.ID + 1
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	r.tournaments[t.ID] = t
	return t
}

func (r *fakeTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	r.add(t)
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTournamentRepo) List(_ context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Tournament, 0)
	for _, t := range r.tournaments {
		if filter.OrganizerID != nil && t.OrganizerID != *filter.OrganizerID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Game != nil && t.Game != *filter.Game {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTournamentRepo) Update(_ context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tournaments[t.ID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	// registered_teams keeps its dedicated update path.
	t.RegisteredTeams = stored.RegisteredTeams
	t.UpdatedAt = time.Now()
	copied := *t
	r.tournaments[t.ID] = &copied
	return nil
}

func (r *fakeTournamentRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

func (r *fakeTournamentRepo) UpdateImageKey(_ context.Context, id int, imageKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.ImageKey = imageKey
	return nil
}

func (r *fakeTournamentRepo) ClaimSlot(_ context.Context, _ repositories.SQLExecutor, id int) error {
	if r.claimErr != nil {
		return r.claimErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok || t.RegisteredTeams >= t.TotalSlots {
		return repositories.ErrNoFreeSlots
	}
	t.RegisteredTeams++
	if t.RegisteredTeams >= t.TotalSlots {
		t.Status = models.StatusFull
	}
	return nil
}

func (r *fakeTournamentRepo) ReleaseSlot(_ context.Context, _ repositories.SQLExecutor, id int) error {
	if r.releaseErr != nil {
		return r.releaseErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok || t.RegisteredTeams <= 0 {
		return repositories.ErrNoFreeSlots
	}
	t.RegisteredTeams--
	if t.Status == models.StatusFull {
		t.Status = models.StatusUpcoming
	}
	return nil
}

func (r *fakeTournamentRepo) AdvanceStatusesByDate(_ context.Context, now time.Time) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var started, completed int64
	for _, t := range r.tournaments {
		if t.Status == models.StatusUpcoming && t.StartDate != nil && !t.StartDate.After(now) {
			t.Status = models.StatusActive
			started++
		}
	}
	for _, t := range r.tournaments {
		if (t.Status == models.StatusActive || t.Status == models.StatusFull) &&
			t.EndDate != nil && !t.EndDate.After(now) {
			t.Status = models.StatusCompleted
			completed++
		}
	}
	return started, completed, nil
}

type fakeRegistrationRepo struct {
	mu            sync.Mutex
	registrations map[int]*models.Registration
	nextID        int

	createErr error
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{registrations: make(map[int]*models.Registration), nextID: 1}
}

func (r *fakeRegistrationRepo) add(reg *models.Registration) *models.Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reg.ID == 0 {
		reg.ID = r.nextID
		r.nextID++
	} else if reg.ID >= r.nextID {
		r.nextID = reg.ID + 1
	}
	now := time.Now()
	reg.CreatedAt = now
	reg.UpdatedAt = now
	r.registrations[reg.ID] = reg
	return reg
}

func (r *fakeRegistrationRepo) Create(_ context.Context, _ repositories.SQLExecutor, reg *models.Registration) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.add(reg)
	return nil
}

func (r *fakeRegistrationRepo) FindByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.registrations[id]
	if !ok {
		return nil, repositories.ErrRegistrationNotFound
	}
	copied := *reg
	return &copied, nil
}

func (r *fakeRegistrationRepo) FindActiveByUserAndTournament(_ context.Context, userID, tournamentID int) (*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.registrations {
		if reg.UserID == userID && reg.TournamentID == tournamentID && reg.Status != models.RegistrationRejected {
			copied := *reg
			return &copied, nil
		}
	}
	return nil, repositories.ErrRegistrationNotFound
}

func (r *fakeRegistrationRepo) ListByTournament(_ context.Context, tournamentID int) ([]models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Registration, 0)
	for _, reg := range r.registrations {
		if reg.TournamentID == tournamentID {
			out = append(out, *reg)
		}
	}
	return out, nil
}

func (r *fakeRegistrationRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.RegistrationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.registrations[id]
	if !ok {
		return repositories.ErrRegistrationNotFound
	}
	reg.Status = status
	reg.UpdatedAt = time.Now()
	return nil
}

func (r *fakeRegistrationRepo) DeleteByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, reg := range r.registrations {
		if reg.TournamentID == tournamentID {
			delete(r.registrations, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int]*models.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*models.User), nextID: 1}
}

func (r *fakeUserRepo) add(u *models.User) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == 0 {
		u.ID = r.nextID
		r.nextID++
	} else if u.ID >= r.nextID {
		r.nextID = u.ID + 1
	}
	u.CreatedAt = time.Now()
	copied := *u
	r.users[u.ID] = &copied
	return u
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			r.mu.Unlock()
			return repositories.ErrUserEmailConflict
		}
	}
	r.mu.Unlock()
	r.add(u)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

type fakeUploader struct {
	mu        sync.Mutex
	uploads   []string
	deletes   []string
	baseURL   string
	uploadErr error
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, _ io.Reader) (*storage.UploadResult, error) {
	if u.uploadErr != nil {
		return nil, u.uploadErr
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploads = append(u.uploads, key)
	return &storage.UploadResult{Key: key, Location: u.baseURL + "/" + key}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deletes = append(u.deletes, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	if u.baseURL == "" {
		return fmt.Sprintf("https://cdn.example.com/%s", key)
	}
	return u.baseURL + "/" + key
}
