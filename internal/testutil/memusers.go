package testutil

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	userstore "github.com/dalemusser/fanzone/internal/app/store/users"
	"github.com/dalemusser/fanzone/internal/app/system/normalize"
	"github.com/dalemusser/fanzone/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemUsers is an in-memory stand-in for userstore.Store. It enforces the
// same uniqueness rules and returns the same sentinel errors, so service and
// handler tests run without a database.
type MemUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User

	// Writes counts successful mutations, for asserting no-op paths.
	Writes int
}

// NewMemUsers returns an empty repository.
func NewMemUsers() *MemUsers {
	return &MemUsers{users: make(map[primitive.ObjectID]models.User)}
}

func clone(u models.User) models.User {
	u.Profile.FavoriteSports = slices.Clone(u.Profile.FavoriteSports)
	u.FollowedTeams = slices.Clone(u.FollowedTeams)
	u.FollowedPlayers = slices.Clone(u.FollowedPlayers)
	u.FollowedSports = slices.Clone(u.FollowedSports)
	u.FollowedMatches = slices.Clone(u.FollowedMatches)
	u.MatchReminders = slices.Clone(u.MatchReminders)
	if u.LastLogin != nil {
		t := *u.LastLogin
		u.LastLogin = &t
	}
	return u
}

// Put stores u as-is, replacing any user with the same ID.
func (m *MemUsers) Put(u models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.users[u.ID] = clone(u)
	return u
}

// Raw returns the stored document, including the password hash.
func (m *MemUsers) Raw(id primitive.ObjectID) (models.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	return clone(u), ok
}

func (m *MemUsers) find(match func(models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			c := clone(u)
			return &c, nil
		}
	}
	return nil, userstore.ErrNotFound
}

func (m *MemUsers) GetActiveByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	return m.find(func(u models.User) bool { return u.IsActive && u.ID == id })
}

func (m *MemUsers) GetActiveByEmail(_ context.Context, email string) (*models.User, error) {
	email = normalize.Email(email)
	return m.find(func(u models.User) bool { return u.IsActive && u.Email == email })
}

func (m *MemUsers) GetActiveByUsername(_ context.Context, username string) (*models.User, error) {
	username = normalize.Username(username)
	return m.find(func(u models.User) bool { return u.IsActive && u.Username == username })
}

func (m *MemUsers) FindAnyByEmail(_ context.Context, email string) (*models.User, error) {
	email = normalize.Email(email)
	return m.find(func(u models.User) bool { return u.Email == email })
}

func (m *MemUsers) FindAnyByUsername(_ context.Context, username string) (*models.User, error) {
	username = normalize.Username(username)
	return m.find(func(u models.User) bool { return u.Username == username })
}

func (m *MemUsers) Create(_ context.Context, u models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u.Email = normalize.Email(u.Email)
	u.Username = normalize.Username(u.Username)
	for _, ex := range m.users {
		if ex.Email == u.Email {
			return models.User{}, userstore.ErrDuplicateEmail
		}
		if ex.Username == u.Username {
			return models.User{}, userstore.ErrDuplicateUsername
		}
	}

	u.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	m.users[u.ID] = clone(u)
	m.Writes++
	return clone(u), nil
}

// update applies fn to an active user and returns the result.
func (m *MemUsers) update(id primitive.ObjectID, fn func(*models.User)) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || !u.IsActive {
		return nil, userstore.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = clone(u)
	m.Writes++
	c := clone(u)
	return &c, nil
}

func (m *MemUsers) RecordLogin(_ context.Context, id primitive.ObjectID, at time.Time) (*models.User, error) {
	return m.update(id, func(u *models.User) {
		u.LoginCount++
		u.LastLogin = &at
	})
}

func (m *MemUsers) UpdateProfile(_ context.Context, id primitive.ObjectID, patch models.ProfilePatch) (*models.User, error) {
	return m.update(id, func(u *models.User) { patch.ApplyTo(&u.Profile) })
}

func (m *MemUsers) SetFollows(_ context.Context, id primitive.ObjectID, field string, entries any) error {
	var typeErr error
	_, err := m.update(id, func(u *models.User) {
		switch field {
		case models.Teams.Field:
			u.FollowedTeams = slices.Clone(entries.([]models.FollowedTeam))
		case models.Players.Field:
			u.FollowedPlayers = slices.Clone(entries.([]models.FollowedPlayer))
		case models.Sports.Field:
			u.FollowedSports = slices.Clone(entries.([]models.FollowedSport))
		case models.Matches.Field:
			u.FollowedMatches = slices.Clone(entries.([]models.FollowedMatch))
		case models.Reminders.Field:
			u.MatchReminders = slices.Clone(entries.([]models.MatchReminder))
		default:
			typeErr = fmt.Errorf("unknown follow field %q", field)
		}
	})
	if err != nil {
		return err
	}
	return typeErr
}

func (m *MemUsers) Deactivate(_ context.Context, id primitive.ObjectID) error {
	_, err := m.update(id, func(u *models.User) { u.IsActive = false })
	return err
}
