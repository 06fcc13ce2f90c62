// Package accounts implements account operations on top of the users store:
// signup, authentication, lookups, profile updates, follow collections and
// deactivation. Handlers call this package; they never touch the store or
// password hashes directly.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	userstore "github.com/dalemusser/fanzone/internal/app/store/users"
	"github.com/dalemusser/fanzone/internal/app/system/htmlsanitize"
	"github.com/dalemusser/fanzone/internal/app/system/inputval"
	"github.com/dalemusser/fanzone/internal/app/system/metrics"
	"github.com/dalemusser/fanzone/internal/app/system/normalize"
	"github.com/dalemusser/fanzone/internal/app/system/passwords"
	"github.com/dalemusser/fanzone/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Repo is the persistence the service needs. *userstore.Store implements it
// and reports misses and collisions with the userstore sentinel errors.
type Repo interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetActiveByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetActiveByEmail(ctx context.Context, email string) (*models.User, error)
	GetActiveByUsername(ctx context.Context, username string) (*models.User, error)
	FindAnyByEmail(ctx context.Context, email string) (*models.User, error)
	FindAnyByUsername(ctx context.Context, username string) (*models.User, error)
	RecordLogin(ctx context.Context, id primitive.ObjectID, at time.Time) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, patch models.ProfilePatch) (*models.User, error)
	SetFollows(ctx context.Context, id primitive.ObjectID, field string, entries any) error
	Deactivate(ctx context.Context, id primitive.ObjectID) error
}

var _ Repo = (*userstore.Store)(nil)

// Service is safe for concurrent use.
type Service struct {
	users  Repo
	hasher *passwords.Hasher
	log    *zap.Logger
	now    func() time.Time
}

func NewService(users Repo, hasher *passwords.Hasher, log *zap.Logger) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// NewUser is the input to CreateUser.
type NewUser struct {
	Username string
	Email    string
	Password string
	Profile  *models.ProfilePatch
}

// CreateUser validates input, rejects taken emails and usernames, hashes
// the password and inserts the account. The returned user is sanitized.
func (s *Service) CreateUser(ctx context.Context, in NewUser) (models.User, error) {
	username := normalize.Username(in.Username)
	email := normalize.Email(in.Email)

	if err := inputval.CheckUsername(username); err != nil {
		return models.User{}, invalid("username", err)
	}
	if err := inputval.CheckEmail(email); err != nil {
		return models.User{}, invalid("email", err)
	}
	if err := inputval.CheckPassword(in.Password); err != nil {
		return models.User{}, invalid("password", err)
	}

	if err := s.checkAvailable(ctx, email, username); err != nil {
		return models.User{}, err
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	profile := models.Profile{Notifications: models.DefaultNotifications()}
	if in.Profile != nil {
		sanitizePatch(in.Profile).ApplyTo(&profile)
	}

	u, err := s.users.Create(ctx, models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Profile:      profile,
		IsActive:     true,
	})
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		metrics.RecordAuth("signup", false)
		return models.User{}, &ConflictError{Field: "email"}
	case errors.Is(err, userstore.ErrDuplicateUsername):
		metrics.RecordAuth("signup", false)
		return models.User{}, &ConflictError{Field: "username"}
	case err != nil:
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	metrics.RecordAuth("signup", true)
	s.log.Debug("user created", zap.String("user_id", u.ID.Hex()), zap.String("username", u.Username))
	return u.Sanitized(), nil
}

// checkAvailable reports the first taken field, email before username.
func (s *Service) checkAvailable(ctx context.Context, email, username string) error {
	lookups := []struct {
		field string
		value string
		find  func(context.Context, string) (*models.User, error)
	}{
		{"email", email, s.users.FindAnyByEmail},
		{"username", username, s.users.FindAnyByUsername},
	}
	for _, l := range lookups {
		_, err := l.find(ctx, l.value)
		switch {
		case err == nil:
			metrics.RecordAuth("signup", false)
			return &ConflictError{Field: l.field}
		case !errors.Is(err, userstore.ErrNotFound):
			return fmt.Errorf("check existing %s: %w", l.field, err)
		}
	}
	return nil
}

// Authenticate checks email and password against an active account and
// records the login. Unknown email and wrong password both yield
// ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	email = normalize.Email(email)
	if email == "" {
		return models.User{}, &ValidationError{Field: "email", Message: "email is required"}
	}
	if password == "" {
		return models.User{}, &ValidationError{Field: "password", Message: "password is required"}
	}

	u, err := s.users.GetActiveByEmail(ctx, email)
	if errors.Is(err, userstore.ErrNotFound) {
		s.hasher.VerifyAbsent(ctx, password)
		metrics.RecordAuth("login", false)
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}

	ok, err := s.hasher.Verify(ctx, u.PasswordHash, password)
	if err != nil {
		return models.User{}, fmt.Errorf("verify password for %s: %w", u.ID.Hex(), err)
	}
	if !ok {
		metrics.RecordAuth("login", false)
		return models.User{}, ErrInvalidCredentials
	}

	updated, err := s.users.RecordLogin(ctx, u.ID, s.now())
	if errors.Is(err, userstore.ErrNotFound) {
		// Deactivated between lookup and update.
		metrics.RecordAuth("login", false)
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, fmt.Errorf("record login: %w", err)
	}

	metrics.RecordAuth("login", true)
	return updated.Sanitized(), nil
}

func (s *Service) found(u *models.User, err error) (models.User, error) {
	if errors.Is(err, userstore.ErrNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	return u.Sanitized(), nil
}

// FindByID returns the active user with id.
func (s *Service) FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return s.found(s.users.GetActiveByID(ctx, id))
}

// FindByEmail returns the active user with email, compared case-insensitively.
func (s *Service) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return s.found(s.users.GetActiveByEmail(ctx, email))
}

// FindByUsername returns the active user with the exact username.
func (s *Service) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return s.found(s.users.GetActiveByUsername(ctx, username))
}

// UpdateProfile merges the fields present in patch into the user's profile.
// An empty patch writes nothing and returns the current user.
func (s *Service) UpdateProfile(ctx context.Context, id primitive.ObjectID, patch models.ProfilePatch) (models.User, error) {
	if patch.IsEmpty() {
		return s.FindByID(ctx, id)
	}
	return s.found(s.users.UpdateProfile(ctx, id, *sanitizePatch(&patch)))
}

// Deactivate soft-deletes the account. Its username and email stay taken.
func (s *Service) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	err := s.users.Deactivate(ctx, id)
	if errors.Is(err, userstore.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	metrics.RecordAuth("deactivate", true)
	return nil
}

// sanitizePatch returns a copy of p with markup stripped from free text.
// The bio keeps basic formatting.
func sanitizePatch(p *models.ProfilePatch) *models.ProfilePatch {
	out := *p
	text := func(v *string, clean func(string) string) *string {
		if v == nil {
			return nil
		}
		c := clean(*v)
		return &c
	}
	out.FullName = text(p.FullName, func(s string) string { return normalize.Name(htmlsanitize.Text(s)) })
	out.Avatar = text(p.Avatar, func(s string) string { return strings.TrimSpace(htmlsanitize.Text(s)) })
	out.Bio = text(p.Bio, htmlsanitize.Sanitize)
	out.Location = text(p.Location, htmlsanitize.Text)
	if p.FavoriteSports != nil {
		sports := make([]string, 0, len(*p.FavoriteSports))
		for _, sp := range *p.FavoriteSports {
			sports = append(sports, htmlsanitize.Text(sp))
		}
		sports = normalize.List(sports)
		out.FavoriteSports = &sports
	}
	return &out
}
