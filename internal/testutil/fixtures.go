package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/fanzone/internal/app/system/passwords"
	"github.com/dalemusser/fanzone/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// NewHasher returns a fast Hasher (bcrypt.MinCost) for tests.
func NewHasher(t *testing.T) *passwords.Hasher {
	t.Helper()
	h, err := passwords.NewHasher(bcrypt.MinCost, 4)
	if err != nil {
		t.Fatalf("failed to create hasher: %v", err)
	}
	return h
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// NewUser builds an active user with a MinCost hash of password. It is not
// persisted; pass it to InsertUser or a repository.
func NewUser(t *testing.T, username, email, password string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	now := time.Now().UTC()
	return models.User{
		ID:           primitive.NewObjectID(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Profile:      models.Profile{Notifications: models.DefaultNotifications()},
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// InsertUser writes u directly to the users collection.
func (f *Fixtures) InsertUser(ctx context.Context, u models.User) models.User {
	f.t.Helper()
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateUser creates an active user with the given credentials.
func (f *Fixtures) CreateUser(ctx context.Context, username, email, password string) models.User {
	f.t.Helper()
	return f.InsertUser(ctx, NewUser(f.t, username, email, password))
}

// CreateInactiveUser creates a soft-deleted user.
func (f *Fixtures) CreateInactiveUser(ctx context.Context, username, email string) models.User {
	f.t.Helper()
	u := NewUser(f.t, username, email, "secret1")
	u.IsActive = false
	return f.InsertUser(ctx, u)
}

// CreateLoginRecord inserts a login record created at the given time.
func (f *Fixtures) CreateLoginRecord(ctx context.Context, userID primitive.ObjectID, sessionID string, at time.Time) models.LoginRecord {
	f.t.Helper()
	rec := models.LoginRecord{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		SessionID: sessionID,
		CreatedAt: at,
		IP:        "127.0.0.1",
	}
	if _, err := f.db.Collection("login_records").InsertOne(ctx, rec); err != nil {
		f.t.Fatalf("failed to create login record: %v", err)
	}
	return rec
}
