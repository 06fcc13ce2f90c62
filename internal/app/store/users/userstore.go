package userstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/fanzone/internal/app/system/normalize"
	"github.com/dalemusser/fanzone/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Index names shared with system/indexes. A duplicate-key error names the
// index it tripped, which is how Create tells email from username.
const (
	EmailIndex    = "uniq_users_email"
	UsernameIndex = "uniq_users_username"
)

var (
	// ErrNotFound is returned when no active user matches.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrDuplicateUsername is returned when attempting to create a user with a username that already exists.
	ErrDuplicateUsername = errors.New("a user with this username already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

func active(f bson.M) bson.M {
	f["is_active"] = true
	return f
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetActiveByID loads an active user by ObjectID.
func (s *Store) GetActiveByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, active(bson.M{"_id": id}))
}

// GetActiveByEmail looks up an active user by case-insensitive email.
func (s *Store) GetActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, active(bson.M{"email": normalize.Email(email)}))
}

// GetActiveByUsername looks up an active user by exact username.
func (s *Store) GetActiveByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, active(bson.M{"username": normalize.Username(username)}))
}

// FindAnyByEmail returns the user holding email, active or not.
// Deactivated accounts keep their email reserved.
func (s *Store) FindAnyByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

// FindAnyByUsername returns the user holding username, active or not.
func (s *Store) FindAnyByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"username": normalize.Username(username)})
}

// Create inserts a new user. ID and timestamps are assigned here; callers
// supply already-validated fields and the password hash.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Email = normalize.Email(u.Email)
	u.Username = normalize.Username(u.Username)

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, dupError(err)
		}
		return models.User{}, err
	}
	return u, nil
}

// dupError picks the sentinel for whichever unique index was violated.
func dupError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, UsernameIndex):
		return ErrDuplicateUsername
	case strings.Contains(msg, EmailIndex):
		return ErrDuplicateEmail
	}
	return fmt.Errorf("duplicate key: %w", err)
}

// RecordLogin atomically bumps login_count and sets last_login, returning
// the updated user.
func (s *Store) RecordLogin(ctx context.Context, id primitive.ObjectID, at time.Time) (*models.User, error) {
	update := bson.M{
		"$inc": bson.M{"login_count": 1},
		"$set": bson.M{"last_login": at, "updated_at": at},
	}
	return s.findOneAndUpdate(ctx, active(bson.M{"_id": id}), update)
}

// UpdateProfile writes only the fields present in patch, as profile.<field>
// sets, and returns the updated user.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, patch models.ProfilePatch) (*models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	for k, v := range patch.Fields() {
		set["profile."+k] = v
	}
	return s.findOneAndUpdate(ctx, active(bson.M{"_id": id}), bson.M{"$set": set})
}

// SetFollows replaces one follow collection wholesale. Concurrent writers
// to the same collection race; the last write wins.
func (s *Store) SetFollows(ctx context.Context, id primitive.ObjectID, field string, entries any) error {
	res, err := s.c.UpdateOne(ctx, active(bson.M{"_id": id}), bson.M{"$set": bson.M{
		field:        entries,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes an active user.
func (s *Store) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, active(bson.M{"_id": id}), bson.M{"$set": bson.M{
		"is_active":  false,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
