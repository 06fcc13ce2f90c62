package accounts

import (
	"context"
	"errors"
	"fmt"

	userstore "github.com/dalemusser/fanzone/internal/app/store/users"
	"github.com/dalemusser/fanzone/internal/app/system/metrics"
	"github.com/dalemusser/fanzone/internal/app/system/normalize"
	"github.com/dalemusser/fanzone/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FollowEntity adds entry to, or removes its key from, one of the user's
// follow collections and returns the resulting collection.
//
// The user is read, changed in memory and the one collection written back.
// Two concurrent changes to the same collection race and the last write
// wins. Following a present key or unfollowing an absent one writes nothing.
func FollowEntity[E models.FollowEntry](ctx context.Context, s *Service, userID primitive.ObjectID, kind models.FollowKind[E], entry E, action models.FollowAction) ([]E, error) {
	if normalize.Key(entry.NaturalKey()) == "" {
		return nil, &ValidationError{Field: kind.KeyParam, Message: kind.KeyParam + " is required"}
	}
	if action != models.Follow && action != models.Unfollow {
		return nil, &ValidationError{Field: "action", Message: `action must be "follow" or "unfollow"`}
	}

	u, err := s.users.GetActiveByID(ctx, userID)
	if errors.Is(err, userstore.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if !kind.Apply(u, entry, action, s.now()) {
		return kind.Entries(u), nil
	}

	list := kind.Entries(u)
	err = s.users.SetFollows(ctx, userID, kind.Field, list)
	if errors.Is(err, userstore.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", kind.Field, err)
	}

	metrics.RecordFollow(kind.Name, string(action))
	return list, nil
}

// Follows returns one follow collection of an active user, never nil.
func Follows[E models.FollowEntry](ctx context.Context, s *Service, userID primitive.ObjectID, kind models.FollowKind[E]) ([]E, error) {
	u, err := s.users.GetActiveByID(ctx, userID)
	if errors.Is(err, userstore.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return kind.Entries(u), nil
}
