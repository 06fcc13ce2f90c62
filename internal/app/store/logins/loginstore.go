// internal/app/store/logins/loginstore.go
package logins

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/fanzone/internal/app/system/ratelimit"
	"github.com/dalemusser/fanzone/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("login_records")}
}

// Create inserts a LoginRecord. If CreatedAt is zero, it's set to time.Now().UTC().
func (s *Store) Create(ctx context.Context, rec models.LoginRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, rec)
	return err
}

// CreateFrom builds a LoginRecord for sessionID from the HTTP request and
// inserts it, taking the client IP and user agent from r.
func (s *Store) CreateFrom(ctx context.Context, r *http.Request, userID primitive.ObjectID, sessionID string) error {
	return s.Create(ctx, models.LoginRecord{
		UserID:    userID,
		SessionID: sessionID,
		CreatedAt: time.Now().UTC(),
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
}

// CloseSession stamps logged_out_at on the open record for sessionID.
// It reports whether a record was closed; closing twice is a no-op.
func (s *Store) CloseSession(ctx context.Context, sessionID string, at time.Time) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"session_id": sessionID, "logged_out_at": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"logged_out_at": at}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// PruneOlderThan deletes records created before cutoff and returns how many
// were removed.
func (s *Store) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
