// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isUnsupported(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("login_records", loginRecordsSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	names, listErr := db.ListCollectionNames(ctx, bson.M{"name": name})
	if listErr == nil && len(names) > 0 {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		if commandErr(err, 48, "already exists", "namespace exists") {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

// commandErr reports whether err is a command error with the given code or
// whose text contains any of phrases.
func commandErr(err error, code int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == code {
		return true
	}
	s := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// isUnsupported matches "no such command" (59) and "not implemented" (115).
func isUnsupported(err error) bool {
	return commandErr(err, 59, "no such command") ||
		commandErr(err, 115, "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func followArray(key string) bson.M {
	return bson.M{
		"bsonType": bson.A{"array", "null"},
		"items": bson.M{
			"bsonType": "object",
			"required": bson.A{key},
			"properties": bson.M{
				key: bson.M{"bsonType": "string", "minLength": 1},
			},
		},
	}
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"username", "email", "password_hash", "is_active", "created_at"},
			"properties": bson.M{
				"username":      bson.M{"bsonType": "string", "minLength": 3, "maxLength": 30},
				"email":         bson.M{"bsonType": "string", "pattern": `^[^\s@]+@[^\s@]+\.[^\s@]+$`},
				"password_hash": bson.M{"bsonType": "string", "minLength": 1},
				"is_active":     bson.M{"bsonType": "bool"},
				"is_verified":   bson.M{"bsonType": "bool"},
				"login_count":   bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"last_login":    bson.M{"bsonType": bson.A{"date", "null"}},
				"profile":       bson.M{"bsonType": "object"},

				"followed_teams":   followArray("team_id"),
				"followed_players": followArray("player_id"),
				"followed_sports":  followArray("sport_id"),
				"followed_matches": followArray("match_id"),
				"match_reminders":  followArray("match_id"),
			},
		},
	}
}

func loginRecordsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "session_id", "created_at"},
			"properties": bson.M{
				"user_id":       bson.M{"bsonType": "objectId"},
				"session_id":    bson.M{"bsonType": "string", "minLength": 1},
				"created_at":    bson.M{"bsonType": "date"},
				"logged_out_at": bson.M{"bsonType": bson.A{"date", "null"}},
			},
		},
	}
}
