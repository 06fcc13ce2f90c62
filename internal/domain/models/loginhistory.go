// internal/domain/models/loginhistory.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LoginRecord captures a single successful login and, once the user signs
// out, when that session ended. CreatedAt is indexed for pruning.
type LoginRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      primitive.ObjectID `bson:"user_id"`
	SessionID   string             `bson:"session_id"`
	CreatedAt   time.Time          `bson:"created_at"`
	IP          string             `bson:"ip"`
	UserAgent   string             `bson:"user_agent,omitempty"`
	LoggedOutAt *time.Time         `bson:"logged_out_at,omitempty"`
}
