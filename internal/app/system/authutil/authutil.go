// Package authutil holds the steps shared by every flow that signs a user in.
package authutil

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/fanzone/internal/app/system/auth"
	"github.com/dalemusser/fanzone/internal/app/system/timeouts"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// LoginRecorder persists one login record per session. *logins.Store
// implements it.
type LoginRecorder interface {
	CreateFrom(ctx context.Context, r *http.Request, userID primitive.ObjectID, sessionID string) error
}

// CurrentUserID returns the signed-in user's id from the request context.
// It reports false when no user is signed in or the id is malformed.
func CurrentUserID(r *http.Request) (primitive.ObjectID, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// SessionStarter signs a user in and records the login session.
type SessionStarter struct {
	SessionMgr *auth.SessionManager
	Logins     LoginRecorder
	Log        *zap.Logger
}

// NewSessionStarter constructs a SessionStarter. logins may be nil.
func NewSessionStarter(sm *auth.SessionManager, logins LoginRecorder, logger *zap.Logger) *SessionStarter {
	return &SessionStarter{SessionMgr: sm, Logins: logins, Log: logger}
}

// Start writes the session cookie for userID and returns the new login
// session id. A failure to write the login record is logged, not returned:
// the user is signed in either way.
func (s *SessionStarter) Start(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID) (string, error) {
	loginSessionID := uuid.NewString()
	if err := s.SessionMgr.SignIn(w, r, userID.Hex(), loginSessionID); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	if s.Logins != nil {
		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), s.Log, "create login record")
		defer cancel()
		if err := s.Logins.CreateFrom(ctx, r, userID, loginSessionID); err != nil {
			s.Log.Warn("failed to create login record",
				zap.Error(err),
				zap.String("user_id", userID.Hex()),
				zap.String("login_session_id", loginSessionID))
		}
	}
	return loginSessionID, nil
}
