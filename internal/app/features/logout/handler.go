// internal/app/features/logout/handler.go
package logout

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/fanzone/internal/app/features/errors"
	"github.com/dalemusser/fanzone/internal/app/system/auditlog"
	"github.com/dalemusser/fanzone/internal/app/system/auth"
	"github.com/dalemusser/fanzone/internal/app/system/metrics"
	"github.com/dalemusser/fanzone/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// SessionCloser stamps a login record as ended. *logins.Store implements it.
type SessionCloser interface {
	CloseSession(ctx context.Context, sessionID string, at time.Time) (bool, error)
}

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Logins     SessionCloser
	AuditLog   *auditlog.Logger
	ErrLog     *uierrors.ErrorLogger
}

func NewHandler(sessionMgr *auth.SessionManager, logins SessionCloser, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		Logins:     logins,
		AuditLog:   audit,
		ErrLog:     errLog,
	}
}

// HandleLogout handles POST /api/logout. It always succeeds for the caller,
// signed in or not.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var userID string
	if u, ok := auth.CurrentUser(r); ok {
		userID = u.ID
	}

	loginSessionID, err := h.SessionMgr.SignOut(w, r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "logout: save session", err)
		return
	}

	if loginSessionID != "" && h.Logins != nil {
		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "close login record")
		defer cancel()
		if _, err := h.Logins.CloseSession(ctx, loginSessionID, time.Now().UTC()); err != nil {
			h.Log.Warn("failed to close login record",
				zap.Error(err),
				zap.String("login_session_id", loginSessionID))
		}
	}

	if userID != "" {
		h.AuditLog.Logout(r.Context(), r, userID, loginSessionID)
		metrics.RecordAuth("logout", true)
	}

	uierrors.JSON(w, http.StatusOK, map[string]any{"success": true})
}
