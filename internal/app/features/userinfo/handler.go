// internal/app/features/userinfo/handler.go
package userinfo

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	uierrors "github.com/dalemusser/fanzone/internal/app/features/errors"
	"github.com/dalemusser/fanzone/internal/app/store/audit"
	"github.com/dalemusser/fanzone/internal/app/system/accounts"
	"github.com/dalemusser/fanzone/internal/app/system/auditlog"
	"github.com/dalemusser/fanzone/internal/app/system/auth"
	"github.com/dalemusser/fanzone/internal/app/system/authutil"
	"github.com/dalemusser/fanzone/internal/app/system/paging"
	"github.com/dalemusser/fanzone/internal/app/system/timeouts"
	"github.com/dalemusser/fanzone/internal/domain/models"
	"go.uber.org/zap"
)

// ActivityReader lists audit events, newest first. *audit.Store implements it.
type ActivityReader interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
}

// SessionCloser stamps a login record as ended. *logins.Store implements it.
type SessionCloser interface {
	CloseSession(ctx context.Context, sessionID string, at time.Time) (bool, error)
}

// Handler serves the signed-in user's account: identity, profile,
// preferences, recent activity and deactivation.
type Handler struct {
	Accounts   *accounts.Service
	SessionMgr *auth.SessionManager
	Logins     SessionCloser
	Activity   ActivityReader
	AuditLog   *auditlog.Logger
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

// NewHandler creates a new userinfo handler.
func NewHandler(svc *accounts.Service, sm *auth.SessionManager, logins SessionCloser, activity ActivityReader, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts:   svc,
		SessionMgr: sm,
		Logins:     logins,
		Activity:   activity,
		AuditLog:   audit,
		ErrLog:     errLog,
		Log:        logger,
	}
}

// currentUser loads the signed-in user or writes the error response.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	id, ok := authutil.CurrentUserID(r)
	if !ok {
		uierrors.Fail(w, http.StatusUnauthorized, "not signed in")
		return models.User{}, false
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load current user")
	defer cancel()
	u, err := h.Accounts.FindByID(ctx, id)
	if err != nil {
		h.ErrLog.Write(w, r, "load current user", err)
		return models.User{}, false
	}
	return u, true
}

// ServeUser handles GET /api/user.
//
//	{ "success": true, "user": { ... } }
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	uierrors.JSON(w, http.StatusOK, map[string]any{"success": true, "user": u})
}

// HandleUpdateProfile handles PATCH /api/user/profile. Only the fields in
// the body are changed; notifications are replaced as a whole.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := authutil.CurrentUserID(r)
	if !ok {
		uierrors.Fail(w, http.StatusUnauthorized, "not signed in")
		return
	}

	var patch models.ProfilePatch
	if err := uierrors.DecodeJSON(w, r, &patch); err != nil {
		h.ErrLog.LogBadRequest(w, r, "profile: bad request body", err, "invalid JSON body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update profile")
	defer cancel()
	u, err := h.Accounts.UpdateProfile(ctx, id, patch)
	if err != nil {
		h.ErrLog.Write(w, r, "update profile", err)
		return
	}

	if !patch.IsEmpty() {
		fields := make([]string, 0, 6)
		for k := range patch.Fields() {
			fields = append(fields, k)
		}
		slices.Sort(fields)
		h.AuditLog.ProfileUpdated(r.Context(), r, id, strings.Join(fields, ","))
	}

	uierrors.JSON(w, http.StatusOK, map[string]any{"success": true, "user": u})
}

// ServePreferences handles GET /api/user/preferences.
func (h *Handler) ServePreferences(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	favorites := u.Profile.FavoriteSports
	if favorites == nil {
		favorites = []string{}
	}
	uierrors.JSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"favoriteSports":  favorites,
		"notifications":   u.Profile.Notifications,
		"followedTeams":   models.Teams.Entries(&u),
		"followedPlayers": models.Players.Entries(&u),
		"followedSports":  models.Sports.Entries(&u),
		"followedMatches": models.Matches.Entries(&u),
		"matchReminders":  models.Reminders.Entries(&u),
	})
}

// ServeActivity handles GET /api/user/activity?limit=N&start=M: a page of
// the signed-in user's audit events, newest first. start is 1-based.
func (h *Handler) ServeActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := authutil.CurrentUserID(r)
	if !ok {
		uierrors.Fail(w, http.StatusUnauthorized, "not signed in")
		return
	}

	limit, err := paging.ParseLimit(r)
	if err != nil {
		uierrors.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	start := paging.ParseStart(r)

	events := []audit.Event{}
	hasNext := false
	if h.Activity != nil {
		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list activity")
		defer cancel()
		found, err := h.Activity.Query(ctx, audit.QueryFilter{
			UserID: &id,
			Limit:  paging.LimitPlusOne(limit),
			Offset: paging.Offset(start),
		})
		if err != nil {
			h.ErrLog.LogServerError(w, r, "list activity", err)
			return
		}
		hasNext = paging.TrimPage(&found, limit)
		events = found
	}

	uierrors.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"events":  events,
		"hasNext": hasNext,
		"range":   paging.ComputeRange(start, limit, len(events)),
	})
}

// HandleDeactivate handles POST /api/user/deactivate: the account is
// soft-deleted and the current session ends.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := authutil.CurrentUserID(r)
	if !ok {
		uierrors.Fail(w, http.StatusUnauthorized, "not signed in")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "deactivate user")
	defer cancel()
	if err := h.Accounts.Deactivate(ctx, id); err != nil {
		h.ErrLog.Write(w, r, "deactivate user", err)
		return
	}
	h.AuditLog.UserDeactivated(r.Context(), r, id)
	h.Log.Info("user deactivated", zap.String("user_id", id.Hex()))

	loginSessionID, err := h.SessionMgr.SignOut(w, r)
	if err != nil {
		h.Log.Warn("deactivate: clear session", zap.Error(err))
	}
	if loginSessionID != "" && h.Logins != nil {
		if _, err := h.Logins.CloseSession(ctx, loginSessionID, time.Now().UTC()); err != nil {
			h.Log.Warn("failed to close login record",
				zap.Error(err),
				zap.String("login_session_id", loginSessionID))
		}
	}

	uierrors.JSON(w, http.StatusOK, map[string]any{"success": true})
}
