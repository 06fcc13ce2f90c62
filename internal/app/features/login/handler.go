// internal/app/features/login/handler.go
package login

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/fanzone/internal/app/features/errors"
	"github.com/dalemusser/fanzone/internal/app/system/accounts"
	"github.com/dalemusser/fanzone/internal/app/system/auditlog"
	"github.com/dalemusser/fanzone/internal/app/system/authutil"
	"github.com/dalemusser/fanzone/internal/app/system/metrics"
	"github.com/dalemusser/fanzone/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

type Handler struct {
	Accounts *accounts.Service
	Sessions *authutil.SessionStarter
	Limiter  *ratelimit.LoginLimiter // nil disables per-email throttling
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(svc *accounts.Service, sessions *authutil.SessionStarter, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts: svc,
		Sessions: sessions,
		Limiter:  limiter,
		AuditLog: audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /api/login.
//
// On success: 200 {"success":true,"user":{...}} and a session cookie.
// Unknown email and wrong password both answer 401 "invalid credentials".
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := uierrors.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "login: bad request body", err, "invalid JSON body")
		return
	}

	if h.Limiter != nil {
		if ok, retry := h.Limiter.AllowEmail(in.Email); !ok {
			h.AuditLog.LoginRateLimited(r.Context(), r, in.Email, "email")
			metrics.RecordAuth("login_throttled", false)
			ratelimit.TooMany(w, retry, "too many login attempts for this account; please try again later")
			return
		}
	}

	// Hashing is not bounded by a timeout; the request context still
	// cancels a wait for a free hashing slot.
	u, err := h.Accounts.Authenticate(r.Context(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			h.AuditLog.LoginFailed(r.Context(), r, in.Email, "invalid credentials")
		}
		h.ErrLog.Write(w, r, "login failed", err)
		return
	}

	loginSessionID, err := h.Sessions.Start(w, r, u.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "login: start session", err)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(in.Email)
	}

	h.AuditLog.LoginSuccess(r.Context(), r, u.ID, loginSessionID)
	h.Log.Info("user signed in",
		zap.String("user_id", u.ID.Hex()),
		zap.String("login_session_id", loginSessionID))

	uierrors.JSON(w, http.StatusOK, map[string]any{"success": true, "user": u})
}
