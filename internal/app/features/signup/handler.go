// internal/app/features/signup/handler.go
package signup

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/fanzone/internal/app/features/errors"
	"github.com/dalemusser/fanzone/internal/app/system/accounts"
	"github.com/dalemusser/fanzone/internal/app/system/auditlog"
	"github.com/dalemusser/fanzone/internal/app/system/authutil"
	"github.com/dalemusser/fanzone/internal/domain/models"
	"go.uber.org/zap"
)

// Handler creates accounts and signs the new user in.
type Handler struct {
	Accounts *accounts.Service
	Sessions *authutil.SessionStarter
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(svc *accounts.Service, sessions *authutil.SessionStarter, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts: svc,
		Sessions: sessions,
		AuditLog: audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}

type signupRequest struct {
	Username string               `json:"username"`
	Email    string               `json:"email"`
	Password string               `json:"password"`
	Profile  *models.ProfilePatch `json:"profile,omitempty"`
}

// HandleSignup handles POST /api/signup.
//
// On success: 201 {"success":true,"user":{...}} and a session cookie.
// Validation failures answer 400 and taken emails or usernames 409.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var in signupRequest
	if err := uierrors.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "signup: bad request body", err, "invalid JSON body")
		return
	}

	u, err := h.Accounts.CreateUser(r.Context(), accounts.NewUser{
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
		Profile:  in.Profile,
	})
	if err != nil {
		var ve *accounts.ValidationError
		var ce *accounts.ConflictError
		switch {
		case errors.As(err, &ve):
			h.AuditLog.SignupRejected(r.Context(), r, ve.Field, ve.Message)
		case errors.As(err, &ce):
			h.AuditLog.SignupRejected(r.Context(), r, ce.Field, "conflict")
		}
		h.ErrLog.Write(w, r, "signup failed", err)
		return
	}

	h.AuditLog.Signup(r.Context(), r, u.ID, u.Username)
	h.Log.Info("account created",
		zap.String("user_id", u.ID.Hex()),
		zap.String("username", u.Username))

	loginSessionID, err := h.Sessions.Start(w, r, u.ID)
	if err != nil {
		// The account exists; the client can still sign in explicitly.
		h.ErrLog.LogServerError(w, r, "signup: start session", err)
		return
	}
	h.AuditLog.LoginSuccess(r.Context(), r, u.ID, loginSessionID)

	uierrors.JSON(w, http.StatusCreated, map[string]any{"success": true, "user": u})
}
