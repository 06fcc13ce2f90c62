// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/fanzone/internal/app/store/audit"
	"github.com/dalemusser/fanzone/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination modes for a category.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off" // disabled
)

// ValidMode reports whether s is one of the destination modes.
func ValidMode(s string) bool {
	switch s {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return true
	}
	return false
}

// Config holds audit logging configuration.
type Config struct {
	// Auth controls login, logout and throttling events.
	Auth string
	// Account controls signup, profile and deactivation events.
	Account string
}

// EventStore persists audit events. *audit.Store implements it.
type EventStore interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger provides convenience methods for logging audit events.
// It logs to MongoDB (via EventStore) and structured logs (via zap).
type Logger struct {
	store  EventStore
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store EventStore, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAccount:
		setting = l.config.Account
	default:
		setting = ModeAll
	}

	if setting == ModeOff {
		return
	}
	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}
	if (setting == ModeAll || setting == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func request(r *http.Request) (ip, ua string) {
	return ratelimit.ClientIP(r), r.UserAgent()
}

// --- Authentication Events ---

// LoginSuccess logs a successful login and the login session it opened.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, loginSessionID string) {
	ip, ua := request(r)
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        ip,
		UserAgent: ua,
		Success:   true,
		Details:   map[string]string{"login_session_id": loginSessionID},
	})
}

// LoginFailed logs a rejected login. The response to the caller does not
// say why; the reason is kept here for operators.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, attemptedEmail, reason string) {
	ip, ua := request(r)
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailed,
		IP:            ip,
		UserAgent:     ua,
		FailureReason: reason,
		Details:       map[string]string{"attempted_email": strings.ToLower(strings.TrimSpace(attemptedEmail))},
	})
}

// LoginRateLimited logs a login refused by throttling.
func (l *Logger) LoginRateLimited(ctx context.Context, r *http.Request, attemptedEmail, limitType string) {
	ip, ua := request(r)
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginRateLimited,
		IP:            ip,
		UserAgent:     ua,
		FailureReason: "rate limited",
		Details: map[string]string{
			"attempted_email": strings.ToLower(strings.TrimSpace(attemptedEmail)),
			"limit_type":      limitType,
		},
	})
}

// Logout logs a sign-out. userIDStr may be empty for an expired session.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr, loginSessionID string) {
	ip, ua := request(r)
	event := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		IP:        ip,
		UserAgent: ua,
		Success:   true,
	}
	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		event.UserID = &oid
	}
	if loginSessionID != "" {
		event.Details = map[string]string{"login_session_id": loginSessionID}
	}
	l.Log(ctx, event)
}

// --- Account Events ---

// Signup logs a new account.
func (l *Logger) Signup(ctx context.Context, r *http.Request, userID primitive.ObjectID, username string) {
	ip, ua := request(r)
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAccount,
		EventType: audit.EventSignup,
		UserID:    &userID,
		IP:        ip,
		UserAgent: ua,
		Success:   true,
		Details:   map[string]string{"username": username},
	})
}

// SignupRejected logs a signup that failed validation or collided.
func (l *Logger) SignupRejected(ctx context.Context, r *http.Request, field, reason string) {
	ip, ua := request(r)
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAccount,
		EventType:     audit.EventSignupRejected,
		IP:            ip,
		UserAgent:     ua,
		FailureReason: reason,
		Details:       map[string]string{"field": field},
	})
}

// ProfileUpdated logs a profile change with the names of the fields written.
func (l *Logger) ProfileUpdated(ctx context.Context, r *http.Request, userID primitive.ObjectID, fieldsChanged string) {
	ip, ua := request(r)
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAccount,
		EventType: audit.EventProfileUpdated,
		UserID:    &userID,
		IP:        ip,
		UserAgent: ua,
		Success:   true,
		Details:   map[string]string{"fields_changed": fieldsChanged},
	})
}

// UserDeactivated logs a self-service soft delete.
func (l *Logger) UserDeactivated(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	ip, ua := request(r)
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAccount,
		EventType: audit.EventUserDeactivated,
		UserID:    &userID,
		IP:        ip,
		UserAgent: ua,
		Success:   true,
	})
}
