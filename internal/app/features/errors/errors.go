// internal/app/features/errors/errors.go
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/fanzone/internal/app/system/accounts"
	"go.uber.org/zap"
)

// ServerErrorMessage is the only text a client sees for an unexpected failure.
const ServerErrorMessage = "a server error occurred"

// ErrorLogger is the request-boundary translator from errors to the JSON
// error shape. Expected failures are reported with their own message;
// anything else is logged and hidden behind ServerErrorMessage.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// Status maps an error from the accounts service to an HTTP status.
func Status(err error) int {
	var ve *accounts.ValidationError
	var ce *accounts.ConflictError
	switch {
	case stderrors.As(err, &ve):
		return http.StatusBadRequest
	case stderrors.As(err, &ce):
		return http.StatusConflict
	case stderrors.Is(err, accounts.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case stderrors.Is(err, accounts.ErrUserNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Write sends the response for err. op names the failed operation in logs.
func (e *ErrorLogger) Write(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		e.LogServerError(w, r, op, err)
		return
	}
	e.log.Debug(op,
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("reason", err.Error()))
	Fail(w, status, err.Error())
}

// LogServerError logs err with request context and responds 500.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	e.log.Error(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	Fail(w, http.StatusInternalServerError, ServerErrorMessage)
}

// LogBadRequest logs a malformed request at info and responds 400 with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.log.Info(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	Fail(w, http.StatusBadRequest, userMsg)
}
