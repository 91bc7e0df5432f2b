// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/churchroll/internal/app/system/apperr"
	"github.com/dalemusser/churchroll/internal/app/system/auditlog"
	"github.com/dalemusser/churchroll/internal/app/system/auth"
	"go.uber.org/zap"
)

// body is the JSON error envelope:
//
//	{ "error": { "kind": "conflict", "message": "…" } }
type body struct {
	Error detail `json:"error"`
}

type detail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Write renders err as a JSON error. Errors that are not *apperr.Error are
// shown with the generic storage message.
func Write(w http.ResponseWriter, err error) {
	k := apperr.KindOf(err)
	WriteJSON(w, apperr.HTTPStatus(k), body{Error: detail{
		Kind:    k.String(),
		Message: apperr.MessageOf(err),
	}})
}

// NotFound is the router's 404 handler.
func NotFound(w http.ResponseWriter, r *http.Request) {
	Write(w, apperr.NotFound("No such endpoint."))
}

// MethodNotAllowed is the router's 405 handler.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusMethodNotAllowed, body{Error: detail{
		Kind:    "method_not_allowed",
		Message: "Method not allowed.",
	}})
}

// ErrorLogger logs handler failures with request context and writes the
// JSON response.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

// Render logs err according to its kind and writes it. Storage errors are
// logged at error level with their cause; the rest at debug.
func (el *ErrorLogger) Render(w http.ResponseWriter, r *http.Request, msg string, err error) {
	fields := el.fields(r, err)
	if apperr.KindOf(err) == apperr.KindStorage {
		el.Log.Error(msg, fields...)
	} else {
		el.Log.Debug(msg, fields...)
	}
	Write(w, err)
}

// LogBadRequest logs a malformed request and writes a validation error
// carrying userMsg.
func (el *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	el.Log.Warn(msg, el.fields(r, err)...)
	Write(w, apperr.Validation(userMsg))
}

// LogServerError logs an unexpected failure and writes the generic storage
// error.
func (el *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	el.Log.Error(msg, el.fields(r, err)...)
	Write(w, apperr.Storage(err))
}

func (el *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("kind", apperr.KindOf(err).String()),
	}
	if id := auditlog.RequestID(r.Context()); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if u, ok := auth.CurrentUser(r); ok {
		fields = append(fields, zap.String("user_id", u.ID))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	return fields
}
