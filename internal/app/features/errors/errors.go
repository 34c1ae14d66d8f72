// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/campushub/internal/app/system/inputval"
	"go.uber.org/zap"
)

// Body is the JSON shape of every error response.
type Body struct {
	Error  string                `json:"error"`
	Fields []inputval.FieldError `json:"fields,omitempty"`
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Write sends {"error": msg} with status.
func Write(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Body{Error: msg})
}

// Validation sends 422 with every failed field.
func Validation(w http.ResponseWriter, res *inputval.Result) {
	JSON(w, http.StatusUnprocessableEntity, Body{Error: res.First(), Fields: res.Errors})
}

// BadRequest sends 400.
func BadRequest(w http.ResponseWriter, msg string) { Write(w, http.StatusBadRequest, msg) }

// NotFound sends 404.
func NotFound(w http.ResponseWriter, msg string) { Write(w, http.StatusNotFound, msg) }

// Forbidden sends 403.
func Forbidden(w http.ResponseWriter, msg string) { Write(w, http.StatusForbidden, msg) }

// ErrorLogger logs server-side failures and answers with a generic message
// so internals do not leak to the client.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger returns an ErrorLogger writing to logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

// LogServerError logs err under msg and sends 500 with userMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Error(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	Write(w, http.StatusInternalServerError, userMsg)
}

// LogUnavailable logs err under msg and sends 503 with userMsg.
func (e *ErrorLogger) LogUnavailable(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Warn(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	Write(w, http.StatusServiceUnavailable, userMsg)
}
