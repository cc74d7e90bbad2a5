package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/seoadmin/internal/app/system/backend"
	"github.com/dalemusser/seoadmin/internal/app/system/network"
	"github.com/dalemusser/seoadmin/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// ErrorLogger adds request fields to handler error logs.
type ErrorLogger struct {
	logger *zap.Logger
}

// NewErrorLogger creates a new ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{logger: logger}
}

// Log logs an error with the given message and error.
func (e *ErrorLogger) Log(r *http.Request, msg string, err error) {
	e.LogWithFields(r, msg, err)
}

// LogWithFields logs an error with additional fields.
func (e *ErrorLogger) LogWithFields(r *http.Request, msg string, err error, fields ...zap.Field) {
	all := append(requestFields(r, err), fields...)
	e.logger.Error(msg, all...)
}

// Backend logs a failed backend call. Answers the backend gave on purpose
// (4xx) are warnings; transport failures and 5xx are errors.
func (e *ErrorLogger) Backend(r *http.Request, msg string, err error) {
	fields := requestFields(r, err)
	var apiErr *backend.APIError
	if stderrors.As(err, &apiErr) {
		fields = append(fields, zap.Int("backend_status", apiErr.StatusCode))
		if apiErr.StatusCode < http.StatusInternalServerError {
			e.logger.Warn(msg, fields...)
			return
		}
	}
	e.logger.Error(msg, fields...)
}

func requestFields(r *http.Request, err error) []zap.Field {
	return []zap.Field{
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.String("ip", network.ClientIP(r)),
	}
}

// Handler provides error page handlers.
type Handler struct{}

// NewHandler creates a new error Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden renders the 403 page.
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusForbidden, "Access Denied", "errors/forbidden")
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "Not Found", "errors/not_found")
}

// InternalError renders the 500 page.
func (h *Handler) InternalError(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusInternalServerError, "Server Error", "errors/internal")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, title, name string) {
	vm := viewdata.New(r)
	vm.Title = title
	w.WriteHeader(status)
	templates.Render(w, r, name, vm)
}
