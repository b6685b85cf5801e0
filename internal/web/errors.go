package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls s.respondError(w, r, err)
//  3. statusFor picks the HTTP status from the error's type
//  4. core.MapError supplies the user-friendly message and code
//  5. Technical error is logged with the request ID for correlation
//  6. User message is rendered as JSON, or as an HTML fragment for HTMX

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/ecumap/internal/core"
	"github.com/JonMunkholm/ecumap/internal/ecumap"
	"github.com/JonMunkholm/ecumap/internal/web/templates"
)

// errBadRequest marks malformed requests (missing fields, bad JSON).
var errBadRequest = errors.New("bad request")

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
// Detail carries the technical message for client errors only.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Detail  string `json:"detail,omitempty"`
}

// statusFor maps an error to its HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ecumap.ErrInvalidDefinition),
		errors.Is(err, ecumap.ErrUnsupportedEncoding),
		errors.Is(err, ecumap.ErrOutOfBoundsRead),
		errors.Is(err, core.ErrNoFile),
		errors.Is(err, core.ErrEmptyFile),
		errors.Is(err, core.ErrInvalidFileType),
		errors.Is(err, core.ErrBatchTooLarge),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrFirmwareNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes a user-friendly response whose status
// is derived from the error.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	resp := ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}
	if status < http.StatusInternalServerError {
		resp.Detail = err.Error()
	}
	renderError(w, r, resp, status)
}

// writeError writes an error response for a condition without an error
// value, such as a rejected rate limit.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	slog.Warn("request rejected",
		"path", r.URL.Path,
		"status", status,
		"reason", message,
		"request_id", middleware.GetReqID(r.Context()),
	)

	userMsg := core.MapError(errors.New(message))
	renderError(w, r, ErrorResponse{
		Error:   message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}, status)
}

func renderError(w http.ResponseWriter, r *http.Request, resp ErrorResponse, status int) {
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := templates.ErrorAlert(resp.Message, resp.Action, resp.Code, resp.Detail).Render(r.Context(), w); err != nil {
			slog.Error("render error alert", "error", err)
		}
		return
	}
	writeJSONStatus(w, status, resp)
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
