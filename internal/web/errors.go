package web

// errors.go turns service errors into HTTP responses.
//
// The technical error is logged with the request id; the client gets the
// core.MapError message with its support code. statusFor picks the status
// from the error itself so handlers do not repeat the mapping.

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/claims/internal/chat"
	"github.com/JonMunkholm/claims/internal/core"
	"github.com/JonMunkholm/claims/internal/logging"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var pe *core.ParseError
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrConflict), core.IsImportBusy(err):
		return http.StatusConflict
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &pe), core.IsValidation(err), errors.Is(err, chat.ErrInvalidMessage):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)
	logError(r, status, userMsg, err)

	if wantsJSON(r) {
		respondErrorJSON(w, userMsg, status)
		return
	}
	respondErrorHTML(w, userMsg, status)
}

// logError records a failed request with its technical error.
func logError(r *http.Request, status int, msg core.UserMessage, err error, extra ...any) {
	logger := logging.FromContext(r.Context())
	attrs := append([]any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}, extra...)
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// respondErrorHTML writes a plain text error response for browser pages.
func respondErrorHTML(w http.ResponseWriter, msg core.UserMessage, status int) {
	http.Error(w, msg.Message+" ("+msg.Code+")", status)
}

// wantsJSON reports whether the client expects a JSON error body.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
