package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pkordes/mapty/internal/domain"
	"github.com/pkordes/mapty/internal/session"
	"github.com/pkordes/mapty/internal/ui"
)

// ErrorDetail is the machine-readable code and human-readable message of an
// error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response. Commands carries UI
// commands produced before the failure (e.g. the validation alert).
type ErrorResponse struct {
	Error    ErrorDetail  `json:"error"`
	Commands []ui.Command `json:"commands,omitempty"`
}

// writeJSON encodes v as the response body with the given status.
// A value that cannot be encoded turns into a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("encoding response", "error", err)
		status = http.StatusInternalServerError
		b = []byte(`{"error":{"code":"internal_error","message":"response could not be encoded"}}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}

// writeError maps err onto a status code and error body.
// Sentinels map as follows: domain.ErrNotFound → 404,
// domain.ErrValidation → 422, session.ErrMapNotReady and
// session.ErrNoPendingClick → 409. Anything else is logged and answered 500.
func writeError(w http.ResponseWriter, r *http.Request, err error, cmds []ui.Command) {
	var (
		status int
		detail ErrorDetail
	)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, detail = http.StatusNotFound, ErrorDetail{Code: "not_found", Message: lastSegment(err)}
	case errors.Is(err, domain.ErrValidation):
		status, detail = http.StatusUnprocessableEntity, ErrorDetail{Code: "validation_error", Message: unwrapMessage(err)}
	case errors.Is(err, session.ErrMapNotReady), errors.Is(err, session.ErrNoPendingClick):
		status, detail = http.StatusConflict, ErrorDetail{Code: "conflict", Message: lastSegment(err)}
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		status, detail = http.StatusInternalServerError, ErrorDetail{Code: "internal_error", Message: "internal server error"}
	}
	writeJSON(w, status, ErrorResponse{Error: detail, Commands: cmds})
}

// requestError answers 422 for a request rejected before reaching the
// service layer (e.g. malformed body or query).
func requestError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Error: ErrorDetail{Code: "validation_error", Message: message},
	})
}

// unwrapMessage extracts the human-readable part from a wrapped validation error.
// e.g. "service.SessionService.Submit: session.Controller.Submit: validation error: inputs have to be positive numbers"
// → "inputs have to be positive numbers"
func unwrapMessage(err error) string {
	msg := err.Error()
	const marker = "validation error: "
	if i := strings.LastIndex(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return lastSegment(err)
}

// lastSegment drops the "pkg.Type.Method: " prefixes of a wrapped error.
func lastSegment(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

// decodeJSON decodes the request body into v. It answers the request itself
// and returns false when the body is missing, malformed or too large.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		requestError(w, "request body is required")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: ErrorDetail{Code: "too_large", Message: "request body too large"},
			})
			return false
		}
		requestError(w, "malformed JSON body")
		return false
	}
	return true
}
