// internal/api/respond.go
package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"inkvault/internal/domain"
)

// Envelope is the conventional response shape: {success, message, data?, errors?}.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// OK writes a success envelope.
func OK(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// Fail writes a failure envelope with an explicit status.
func Fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Success: false, Message: message})
}

// Err maps a domain error to its HTTP status and writes the failure
// envelope. Non-domain errors are logged and reported generically so driver
// identifiers and internal text never reach clients.
func Err(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	if code == domain.EINTERNAL {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("internal error")
	}
	Fail(w, statusFor(code), domain.ErrorMessage(err))
}

func statusFor(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNPROCESSABLE:
		return http.StatusUnprocessableEntity
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
