package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"annies-bakery/internal/model"

	"github.com/rs/zerolog"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeDomainError maps err to a status code and writes it. Domain errors keep
// their message; anything else is reported as an internal error.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	code := model.CodeOf(err)
	status := statusFor(code)

	message := "internal server error"
	var de *model.DomainError
	if errors.As(err, &de) && code != model.ErrCodeStorageCorruption {
		message = de.Message
	}

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Str("code", code).Int("status", status).Msg("request failed")

	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func statusFor(code string) int {
	switch code {
	case model.ErrCodeInvalidInput, model.ErrCodeInvalidJSON, model.ErrCodeWebhookUnverified:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeOrderNotFound, model.ErrCodeProductNotFound, model.ErrCodePostNotFound:
		return http.StatusNotFound
	case model.ErrCodeGatewayError:
		return http.StatusBadGateway
	case model.ErrCodeGatewayUnconfigured:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, logger zerolog.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn().Err(err).Str("path", r.URL.Path).Msg("invalid request body")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: model.ErrCodeInvalidJSON})
		return false
	}
	return true
}
