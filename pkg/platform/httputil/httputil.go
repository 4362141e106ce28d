// Package httputil writes the JSON response envelope shared by all
// handlers: {"status": ..., "data": ..., "message": ...}.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "vendora/pkg/domain-errors"
)

// Envelope is the uniform response body.
type Envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a success envelope with the given HTTP status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Status: "success", Data: data})
}

// WriteMessage writes a success envelope carrying only a message.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Status: "success", Message: message})
}

// WriteError maps a coded domain error onto its HTTP status and writes an
// error envelope. Uncoded errors become 500s with a generic message so
// internals never leak to clients.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := dErrors.ToHTTPStatus(dErrors.CodeOf(err))
	message := dErrors.MessageOf(err)

	var coded *dErrors.Error
	if !errors.As(err, &coded) {
		message = "internal server error"
	}
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", "status", status, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Status: "error", Message: message})
}

// maxBodyBytes bounds request bodies so a client cannot stream an
// arbitrarily large payload into the decoder.
const maxBodyBytes = 1 << 20

// DecodeJSON decodes a request body into dst, returning a coded validation
// error on malformed input.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "request body is not valid JSON")
	}
	return nil
}
