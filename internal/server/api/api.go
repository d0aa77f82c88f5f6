// Package api provides the HTTP handlers for commands, speech input, the
// sheet view, the commit log and the pointing target.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ayusman/handsheet/internal/command"
)

// Dispatcher runs a command through the normalizer and executor.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd command.Command) command.Outcome
}

type errorResponse struct {
	Error string `json:"error"`
}

// outcomeResponse is the wire form of a command.Outcome.
type outcomeResponse struct {
	Command command.Command `json:"command"`
	OK      bool            `json:"ok"`
	Result  command.Result  `json:"result"`
	Error   string          `json:"error,omitempty"`
}

func toOutcomeResponse(o command.Outcome) outcomeResponse {
	return outcomeResponse{Command: o.Command, OK: o.OK, Result: o.Result, Error: o.Error()}
}

// outcomeStatus is 200 for success and 422 when the executor refused.
func outcomeStatus(o command.Outcome) int {
	if o.OK {
		return http.StatusOK
	}
	return http.StatusUnprocessableEntity
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// maxBody caps request bodies.
const maxBody = 1 << 20

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}
