package api

import (
	"net/http"
	"strings"

	"github.com/ayusman/handsheet/internal/command"
)

// CommandHandler accepts structured commands, as produced by an external
// speech front end, and dispatches them.
type CommandHandler struct {
	dispatch Dispatcher
}

// NewCommandHandler creates a CommandHandler.
func NewCommandHandler(d Dispatcher) *CommandHandler {
	return &CommandHandler{dispatch: d}
}

// ServeHTTP handles POST /api/commands.
func (h *CommandHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var cmd command.Command
	if !decode(w, r, &cmd) {
		return
	}
	if strings.TrimSpace(cmd.Action) == "" {
		writeError(w, http.StatusBadRequest, "Action is required")
		return
	}
	if cmd.Source == "" {
		cmd.Source = command.SourceSpeech
	}

	out := h.dispatch.Dispatch(r.Context(), cmd)
	writeJSON(w, outcomeStatus(out), toOutcomeResponse(out))
}
