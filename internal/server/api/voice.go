package api

import (
	"context"
	"net/http"

	"github.com/ayusman/handsheet/internal/command"
	"github.com/ayusman/handsheet/internal/voice"
)

// Parser turns a transcript into a command.
type Parser interface {
	Parse(ctx context.Context, transcript string) (command.Command, error)
}

// VoiceHandler parses spoken transcripts and dispatches the result.
type VoiceHandler struct {
	parser   Parser
	dispatch Dispatcher
	// OnOutcome, when set, sees every dispatched speech command.
	OnOutcome func(command.Outcome)
}

// NewVoiceHandler creates a VoiceHandler.
func NewVoiceHandler(p Parser, d Dispatcher) *VoiceHandler {
	return &VoiceHandler{parser: p, dispatch: d}
}

type voiceRequest struct {
	Transcript string `json:"transcript"`
	Text       string `json:"text"`
}

// ServeHTTP handles POST /api/voice-command.
func (h *VoiceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req voiceRequest
	if !decode(w, r, &req) {
		return
	}
	transcript := req.Transcript
	if transcript == "" {
		transcript = req.Text
	}

	cmd, err := h.parser.Parse(r.Context(), transcript)
	if err != nil {
		writeError(w, voice.HTTPStatus(err), err.Error())
		return
	}

	out := h.dispatch.Dispatch(r.Context(), cmd)
	if h.OnOutcome != nil {
		h.OnOutcome(out)
	}
	writeJSON(w, outcomeStatus(out), toOutcomeResponse(out))
}
