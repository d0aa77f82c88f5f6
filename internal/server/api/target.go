package api

import (
	"net/http"

	"github.com/ayusman/handsheet/internal/target"
)

// TargetReader is the read side of the pointing resolver.
type TargetReader interface {
	Get() (target.Target, bool)
	Fresh() bool
}

// TargetHandler reports what the user is pointing at.
type TargetHandler struct {
	resolver TargetReader
}

// NewTargetHandler creates a TargetHandler.
func NewTargetHandler(r TargetReader) *TargetHandler {
	return &TargetHandler{resolver: r}
}

type targetResponse struct {
	Target *target.Target `json:"target"`
	Fresh  bool           `json:"fresh"`
}

// ServeHTTP handles GET /api/target.
func (h *TargetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var resp targetResponse
	if t, ok := h.resolver.Get(); ok {
		resp.Target = &t
		resp.Fresh = h.resolver.Fresh()
	}
	writeJSON(w, http.StatusOK, resp)
}
