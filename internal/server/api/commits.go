package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ayusman/handsheet/internal/command"
	"github.com/ayusman/handsheet/internal/store"
)

// CommitHandler lists the commit log.
type CommitHandler struct {
	store *store.Store
}

// NewCommitHandler creates a CommitHandler.
func NewCommitHandler(s *store.Store) *CommitHandler {
	return &CommitHandler{store: s}
}

type commitResponse struct {
	ID        int64           `json:"id"`
	Action    string          `json:"action"`
	Source    string          `json:"source"`
	Gesture   string          `json:"gesture,omitempty"`
	Score     float64         `json:"score,omitempty"`
	OK        bool            `json:"ok"`
	Error     string          `json:"error,omitempty"`
	Command   command.Command `json:"command"`
	CreatedAt string          `json:"created_at"`
}

type listCommitsResponse struct {
	Commits []commitResponse `json:"commits"`
}

// ServeHTTP handles GET /api/commits?limit=N.
func (h *CommitHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	commits, err := h.store.Commits().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list commits")
		return
	}

	resp := listCommitsResponse{Commits: make([]commitResponse, 0, len(commits))}
	for _, c := range commits {
		resp.Commits = append(resp.Commits, commitResponse{
			ID:        c.ID,
			Action:    c.Action,
			Source:    c.Source,
			Gesture:   c.Gesture,
			Score:     c.Score,
			OK:        c.OK,
			Error:     c.Error,
			Command:   c.Command,
			CreatedAt: c.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
