// Package server provides the HTTP and websocket surface of handsheet.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/handsheet/internal/command"
	"github.com/ayusman/handsheet/internal/server/api"
	"github.com/ayusman/handsheet/internal/store"
)

// Config holds the server configuration. Routes whose collaborator is nil
// are not registered.
type Config struct {
	StaticDir  string
	Store      *store.Store
	Dispatcher api.Dispatcher
	Parser     api.Parser
	Sheet      api.SheetView
	Target     api.TargetReader
	Landmarks  *LandmarksHandler

	// OnVoiceOutcome sees every command dispatched from a transcript.
	OnVoiceOutcome func(command.Outcome)
}

// Server represents the HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Dispatcher != nil {
		s.mux.Handle("/api/commands", api.NewCommandHandler(s.config.Dispatcher))
		if s.config.Parser != nil {
			vh := api.NewVoiceHandler(s.config.Parser, s.config.Dispatcher)
			vh.OnOutcome = s.config.OnVoiceOutcome
			s.mux.Handle("/api/voice-command", vh)
		}
	}
	if s.config.Sheet != nil {
		s.mux.Handle("/api/sheet", api.NewSheetHandler(s.config.Sheet))
	}
	if s.config.Target != nil {
		s.mux.Handle("/api/target", api.NewTargetHandler(s.config.Target))
	}
	if s.config.Store != nil {
		s.mux.Handle("/api/commits", api.NewCommitHandler(s.config.Store))
	}
	if s.config.Landmarks != nil {
		s.mux.Handle("/api/landmarks", s.config.Landmarks)
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Landmarks != nil {
		response["trackers"] = s.config.Landmarks.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// HTTPServer returns an http.Server for addr that serves s.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return s.HTTPServer(addr).ListenAndServe()
}
