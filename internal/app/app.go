// Package app wires the grid, pointing resolver, gesture engine, command
// pipeline, persistence and HTTP surface into one running program.
package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/handsheet/internal/capture"
	"github.com/ayusman/handsheet/internal/command"
	"github.com/ayusman/handsheet/internal/config"
	"github.com/ayusman/handsheet/internal/detector"
	"github.com/ayusman/handsheet/internal/executor"
	"github.com/ayusman/handsheet/internal/feedback"
	"github.com/ayusman/handsheet/internal/geometry"
	"github.com/ayusman/handsheet/internal/gesture"
	"github.com/ayusman/handsheet/internal/hub"
	"github.com/ayusman/handsheet/internal/replay"
	"github.com/ayusman/handsheet/internal/server"
	"github.com/ayusman/handsheet/internal/sheet"
	"github.com/ayusman/handsheet/internal/store"
	"github.com/ayusman/handsheet/internal/target"
	"github.com/ayusman/handsheet/internal/tray"
	"github.com/ayusman/handsheet/internal/vision"
	"github.com/ayusman/handsheet/internal/voice"
)

// Config holds what the application is assembled from. Everything except
// Settings is optional.
type Config struct {
	Settings config.Config

	// Store enables snapshot restore, autosave and the commit log.
	Store *store.Store
	// Clipboard receives copied ranges; nil skips the system clipboard.
	Clipboard executor.Clipboard
	// Interpreter is the LLM speech parser; nil uses local phrases only.
	Interpreter voice.Interpreter
	// Recorder, when set, receives every landmark frame.
	Recorder *replay.Recorder

	// Camera and Detector drive the local capture loop when Settings.Camera is on.
	Camera   capture.Camera
	Detector vision.Detector

	// Tray shows the system tray toggle.
	Tray *tray.Tray

	// Now is the clock shared by the resolver and pipeline.
	Now func() time.Time
}

// App is the running application.
type App struct {
	settings config.Config
	now      func() time.Time

	grid      *sheet.Grid
	resolver  *target.Resolver
	executor  *executor.Executor
	pipeline  *command.Pipeline
	engine    *gesture.Engine
	frames    *hub.Multiplexer[detector.Frame]
	cues      *feedback.Presenter
	parser    *voice.Parser
	landmarks *server.LandmarksHandler
	server    *server.Server

	store    *store.Store
	autosave *store.Autosaver
	loop     *capture.Loop
	tray     *tray.Tray

	mu       sync.Mutex
	onCommit []func(gesture.Commit)
}

// New builds the application. It restores the newest snapshot when a store
// is configured.
func New(cfg Config) *App {
	s := cfg.Settings
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	a := &App{settings: s, now: cfg.Now, store: cfg.Store, tray: cfg.Tray}

	gridCfg := sheet.DefaultConfig()
	gridCfg.Rows, gridCfg.Cols = s.Rows, s.Cols
	a.grid = sheet.New(gridCfg)
	a.restore()

	viewport := geometry.Viewport{Width: s.ViewportWidth, Height: s.ViewportHeight}
	if viewport.Width <= 0 || viewport.Height <= 0 {
		viewport = gesture.DefaultConfig().Viewport
	}
	a.resolver = target.New(a.grid, target.Config{Viewport: viewport, Freshness: s.Freshness, Now: cfg.Now})
	a.executor = executor.New(a.grid, cfg.Clipboard)

	pcfg := command.PipelineConfig{
		Normalizer: command.NewNormalizer(a.resolver),
		Executor:   a.executor,
		Data:       a.grid,
		OnOutcome:  a.onOutcome,
		Now:        cfg.Now,
	}
	if a.store != nil {
		a.autosave = store.NewAutosaver(a.store.Snapshots(), store.DefaultKeep)
		pcfg.Autosave = a.autosave.Save
	}
	a.pipeline = command.NewPipeline(pcfg)

	gcfg := gesture.DefaultConfig()
	gcfg.Viewport = viewport
	if !s.StrictArbiter {
		gcfg.Arbiter = gesture.SimpleArbiter()
	}
	gcfg.LegacyDelete = s.LegacyDelete
	gcfg.HorizontalScroll = s.HorizontalScroll
	gcfg.PasteRequireStill = s.PasteRequireStill
	a.engine = gesture.New(a.grid, a.resolver, a.pipeline, gcfg)
	a.engine.OnCommit = a.onGestureCommit

	a.cues = feedback.NewPresenter(feedback.Config{Now: cfg.Now})
	a.landmarks = server.NewLandmarksHandler(a.Ingest)
	a.cues.Subscribe("websocket", func(ev feedback.Event) { a.landmarks.Broadcast("cue", ev) })

	a.frames = hub.New[detector.Frame]()
	a.frames.Subscribe("gesture", func(f detector.Frame) { a.engine.Process(context.Background(), f) })
	if cfg.Recorder != nil {
		a.frames.Subscribe("recorder", cfg.Recorder.Record)
	}

	a.parser = voice.NewParser(cfg.Interpreter)
	a.server = server.New(server.Config{
		StaticDir:      s.StaticDir,
		Store:          a.store,
		Dispatcher:     a.pipeline,
		Parser:         a.parser,
		Sheet:          a.grid,
		Target:         a.resolver,
		Landmarks:      a.landmarks,
		OnVoiceOutcome: a.onSpeechOutcome,
	})

	if s.Camera && cfg.Camera != nil && cfg.Detector != nil {
		a.loop = capture.NewLoop(cfg.Camera, cfg.Detector, a.Ingest, capture.LoopConfig{Enabled: a.engine.Enabled})
	}
	if a.tray != nil {
		a.tray.OnToggle(a.SetEnabled)
	}
	return a
}

func (a *App) restore() {
	if a.store == nil {
		return
	}
	snap, err := a.store.Snapshots().Latest()
	switch {
	case errors.Is(err, store.ErrNotFound):
		return
	case err != nil:
		log.Printf("[app] could not restore snapshot: %v", err)
		return
	}
	a.grid.Load(snap.Data)
	log.Printf("[app] restored snapshot %s from %s", snap.ID, snap.CreatedAt.Format(time.RFC3339))
}

// Ingest publishes one landmark frame to every frame subscriber.
func (a *App) Ingest(f detector.Frame) {
	if f.Timestamp.IsZero() {
		f.Timestamp = a.now()
	}
	a.frames.Publish(f.Clamp())
}

// OnCommit registers fn to see every committed gesture.
func (a *App) OnCommit(fn func(gesture.Commit)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onCommit = append(a.onCommit, fn)
}

func (a *App) onGestureCommit(c gesture.Commit) {
	a.cues.Committed(c.Candidate.Name, c.Outcome.OK, c.Candidate.Point)

	a.mu.Lock()
	hooks := append([]func(gesture.Commit)(nil), a.onCommit...)
	a.mu.Unlock()
	for _, fn := range hooks {
		fn(c)
	}
}

// onSpeechOutcome places the cue on the cell the command was resolved against.
func (a *App) onSpeechOutcome(o command.Outcome) {
	var at geometry.ScreenPoint
	if t, ok := a.resolver.Get(); ok && t.Kind == target.KindCell {
		if c, err := geometry.ParseCell(t.Cell); err == nil {
			at = a.grid.CellCenter(c)
		}
	}
	a.cues.Committed(o.Command.Action, o.OK, at)
}

type commitMessage struct {
	Command command.Command `json:"command"`
	OK      bool            `json:"ok"`
	Result  command.Result  `json:"result"`
	Error   string          `json:"error,omitempty"`
}

// onOutcome runs for every dispatched command, from either input.
func (a *App) onOutcome(o command.Outcome) {
	if a.store != nil {
		if err := a.store.Commits().Create(store.CommitFromOutcome(o)); err != nil {
			log.Printf("[app] commit log write failed: %v", err)
		}
	}
	if a.tray != nil {
		a.tray.SetLast(o)
	}
	a.landmarks.Broadcast("commit", commitMessage{Command: o.Command, OK: o.OK, Result: o.Result, Error: o.Error()})
}

// SetEnabled turns gesture recognition on or off.
func (a *App) SetEnabled(on bool) {
	a.engine.SetEnabled(on)
	log.Printf("[app] gestures enabled=%v", on)
}

// Dispatch runs a command through the pipeline.
func (a *App) Dispatch(ctx context.Context, cmd command.Command) command.Outcome {
	return a.pipeline.Dispatch(ctx, cmd)
}

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler {
	return a.server
}

// Grid returns the in-memory sheet.
func (a *App) Grid() *sheet.Grid {
	return a.grid
}

// Engine returns the gesture engine.
func (a *App) Engine() *gesture.Engine {
	return a.engine
}

// Cues returns the feedback presenter.
func (a *App) Cues() *feedback.Presenter {
	return a.cues
}

// Run serves HTTP on the configured address and runs the capture loop, if
// any, until ctx is done.
func (a *App) Run(ctx context.Context) error {
	srv := a.server.HTTPServer(a.settings.Addr)
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[app] listening on %s", a.settings.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if a.loop != nil {
		go func() {
			if err := a.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[app] capture loop ended: %v", err)
			}
		}()
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close flushes pending autosaves and cancels visible cues.
func (a *App) Close() {
	if a.autosave != nil {
		a.autosave.Close()
	}
	a.cues.Close()
}
