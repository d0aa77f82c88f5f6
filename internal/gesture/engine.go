package gesture

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ayusman/handsheet/internal/command"
	"github.com/ayusman/handsheet/internal/detector"
	"github.com/ayusman/handsheet/internal/geometry"
	"github.com/ayusman/handsheet/internal/target"
)

// Config holds gesture tunables. Distances are in normalized landmark
// units unless they say pixels.
type Config struct {
	Viewport geometry.Viewport
	Arbiter  ArbiterConfig

	// LegacyDelete enables the selection plus downward-spike delete that
	// the dwell-lock delete replaced.
	LegacyDelete bool
	// HorizontalScroll lets horizontal open-palm swipes step columns. When
	// off they are left to undo and redo.
	HorizontalScroll bool
	// PasteRequireStill only scores paste while the opening hand is still.
	PasteRequireStill bool

	Dwell          time.Duration
	DwellGrace     time.Duration
	FlickPixels    float64
	MidlineOffset  float64
	DeleteCooldown time.Duration

	ScrollVerticalPixels   float64
	ScrollHorizontalPixels float64
	ScrollHysteresis       float64
	ScrollCooldown         time.Duration
	AxisLock               time.Duration

	PasteWindow time.Duration
}

// DefaultConfig returns the tuned defaults for a 1280x720 view.
func DefaultConfig() Config {
	return Config{
		Viewport:          geometry.Viewport{Width: 1280, Height: 720},
		Arbiter:           StrictArbiter(),
		PasteRequireStill: true,

		Dwell:          450 * time.Millisecond,
		DwellGrace:     150 * time.Millisecond,
		FlickPixels:    40,
		MidlineOffset:  50,
		DeleteCooldown: 500 * time.Millisecond,

		ScrollVerticalPixels:   30,
		ScrollHorizontalPixels: 40,
		ScrollHysteresis:       0.15,
		ScrollCooldown:         500 * time.Millisecond,
		AxisLock:               500 * time.Millisecond,

		PasteWindow: 3 * time.Second,
	}
}

// Source is the slice of the spreadsheet the rules read.
type Source interface {
	geometry.Locator
	Selection() (geometry.Rect, bool)
	CountRows() int
	CountCols() int
}

// Dispatcher runs committed commands.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd command.Command) command.Outcome
}

// Commit is a candidate that won arbitration, with its execution outcome.
type Commit struct {
	Candidate Candidate       `json:"candidate"`
	Outcome   command.Outcome `json:"outcome"`
}

// Result reports what one frame produced.
type Result struct {
	Candidates []Candidate
	Decision   Decision
	Commit     *Commit
}

// Engine evaluates frames. Process is safe to call from several
// goroutines; frames are handled one at a time.
type Engine struct {
	mu       sync.Mutex
	config   Config
	source   Source
	resolver *target.Resolver
	dispatch Dispatcher
	arbiter  *Arbiter
	state    *State
	bucket   Bucket
	last     time.Time
	enabled  bool

	// OnCommit is called after every committed gesture.
	OnCommit func(Commit)
}

// New creates an Engine. resolver may be nil.
func New(source Source, resolver *target.Resolver, dispatch Dispatcher, config Config) *Engine {
	def := DefaultConfig()
	if config.Viewport.Width <= 0 || config.Viewport.Height <= 0 {
		config.Viewport = def.Viewport
	}
	if config.Arbiter.Cooldown <= 0 && config.Arbiter.MinScore <= 0 {
		config.Arbiter = def.Arbiter
	}
	if config.Dwell <= 0 {
		config.Dwell = def.Dwell
	}
	if config.PasteWindow <= 0 {
		config.PasteWindow = def.PasteWindow
	}
	return &Engine{
		config:   config,
		source:   source,
		resolver: resolver,
		dispatch: dispatch,
		arbiter:  NewArbiter(config.Arbiter),
		state:    NewState(),
		enabled:  true,
	}
}

// SetEnabled turns gesture processing on or off. Turning it back on starts
// from a clean state.
func (e *Engine) SetEnabled(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if on && !e.enabled {
		e.state = NewState()
		e.arbiter.Reset()
	}
	e.enabled = on
}

// Enabled reports whether frames are processed.
func (e *Engine) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// State exposes the cross-frame state for inspection. Callers must not
// hold it across Process calls.
func (e *Engine) State() *State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Process evaluates one frame: it updates the pointing target, runs every
// rule, arbitrates, and dispatches the winner.
func (e *Engine) Process(ctx context.Context, frame detector.Frame) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.enabled {
		return Result{Decision: Decision{Verdict: VerdictDisabled}}
	}

	now := frame.Timestamp
	if now.IsZero() {
		now = time.Now()
	}
	// Frame clocks must not run backwards.
	if now.Before(e.last) {
		now = e.last
	}
	e.last = now

	hands := frame.Hands
	if len(hands) > detector.MaxHands {
		hands = hands[:detector.MaxHands]
	}

	if e.resolver != nil {
		e.resolver.Update(hands, now)
	}

	infos := e.observe(hands, now)
	e.runRules(infos, now)

	candidates := e.bucket.Candidates()
	decision := e.arbiter.Decide(&e.bucket, now)
	res := Result{Candidates: candidates, Decision: decision}
	if decision.Verdict != VerdictCommit {
		return res
	}

	commit := e.commit(ctx, decision.Winner, now)
	res.Commit = &commit
	if e.OnCommit != nil {
		e.OnCommit(commit)
	}
	return res
}

func (e *Engine) commit(ctx context.Context, c Candidate, now time.Time) Commit {
	cmd := c.Command
	cmd.Source = command.SourceGesture
	cmd.Gesture = c.Name
	cmd.Score = c.Score
	c.Command = cmd

	st := e.state
	switch c.Name {
	case NameCopy:
		st.copyArmed = false
		st.pasteUntil = now.Add(e.config.PasteWindow)
		st.hands[c.Hand].spent = true
	case NameSelect, NamePaste:
		st.disarmPaste()
	case NameAutofill:
		st.seed = nil
	}

	var out command.Outcome
	if e.dispatch == nil {
		log.Printf("[gesture] %s committed with no dispatcher", c.Name)
		out = command.Outcome{Command: cmd, Err: command.ErrNoExecutor, At: now}
	} else {
		out = e.dispatch.Dispatch(ctx, cmd)
	}
	return Commit{Candidate: c, Outcome: out}
}
