// Package feedback shows transient cues for committed actions.
package feedback

import (
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ayusman/handsheet/internal/geometry"
	"github.com/ayusman/handsheet/internal/hub"
)

// Kind is a cue style. At most one cue of each kind is visible.
type Kind string

const (
	KindRing  Kind = "ring"
	KindToast Kind = "toast"
)

// Cue is something shown near the fingertip that triggered an action.
type Cue struct {
	ID      uint64               `json:"id"`
	Kind    Kind                 `json:"kind"`
	Label   string               `json:"label"`
	OK      bool                 `json:"ok"`
	Point   geometry.ScreenPoint `json:"point"`
	Expires time.Time            `json:"expires"`
}

// EventType says whether a cue appeared or went away.
type EventType string

const (
	EventShow EventType = "show"
	EventHide EventType = "hide"
)

// Event is published to the presenter's subscribers.
type Event struct {
	Type EventType `json:"type"`
	Cue  Cue       `json:"cue"`
}

// Timer is the part of *time.Timer the presenter uses.
type Timer interface {
	Stop() bool
}

// Config holds presenter options.
type Config struct {
	RingDuration  time.Duration
	ToastDuration time.Duration
	Now           func() time.Time
	AfterFunc     func(d time.Duration, f func()) Timer
}

// DefaultConfig returns the standard cue durations.
func DefaultConfig() Config {
	return Config{
		RingDuration:  400 * time.Millisecond,
		ToastDuration: 1500 * time.Millisecond,
	}
}

type shown struct {
	cue   Cue
	timer Timer
}

// Presenter owns the visible cues and their dismiss timers. A timer that
// fires after its cue was replaced or cancelled does nothing.
type Presenter struct {
	mu     sync.Mutex
	config Config
	nextID uint64
	active map[Kind]*shown
	events *hub.Multiplexer[Event]
}

// NewPresenter creates a Presenter.
func NewPresenter(config Config) *Presenter {
	def := DefaultConfig()
	if config.RingDuration <= 0 {
		config.RingDuration = def.RingDuration
	}
	if config.ToastDuration <= 0 {
		config.ToastDuration = def.ToastDuration
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.AfterFunc == nil {
		config.AfterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	return &Presenter{
		config: config,
		active: make(map[Kind]*shown),
		events: hub.New[Event](),
	}
}

// Subscribe registers for show/hide events.
func (p *Presenter) Subscribe(name string, fn func(Event)) (unsubscribe func()) {
	return p.events.Subscribe(name, fn)
}

// Committed shows the cues for a committed action: a ring at the fingertip
// when it succeeded and a toast either way.
func (p *Presenter) Committed(action string, ok bool, at geometry.ScreenPoint) {
	label := Label(action)
	if ok {
		p.Show(KindRing, label, true, at)
	} else {
		label += " failed"
	}
	p.Show(KindToast, label, ok, at)
}

// Show displays a cue of the given kind, replacing any visible one.
func (p *Presenter) Show(kind Kind, label string, ok bool, at geometry.ScreenPoint) Cue {
	d := p.config.ToastDuration
	if kind == KindRing {
		d = p.config.RingDuration
	}

	p.mu.Lock()
	p.nextID++
	cue := Cue{ID: p.nextID, Kind: kind, Label: label, OK: ok, Point: at, Expires: p.config.Now().Add(d)}
	prev := p.active[kind]
	if prev != nil {
		prev.timer.Stop()
	}
	id := cue.ID
	p.active[kind] = &shown{cue: cue, timer: p.config.AfterFunc(d, func() { p.expire(kind, id) })}
	p.mu.Unlock()

	p.events.Publish(Event{Type: EventShow, Cue: cue})
	return cue
}

// Cancel dismisses the visible cue of kind, if any.
func (p *Presenter) Cancel(kind Kind) {
	p.mu.Lock()
	s := p.active[kind]
	if s != nil {
		s.timer.Stop()
		delete(p.active, kind)
	}
	p.mu.Unlock()

	if s != nil {
		p.events.Publish(Event{Type: EventHide, Cue: s.cue})
	}
}

func (p *Presenter) expire(kind Kind, id uint64) {
	p.mu.Lock()
	s := p.active[kind]
	if s == nil || s.cue.ID != id {
		p.mu.Unlock()
		return
	}
	delete(p.active, kind)
	p.mu.Unlock()

	p.events.Publish(Event{Type: EventHide, Cue: s.cue})
}

// Active returns the visible cues.
func (p *Presenter) Active() []Cue {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Cue, 0, len(p.active))
	for _, k := range []Kind{KindRing, KindToast} {
		if s := p.active[k]; s != nil {
			out = append(out, s.cue)
		}
	}
	return out
}

// Close stops every pending timer.
func (p *Presenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, s := range p.active {
		s.timer.Stop()
		delete(p.active, k)
	}
}

var title = cases.Title(language.English)

// Label turns an action or gesture name such as "zoomIn" into "Zoom In".
func Label(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return title.String(b.String())
}
