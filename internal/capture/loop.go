package capture

import (
	"context"
	"log"
	"time"

	"github.com/ayusman/handsheet/internal/detector"
	"github.com/ayusman/handsheet/internal/vision"
)

// LoopConfig controls the capture loop.
type LoopConfig struct {
	// IdleFPS is used while no hands have been seen for IdleAfter.
	IdleFPS int
	// ActiveFPS is used while hands are in view.
	ActiveFPS int
	IdleAfter time.Duration
	// Enabled gates detection; frames are still drained while disabled.
	Enabled func() bool
	Now     func() time.Time
}

// DefaultLoopConfig returns the standard pacing.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		IdleFPS:   5,
		ActiveFPS: DefaultFPS,
		IdleAfter: 2 * time.Second,
	}
}

// Loop reads camera frames, runs hand detection and publishes one
// detector.Frame per tick, including frames with no hands.
type Loop struct {
	camera   Camera
	detector vision.Detector
	publish  func(detector.Frame)
	config   LoopConfig

	active   bool
	lastSeen time.Time
}

// NewLoop creates a Loop. publish is called on the loop goroutine.
func NewLoop(camera Camera, d vision.Detector, publish func(detector.Frame), config LoopConfig) *Loop {
	def := DefaultLoopConfig()
	if config.IdleFPS <= 0 {
		config.IdleFPS = def.IdleFPS
	}
	if config.ActiveFPS <= 0 {
		config.ActiveFPS = def.ActiveFPS
	}
	if config.IdleAfter <= 0 {
		config.IdleAfter = def.IdleAfter
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Loop{camera: camera, detector: d, publish: publish, config: config}
}

// Run opens the camera and processes frames until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.camera.Open(); err != nil {
		return err
	}
	defer func() {
		if err := l.camera.Close(); err != nil {
			log.Printf("[capture] close camera: %v", err)
		}
	}()

	l.camera.SetFPS(l.config.IdleFPS)
	ticker := time.NewTicker(interval(l.config.IdleFPS))
	defer ticker.Stop()

	log.Println("[capture] loop started")
	for {
		select {
		case <-ctx.Done():
			log.Println("[capture] loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if fps, changed := l.Tick(); changed {
				l.camera.SetFPS(fps)
				ticker.Reset(interval(fps))
			}
		}
	}
}

// Tick processes one frame and reports the frame rate to use next when it
// changed.
func (l *Loop) Tick() (fps int, changed bool) {
	frame, err := l.camera.ReadFrame()
	if err != nil {
		log.Printf("[capture] read frame: %v", err)
		return 0, false
	}
	defer frame.Close()

	if l.config.Enabled != nil && !l.config.Enabled() {
		return 0, false
	}

	hands, err := l.detector.Detect(frame)
	if err != nil {
		log.Printf("[capture] detect hands: %v", err)
		return 0, false
	}

	now := l.config.Now()
	l.publish(detector.Frame{Hands: hands, Timestamp: now}.Clamp())

	switch {
	case len(hands) > 0:
		l.lastSeen = now
		if !l.active {
			l.active = true
			log.Println("[capture] hands in view, switching to active rate")
			return l.config.ActiveFPS, true
		}
	case l.active && now.Sub(l.lastSeen) > l.config.IdleAfter:
		l.active = false
		log.Println("[capture] no hands, switching to idle rate")
		return l.config.IdleFPS, true
	}
	return 0, false
}

// Active reports whether the loop is running at the active rate.
func (l *Loop) Active() bool {
	return l.active
}

func interval(fps int) time.Duration {
	return time.Second / time.Duration(fps)
}
