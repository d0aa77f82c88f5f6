package geometry

import (
	"math"
	"time"

	"github.com/ayusman/handsheet/internal/detector"
)

// Velocity is a landmark velocity in normalized units per millisecond.
type Velocity struct {
	X float64
	Y float64
}

// Speed returns the magnitude of v.
func (v Velocity) Speed() float64 {
	return math.Hypot(v.X, v.Y)
}

type sample struct {
	point detector.Point3D
	at    time.Time
	vel   Velocity
}

// Kinematics caches the last observed position per hand slot. It is owned
// by the caller and is not safe for concurrent use.
type Kinematics struct {
	last map[int]sample
}

// NewKinematics returns an empty cache.
func NewKinematics() *Kinematics {
	return &Kinematics{last: make(map[int]sample)}
}

// Update records p for the given hand slot and returns the velocity since the
// previous observation. The first observation of a slot yields zero velocity.
// Elapsed time is clamped to at least one millisecond.
func (k *Kinematics) Update(slot int, p detector.Point3D, at time.Time) Velocity {
	prev, ok := k.last[slot]
	var v Velocity
	if ok {
		dt := float64(at.Sub(prev.at)) / float64(time.Millisecond)
		if dt < 1 {
			dt = 1
		}
		v = Velocity{X: (p.X - prev.point.X) / dt, Y: (p.Y - prev.point.Y) / dt}
	}
	k.last[slot] = sample{point: p, at: at, vel: v}
	return v
}

// Last returns the most recent velocity for slot, if any.
func (k *Kinematics) Last(slot int) (Velocity, bool) {
	s, ok := k.last[slot]
	return s.vel, ok
}

// Forget drops the cached sample for slot so its next observation starts fresh.
func (k *Kinematics) Forget(slot int) {
	delete(k.last, slot)
}
