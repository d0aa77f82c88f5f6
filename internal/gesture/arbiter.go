package gesture

import (
	"time"
)

// scoreEpsilon absorbs float rounding in margin comparisons.
const scoreEpsilon = 1e-9

// ArbiterConfig holds the commit policy.
type ArbiterConfig struct {
	// MinScore is the floor the top candidate must reach.
	MinScore float64
	// Margin is how far the top candidate must lead a differently named
	// runner-up. Zero disables the check.
	Margin float64
	// Cooldown is the minimum time between two commits of any gesture.
	Cooldown time.Duration
}

// StrictArbiter is the default policy.
func StrictArbiter() ArbiterConfig {
	return ArbiterConfig{MinScore: 0.88, Margin: 0.06, Cooldown: 500 * time.Millisecond}
}

// SimpleArbiter commits the best candidate above a lower floor with no
// ambiguity check.
func SimpleArbiter() ArbiterConfig {
	return ArbiterConfig{MinScore: 0.82, Cooldown: 350 * time.Millisecond}
}

// Verdict is the arbiter's ruling on one frame.
type Verdict int

const (
	VerdictNoCandidates Verdict = iota
	VerdictCommit
	VerdictCooling
	VerdictBelowFloor
	VerdictAmbiguous
	VerdictDisabled
)

func (v Verdict) String() string {
	switch v {
	case VerdictNoCandidates:
		return "no-candidates"
	case VerdictCommit:
		return "commit"
	case VerdictCooling:
		return "cooling"
	case VerdictBelowFloor:
		return "below-floor"
	case VerdictAmbiguous:
		return "ambiguous"
	case VerdictDisabled:
		return "disabled"
	}
	return "unknown"
}

// Decision is the outcome of arbitrating one frame. Winner is set only for
// VerdictCommit; Top is the best candidate whenever there was one.
type Decision struct {
	Verdict Verdict
	Winner  Candidate
	Top     *Candidate
}

// Arbiter picks at most one candidate per frame and enforces the global
// cooldown. It is not safe for concurrent use.
type Arbiter struct {
	config     ArbiterConfig
	lastCommit time.Time
	lastName   string
	committed  bool
}

// NewArbiter creates an Arbiter.
func NewArbiter(config ArbiterConfig) *Arbiter {
	return &Arbiter{config: config}
}

// Config returns the policy in use.
func (a *Arbiter) Config() ArbiterConfig { return a.config }

// Cooling reports whether a commit at now would fall inside the cooldown.
func (a *Arbiter) Cooling(now time.Time) bool {
	return a.committed && now.Sub(a.lastCommit) < a.config.Cooldown
}

// Decide rules on the bucket and always empties it.
func (a *Arbiter) Decide(b *Bucket, now time.Time) Decision {
	defer b.Reset()

	if b.Len() == 0 {
		return Decision{Verdict: VerdictNoCandidates}
	}
	sorted := b.Sorted()
	top := sorted[0]
	if a.Cooling(now) && !(top.Locked && a.lastName == NameSelect) {
		return Decision{Verdict: VerdictCooling}
	}
	d := Decision{Top: &top}

	if top.Score < a.config.MinScore {
		d.Verdict = VerdictBelowFloor
		return d
	}
	if a.config.Margin > 0 && len(sorted) > 1 {
		second := sorted[1]
		if second.Name != top.Name && top.Score-second.Score < a.config.Margin-scoreEpsilon {
			d.Verdict = VerdictAmbiguous
			return d
		}
	}

	a.lastCommit = now
	a.lastName = top.Name
	a.committed = true
	d.Verdict = VerdictCommit
	d.Winner = top
	return d
}

// Reset forgets the last commit.
func (a *Arbiter) Reset() {
	a.committed = false
	a.lastCommit = time.Time{}
	a.lastName = ""
}
