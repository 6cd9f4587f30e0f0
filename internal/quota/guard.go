// Package quota tracks calls made to the generative service during a
// session and refuses new work once a hard cap is reached. The guard is a
// client-side courtesy limit, not an enforcement mechanism: the service
// applies its own limits independently.
package quota

import (
	"sync"

	"github.com/rotisserie/eris"
)

// Free-tier defaults, mirrored in config.
const (
	DefaultWarnThreshold = 35
	DefaultHardCap       = 50
)

// ErrExhausted is returned when the session hard cap has been reached.
var ErrExhausted = eris.New("quota: session request limit reached")

// Guard is a monotonically increasing session call counter with a soft
// warning threshold and a hard cap. The counter never decreases within a
// session; it resets only with process restart.
type Guard struct {
	mu   sync.Mutex
	used int
	warn int
	cap  int
}

// NewGuard creates a guard with the given thresholds. Non-positive values
// fall back to the free-tier defaults.
func NewGuard(warnThreshold, hardCap int) *Guard {
	if warnThreshold <= 0 {
		warnThreshold = DefaultWarnThreshold
	}
	if hardCap <= 0 {
		hardCap = DefaultHardCap
	}
	return &Guard{warn: warnThreshold, cap: hardCap}
}

// Track records one attempted service call and returns the new total.
// Attempted calls count even if they later fail.
func (g *Guard) Track() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.used++
	return g.used
}

// Allow reports whether another service call may start.
func (g *Guard) Allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.used < g.cap
}

// Check returns ErrExhausted when no further calls may start.
func (g *Guard) Check() error {
	if !g.Allow() {
		return ErrExhausted
	}
	return nil
}

// Warning reports whether usage has crossed the soft threshold. It has no
// functional effect; callers surface it visually.
func (g *Guard) Warning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.used >= g.warn
}

// Used returns the number of calls attempted so far.
func (g *Guard) Used() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.used
}

// Cap returns the hard cap.
func (g *Guard) Cap() int {
	return g.cap
}
