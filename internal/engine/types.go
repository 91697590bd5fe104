// Package engine plans a single day's errand route: it orders stops to
// minimize driving time and lays a concrete timeline over the order,
// respecting per-stop opening hours and the day's leave/return window.
package engine

import (
	"errors"
	"time"
)

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64
	Lng float64
}

// Window is a stop's opening hours on the plan day. Open must precede Close;
// overnight wraparound is not supported.
type Window struct {
	Open  time.Time
	Close time.Time
}

// Stop is one errand location. Window may be nil (always open). Service is
// the dwell time once arrived: nil means the configured default applies,
// while an explicit zero is a zero-dwell waypoint.
type Stop struct {
	ID      string
	At      GeoPoint
	Service *time.Duration
	Window  *Window
}

// Home is the fixed start and end of the day's route.
type Home struct {
	At       GeoPoint
	Leave    time.Time
	ReturnBy time.Time
}

// Cost is the travel cost of one directed leg. Estimated marks values filled
// by a fallback estimator rather than measured by the routing provider.
type Cost struct {
	Meters    float64
	Duration  time.Duration
	Estimated bool
}

// ScheduledStop is one stop of a timed plan. Wait is idle time spent before
// the stop opened; cumulative figures count from Home along the route.
type ScheduledStop struct {
	StopID          string
	Arrival         time.Time
	Departure       time.Time
	Wait            time.Duration
	CumulativeM     float64
	CumulativeDrive time.Duration
}

// Infeasibility reasons reported on a Plan.
const (
	ReasonArrivedAfterClose = "arrived_after_close"
	ReasonLateReturn        = "late_return"
)

// Plan is the engine's answer: the chosen order with its timeline. When
// Feasible is false the timeline is the best-cost order evaluated, FailedStop
// names the first stop whose constraint broke, and Reason says how. Stops is
// always the full route; nothing is dropped on infeasibility.
type Plan struct {
	Stops      []ScheduledStop
	ReturnAt   time.Time
	TotalM     float64
	TotalDrive time.Duration
	TotalWait  time.Duration
	Feasible   bool
	FailedStop string
	Reason     string
	Method     string // "exact" or "2opt"
	Estimated  bool   // any leg cost came from the fallback estimator
}

// ErrIncompleteCostData reports a missing pair in the cost matrix with no
// fallback estimator configured.
var ErrIncompleteCostData = errors.New("engine: incomplete cost data")

// ErrUnreachablePair reports an infinite-cost pair inside the stop set.
var ErrUnreachablePair = errors.New("engine: unreachable location pair")

// Config carries the engine's tuning knobs. A zero value means the documented
// default; pass the value explicitly in tests to avoid cross-test coupling.
type Config struct {
	// ExactThreshold is the stop count at or below which every permutation is
	// tried. Default 8.
	ExactThreshold int
	// TwoOptIterationCap bounds 2-opt improvement sweeps. Default n*n for n
	// stops.
	TwoOptIterationCap int
	// DefaultServiceDuration applies to stops that omit one. Default 15m.
	DefaultServiceDuration time.Duration
	// MaxFallbackCandidates bounds how many ranked orders the assembler tries
	// when the best order is infeasible. Default 5.
	MaxFallbackCandidates int
}

func (c Config) exactThreshold() int {
	if c.ExactThreshold > 0 {
		return c.ExactThreshold
	}
	return 8
}

func (c Config) twoOptCap(n int) int {
	if c.TwoOptIterationCap > 0 {
		return c.TwoOptIterationCap
	}
	return n * n
}

func (c Config) defaultService() time.Duration {
	if c.DefaultServiceDuration > 0 {
		return c.DefaultServiceDuration
	}
	return 15 * time.Minute
}

func (c Config) maxCandidates() int {
	if c.MaxFallbackCandidates > 0 {
		return c.MaxFallbackCandidates
	}
	return 5
}
