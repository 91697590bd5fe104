package engine

import (
	"context"
	"fmt"
	"sort"
)

// Engine is the planning entry point. It is pure and synchronous: one call
// builds the matrix, picks an order, and times it. Concurrent calls are
// independent; the engine holds no mutable state.
type Engine struct {
	cfg Config
	src CostSource
	est Estimator
}

// New constructs an Engine. est may be nil, in which case missing cost pairs
// fail the plan with ErrIncompleteCostData instead of being estimated.
func New(cfg Config, src CostSource, est Estimator) *Engine {
	return &Engine{cfg: cfg, src: src, est: est}
}

// Plan orders the stops for minimal driving time and schedules them inside
// home's leave/return window. Malformed input and cost-data gaps come back as
// errors; a plan that cannot satisfy every window is NOT an error — it is
// returned with Feasible=false and the first failing constraint named, since
// "it doesn't fit" is an answer the caller must show the user.
func (e *Engine) Plan(ctx context.Context, home Home, stops []Stop) (Plan, error) {
	if err := validate(home, stops); err != nil {
		return Plan{}, err
	}
	if len(stops) == 0 {
		return Plan{
			Stops:    []ScheduledStop{},
			ReturnAt: home.Leave,
			Feasible: true,
			Method:   "none",
		}, nil
	}

	// Sorted by ID so permutation order is ID order, which is what makes the
	// exact solver's equal-cost tie-break lexicographic.
	ordered := append([]Stop(nil), stops...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	m, err := BuildMatrix(ctx, home.At, ordered, e.src, e.est)
	if err != nil {
		return Plan{}, err
	}

	method := "exact"
	if len(ordered) > e.cfg.exactThreshold() {
		method = "2opt"
	}
	cands, err := solverFor(len(ordered), e.cfg).solve(m, e.cfg.maxCandidates())
	if err != nil {
		return Plan{}, err
	}

	// Ranked-candidate loop: cheapest order first, first feasible wins. If
	// none fits, report the cheapest order with its failure instead of
	// dropping stops or relaxing windows.
	var best Plan
	for i, c := range cands {
		p := schedule(m, ordered, home, c.order, e.cfg.defaultService())
		p.Method = method
		p.Estimated = m.estimated()
		if p.Feasible {
			return p, nil
		}
		if i == 0 {
			best = p
		}
	}
	return best, nil
}

func validate(home Home, stops []Stop) error {
	if !home.Leave.Before(home.ReturnBy) {
		return fmt.Errorf("engine: leave time %s is not before return-by %s", home.Leave, home.ReturnBy)
	}
	seen := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		if s.ID == "" {
			return fmt.Errorf("engine: stop with empty id")
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("engine: duplicate stop id %q", s.ID)
		}
		seen[s.ID] = struct{}{}
		if s.Service != nil && *s.Service < 0 {
			return fmt.Errorf("engine: stop %q has negative service duration", s.ID)
		}
		if w := s.Window; w != nil && !w.Open.Before(w.Close) {
			return fmt.Errorf("engine: stop %q window opens at or after it closes", s.ID)
		}
	}
	return nil
}
