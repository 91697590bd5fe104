package engine

import "time"

// schedule lays a concrete timeline over a fixed visiting order. Arriving
// before a stop opens waits (recorded, never a failure); arriving after close
// fails the plan at that stop, and evaluation stops there since later times
// would be meaningless. The return leg is checked against home.ReturnBy.
//
// order holds matrix indices; stop i+1 in the matrix is stops[i]. The
// returned Plan always carries one ScheduledStop per routed stop, feasible or
// not.
func schedule(m *Matrix, stops []Stop, home Home, order []int, defaultService time.Duration) Plan {
	p := Plan{Feasible: true, Stops: make([]ScheduledStop, 0, len(order))}

	now := home.Leave
	prev := 0
	for _, idx := range order {
		stop := stops[idx-1]
		leg := m.At(prev, idx)
		p.TotalM += leg.Meters
		p.TotalDrive += leg.Duration

		arrival := now.Add(leg.Duration)
		var wait time.Duration
		if w := stop.Window; w != nil {
			if arrival.Before(w.Open) {
				wait = w.Open.Sub(arrival)
				arrival = w.Open
			} else if arrival.After(w.Close) {
				p.Feasible = false
				p.FailedStop = stop.ID
				p.Reason = ReasonArrivedAfterClose
				p.Stops = append(p.Stops, ScheduledStop{
					StopID:          stop.ID,
					Arrival:         arrival,
					Departure:       arrival,
					CumulativeM:     p.TotalM,
					CumulativeDrive: p.TotalDrive,
				})
				// Remaining stops keep the route intact but carry no times.
				for _, rest := range order[len(p.Stops):] {
					p.Stops = append(p.Stops, ScheduledStop{StopID: stops[rest-1].ID})
				}
				return p
			}
		}

		service := defaultService
		if stop.Service != nil {
			service = *stop.Service
		}
		departure := arrival.Add(service)
		p.TotalWait += wait
		p.Stops = append(p.Stops, ScheduledStop{
			StopID:          stop.ID,
			Arrival:         arrival,
			Departure:       departure,
			Wait:            wait,
			CumulativeM:     p.TotalM,
			CumulativeDrive: p.TotalDrive,
		})
		now = departure
		prev = idx
	}

	if len(order) > 0 {
		back := m.At(prev, 0)
		p.TotalM += back.Meters
		p.TotalDrive += back.Duration
		now = now.Add(back.Duration)
	}
	p.ReturnAt = now
	if now.After(home.ReturnBy) {
		p.Feasible = false
		p.Reason = ReasonLateReturn
	}
	return p
}
