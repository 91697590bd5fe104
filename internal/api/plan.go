package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"daynav/internal/engine"
	"daynav/internal/metrics"
	"daynav/internal/model"
	"daynav/internal/store"
	"daynav/internal/webhooks"
)

type planError struct {
	status int
	title  string
	detail string
}

func (e *planError) Error() string { return e.title + ": " + e.detail }

// computePlan turns a plan request into engine inputs, runs the engine, and
// persists and announces the result. Infeasible plans are stored and
// returned like feasible ones.
func (s *Server) computePlan(ctx context.Context, req model.PlanRequest) (model.Plan, error) {
	settings, err := s.Store.GetSettings(ctx)
	if errors.Is(err, store.ErrNotFound) {
		settings = model.Settings{}
	} else if err != nil {
		return model.Plan{}, err
	}
	if settings.HomeLocation == nil {
		return model.Plan{}, &planError{status: http.StatusUnprocessableEntity, title: "Home not configured", detail: "set homeLocation in settings first"}
	}

	leaveClock := firstClock(req.Leave, settings.WorkStart, "09:00")
	returnClock := firstClock(req.ReturnBy, settings.WorkEnd, "18:00")
	leave, err := model.OnDate(req.Date, leaveClock)
	if err != nil {
		return model.Plan{}, &planError{status: http.StatusBadRequest, title: "Validation failed", detail: err.Error()}
	}
	returnBy, err := model.OnDate(req.Date, returnClock)
	if err != nil {
		return model.Plan{}, &planError{status: http.StatusBadRequest, title: "Validation failed", detail: err.Error()}
	}
	if !leave.Before(returnBy) {
		return model.Plan{}, &planError{status: http.StatusUnprocessableEntity, title: "Validation failed", detail: fmt.Sprintf("leave %s is not before returnBy %s", leaveClock, returnClock)}
	}

	errands, err := s.planErrands(ctx, req)
	if err != nil {
		return model.Plan{}, err
	}

	stops := make([]engine.Stop, 0, len(errands))
	byID := make(map[string]model.ErrandOut, len(errands))
	for _, e := range errands {
		st := engine.Stop{ID: e.ID, At: engine.GeoPoint{Lat: e.Location.Lat, Lng: e.Location.Lng}}
		if e.ServiceMinutes != nil {
			d := time.Duration(*e.ServiceMinutes) * time.Minute
			st.Service = &d
		}
		if e.Window != nil {
			openAt, err := model.OnDate(req.Date, e.Window.Open)
			if err != nil {
				return model.Plan{}, &planError{status: http.StatusBadRequest, title: "Validation failed", detail: err.Error()}
			}
			closeAt, err := model.OnDate(req.Date, e.Window.Close)
			if err != nil {
				return model.Plan{}, &planError{status: http.StatusBadRequest, title: "Validation failed", detail: err.Error()}
			}
			st.Window = &engine.Window{Open: openAt, Close: closeAt}
		}
		stops = append(stops, st)
		byID[e.ID] = e
	}

	home := engine.Home{
		At:       engine.GeoPoint{Lat: settings.HomeLocation.Lat, Lng: settings.HomeLocation.Lng},
		Leave:    leave,
		ReturnBy: returnBy,
	}

	start := time.Now()
	result, err := s.Engine.Plan(ctx, home, stops)
	if err != nil {
		if errors.Is(err, engine.ErrUnreachablePair) || errors.Is(err, engine.ErrIncompleteCostData) {
			return model.Plan{}, &planError{status: http.StatusUnprocessableEntity, title: "Route not computable", detail: err.Error()}
		}
		return model.Plan{}, err
	}
	metrics.PlansComputed.WithLabelValues(result.Method, fmt.Sprintf("%t", result.Feasible)).Inc()
	metrics.PlanDuration.WithLabelValues(result.Method).Observe(time.Since(start).Seconds())
	metrics.PlanStops.Observe(float64(len(stops)))

	plan := model.Plan{
		ID:            uuid.New().String(),
		Date:          req.Date,
		Leave:         leave,
		ReturnBy:      returnBy,
		ReturnAt:      result.ReturnAt,
		TotalM:        result.TotalM,
		TotalDriveSec: int(result.TotalDrive / time.Second),
		TotalWaitSec:  int(result.TotalWait / time.Second),
		Feasible:      result.Feasible,
		FailedStopID:  result.FailedStop,
		Reason:        result.Reason,
		Method:        result.Method,
		Estimated:     result.Estimated,
		CreatedAt:     time.Now().UTC(),
	}
	plan.Stops = make([]model.PlanStop, 0, len(result.Stops))
	for _, st := range result.Stops {
		ps := model.PlanStop{
			StopID:             st.StopID,
			Arrival:            st.Arrival,
			Departure:          st.Departure,
			WaitSec:            int(st.Wait / time.Second),
			CumulativeM:        st.CumulativeM,
			CumulativeDriveSec: int(st.CumulativeDrive / time.Second),
		}
		if e, ok := byID[st.StopID]; ok {
			ps.Title = e.Title
			ps.Location = e.Location
		}
		plan.Stops = append(plan.Stops, ps)
	}

	if err := s.Store.SavePlan(ctx, plan); err != nil {
		return model.Plan{}, err
	}

	event := webhooks.EventPlanComputed
	if !plan.Feasible {
		event = webhooks.EventPlanInfeasible
	}
	s.Pub.Emit(ctx, event, plan)
	s.Broker.Publish(plan.Date, SSEEvent{Type: event, Data: map[string]any{
		"planId":   plan.ID,
		"date":     plan.Date,
		"feasible": plan.Feasible,
		"reason":   plan.Reason,
	}})
	return plan, nil
}

// planErrands resolves the errand set for a request: the inline list when
// present, otherwise the stored list. Inline errands get ephemeral IDs.
func (s *Server) planErrands(ctx context.Context, req model.PlanRequest) ([]model.ErrandOut, error) {
	if len(req.Errands) > 0 {
		out := make([]model.ErrandOut, 0, len(req.Errands))
		for _, in := range req.Errands {
			e := model.ErrandOut{
				ID:             uuid.New().String(),
				Title:          in.Title,
				Address:        in.Address,
				ServiceMinutes: in.ServiceMinutes,
				Window:         in.Window,
				Notes:          in.Notes,
			}
			if in.Location != nil {
				e.Location = *in.Location
			}
			out = append(out, e)
		}
		return out, nil
	}
	errands, err := s.Store.ListErrands(ctx)
	if err != nil {
		return nil, err
	}
	if len(errands) == 0 {
		return nil, &planError{status: http.StatusUnprocessableEntity, title: "Nothing to plan", detail: "no errands stored and none supplied"}
	}
	return errands, nil
}

func firstClock(clocks ...string) string {
	for _, c := range clocks {
		if c != "" {
			return c
		}
	}
	return ""
}
