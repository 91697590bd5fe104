package api

import (
	"fmt"
	"time"

	"daynav/internal/model"
)

func validatePlanRequest(req *model.PlanRequest) error {
	if req.Date == "" {
		return fmt.Errorf("date is required (YYYY-MM-DD)")
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return fmt.Errorf("invalid date: %s", req.Date)
	}
	for _, clock := range []string{req.Leave, req.ReturnBy} {
		if clock == "" {
			continue
		}
		if _, _, err := model.ParseClock(clock); err != nil {
			return fmt.Errorf("invalid time of day: %s", clock)
		}
	}
	for i := range req.Errands {
		if err := validateErrand(&req.Errands[i]); err != nil {
			return fmt.Errorf("errand %d: %w", i, err)
		}
	}
	return nil
}

func validateErrand(e *model.ErrandIn) error {
	if e.Title == "" {
		return fmt.Errorf("title is required")
	}
	if e.Location == nil {
		return fmt.Errorf("location is required")
	}
	if e.Location.Lat < -90 || e.Location.Lat > 90 || e.Location.Lng < -180 || e.Location.Lng > 180 {
		return fmt.Errorf("location out of range")
	}
	if e.ServiceMinutes != nil && *e.ServiceMinutes < 0 {
		return fmt.Errorf("serviceMinutes must be >= 0")
	}
	if e.Window != nil {
		oh, om, err := model.ParseClock(e.Window.Open)
		if err != nil {
			return fmt.Errorf("invalid window open: %s", e.Window.Open)
		}
		ch, cm, err := model.ParseClock(e.Window.Close)
		if err != nil {
			return fmt.Errorf("invalid window close: %s", e.Window.Close)
		}
		if oh*60+om >= ch*60+cm {
			return fmt.Errorf("window must open before it closes")
		}
	}
	return nil
}

func validateSubscription(req *model.SubscriptionRequest) error {
	if req.URL == "" {
		return fmt.Errorf("url is required")
	}
	if len(req.Events) == 0 {
		return fmt.Errorf("events is required")
	}
	for _, ev := range req.Events {
		switch ev {
		case "plan.computed", "plan.infeasible", "*":
		default:
			return fmt.Errorf("unknown event type: %s", ev)
		}
	}
	return nil
}
