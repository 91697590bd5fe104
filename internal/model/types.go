package model

import "time"

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TimeWindow carries a stop's opening hours as HH:MM times of day.
// Open must precede Close; overnight windows are rejected.
type TimeWindow struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// ErrandIn is a caller-supplied errand. Location must already be resolved;
// the planner does not geocode. ServiceMinutes nil means the configured
// default dwell, while an explicit 0 is a drop-by waypoint.
type ErrandIn struct {
	Title          string      `json:"title"`
	Address        string      `json:"address,omitempty"`
	Location       *GeoPoint   `json:"location"`
	ServiceMinutes *int        `json:"serviceMinutes,omitempty"`
	Window         *TimeWindow `json:"window,omitempty"`
	Notes          string      `json:"notes,omitempty"`
}

// ErrandOut is a stored errand.
type ErrandOut struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Address        string      `json:"address,omitempty"`
	Location       GeoPoint    `json:"location"`
	ServiceMinutes *int        `json:"serviceMinutes,omitempty"`
	Window         *TimeWindow `json:"window,omitempty"`
	Notes          string      `json:"notes,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// Settings is the user's home base and default day bounds.
type Settings struct {
	HomeName     string    `json:"homeName,omitempty"`
	HomeAddress  string    `json:"homeAddress,omitempty"`
	HomeLocation *GeoPoint `json:"homeLocation"`
	WorkStart    string    `json:"workStart,omitempty"` // HH:MM, default 09:00
	WorkEnd      string    `json:"workEnd,omitempty"`   // HH:MM, default 18:00
}

// PlanRequest asks for a plan of the stored errand list (or an inline errand
// set) on one date. Leave/ReturnBy default to the settings' work hours.
type PlanRequest struct {
	Date     string     `json:"date"` // YYYY-MM-DD
	Leave    string     `json:"leave,omitempty"`
	ReturnBy string     `json:"returnBy,omitempty"`
	Errands  []ErrandIn `json:"errands,omitempty"` // inline; omit to plan the stored list
}

// PlanStop is one timed stop of a computed plan.
type PlanStop struct {
	StopID             string    `json:"stopId"`
	Title              string    `json:"title,omitempty"`
	Location           GeoPoint  `json:"location"`
	Arrival            time.Time `json:"arrival"`
	Departure          time.Time `json:"departure"`
	WaitSec            int       `json:"waitSec,omitempty"`
	CumulativeM        float64   `json:"cumulativeM"`
	CumulativeDriveSec int       `json:"cumulativeDriveSec"`
}

// Plan is a computed, persisted day plan. Feasible=false is a valid outcome:
// the timeline is the best order found with the first broken constraint
// named, never a truncated stop list.
type Plan struct {
	ID            string     `json:"id"`
	Date          string     `json:"date"`
	Leave         time.Time  `json:"leave"`
	ReturnBy      time.Time  `json:"returnBy"`
	ReturnAt      time.Time  `json:"returnAt"`
	Stops         []PlanStop `json:"stops"`
	TotalM        float64    `json:"totalM"`
	TotalDriveSec int        `json:"totalDriveSec"`
	TotalWaitSec  int        `json:"totalWaitSec,omitempty"`
	Feasible      bool       `json:"feasible"`
	FailedStopID  string     `json:"failedStopId,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Method        string     `json:"method,omitempty"`
	Estimated     bool       `json:"estimated,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// SubscriptionRequest registers a webhook endpoint for plan events.
type SubscriptionRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret"`
}

// Subscription is a stored webhook subscription.
type Subscription struct {
	ID     string   `json:"id"`
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret,omitempty"`
}

// GeocodeResult is one forward-geocoding hit.
type GeocodeResult struct {
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Location GeoPoint `json:"location"`
}
