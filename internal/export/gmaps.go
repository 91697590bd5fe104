package export

import (
	"fmt"
	"net/url"
	"strings"

	"daynav/internal/model"
)

// MapsURL builds a Google Maps driving-directions link for the plan:
// home as origin and destination, stops as intermediate waypoints in
// plan order. Returns "" for a plan with no stops.
func MapsURL(home model.GeoPoint, plan model.Plan) string {
	if len(plan.Stops) == 0 {
		return ""
	}
	pt := func(p model.GeoPoint) string { return fmt.Sprintf("%f,%f", p.Lat, p.Lng) }
	waypoints := make([]string, 0, len(plan.Stops))
	for _, s := range plan.Stops {
		waypoints = append(waypoints, pt(s.Location))
	}
	q := url.Values{}
	q.Set("api", "1")
	q.Set("travelmode", "driving")
	q.Set("origin", pt(home))
	q.Set("destination", pt(home))
	q.Set("waypoints", strings.Join(waypoints, "|"))
	return "https://www.google.com/maps/dir/?" + q.Encode()
}
