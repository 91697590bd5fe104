// Package travel provides the engine's cost collaborators: an OSRM routing
// client, a great-circle fallback estimator, and a Redis read-through cache.
package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"daynav/internal/engine"
)

// OSRM queries an OSRM routing server for driving distance and duration
// between two points.
type OSRM struct {
	BaseURL string
	HTTP    *http.Client
}

func NewOSRM(baseURL string) *OSRM {
	return &OSRM{BaseURL: baseURL, HTTP: &http.Client{Timeout: 10 * time.Second}}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
	} `json:"routes"`
}

func (c *OSRM) Cost(ctx context.Context, from, to engine.GeoPoint) (engine.Cost, error) {
	// OSRM takes lng,lat order.
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		c.BaseURL, from.Lng, from.Lat, to.Lng, to.Lat)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return engine.Cost{}, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return engine.Cost{}, fmt.Errorf("osrm: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return engine.Cost{}, fmt.Errorf("osrm: status %d", resp.StatusCode)
	}
	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return engine.Cost{}, fmt.Errorf("osrm: decode: %w", err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return engine.Cost{}, fmt.Errorf("osrm: no route (code %q)", body.Code)
	}
	r := body.Routes[0]
	return engine.Cost{
		Meters:   r.Distance,
		Duration: time.Duration(r.Duration * float64(time.Second)),
	}, nil
}
