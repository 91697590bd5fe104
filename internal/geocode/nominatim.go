// Package geocode resolves street addresses to coordinates through the
// public Nominatim API. Nominatim's usage policy allows at most one request
// per second, so every client call goes through a shared rate limiter.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"daynav/internal/model"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

type Client struct {
	BaseURL   string
	UserAgent string
	HTTP      *http.Client
	limiter   *rate.Limiter
}

func NewClient(baseURL, userAgent string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if userAgent == "" {
		userAgent = "daynav/1.0"
	}
	return &Client{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		HTTP:      &http.Client{Timeout: 10 * time.Second},
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

type nominatimHit struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Search forward-geocodes a free-form query and returns up to limit hits.
// Blocks until the rate limiter grants a slot or ctx is cancelled.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]model.GeocodeResult, error) {
	if limit <= 0 || limit > 10 {
		limit = 5
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/search?q=%s&format=json&limit=%d", c.BaseURL, url.QueryEscape(query), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: status %d", resp.StatusCode)
	}
	var hits []nominatimHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return nil, err
	}
	out := make([]model.GeocodeResult, 0, len(hits))
	for _, h := range hits {
		lat, errLat := strconv.ParseFloat(h.Lat, 64)
		lng, errLng := strconv.ParseFloat(h.Lon, 64)
		if errLat != nil || errLng != nil {
			continue
		}
		out = append(out, model.GeocodeResult{
			Name:     h.DisplayName,
			Address:  h.DisplayName,
			Location: model.GeoPoint{Lat: lat, Lng: lng},
		})
	}
	return out, nil
}
