package travel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"daynav/internal/engine"
)

func TestOSRMCost(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"distance":5200.5,"duration":480}]}`))
	}))
	defer srv.Close()

	c := NewOSRM(srv.URL)
	cost, err := c.Cost(context.Background(), engine.GeoPoint{Lat: 30.1, Lng: -97.2}, engine.GeoPoint{Lat: 30.2, Lng: -97.3})
	if err != nil {
		t.Fatalf("Cost: %v", err)
	}
	if cost.Meters != 5200.5 || cost.Duration != 8*time.Minute {
		t.Fatalf("cost = %+v", cost)
	}
	if cost.Estimated {
		t.Fatal("OSRM results are measured, not estimated")
	}
	// lng,lat ordering on the wire
	if !strings.Contains(gotPath, "-97.2") || !strings.Contains(gotPath, "/route/v1/driving/") {
		t.Fatalf("unexpected request path %q", gotPath)
	}
}

func TestOSRMNoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	}))
	defer srv.Close()
	if _, err := NewOSRM(srv.URL).Cost(context.Background(), engine.GeoPoint{}, engine.GeoPoint{Lat: 1}); err == nil {
		t.Fatal("expected error for NoRoute response")
	}
}

func TestOSRMServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	if _, err := NewOSRM(srv.URL).Cost(context.Background(), engine.GeoPoint{}, engine.GeoPoint{Lat: 1}); err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestHaversineEstimator(t *testing.T) {
	est := HaversineEstimator{}
	// ~1 degree of latitude is ~111 km.
	c := est.Estimate(engine.GeoPoint{Lat: 30, Lng: -97}, engine.GeoPoint{Lat: 31, Lng: -97})
	straight := HaversineMeters(engine.GeoPoint{Lat: 30, Lng: -97}, engine.GeoPoint{Lat: 31, Lng: -97})
	if straight < 110000 || straight > 112000 {
		t.Fatalf("haversine = %v m, want ~111km", straight)
	}
	if c.Meters != straight*1.4 {
		t.Fatalf("road factor not applied: %v vs %v", c.Meters, straight*1.4)
	}
	wantSec := c.Meters / (40.0 / 3.6)
	if got := c.Duration.Seconds(); got < wantSec-1 || got > wantSec+1 {
		t.Fatalf("duration = %vs, want ~%vs at 40 km/h", got, wantSec)
	}
	if !c.Estimated {
		t.Fatal("estimator output must be flagged estimated")
	}
}
