package travel

import (
	"context"
	"math"
	"time"

	"daynav/internal/engine"
)

// HaversineEstimator fills cost-matrix gaps from great-circle distance.
// Straight-line distance is stretched by RoadFactor to approximate road
// paths, and duration assumes steady city driving at SpeedKph.
type HaversineEstimator struct {
	RoadFactor float64 // default 1.4
	SpeedKph   float64 // default 40
}

func (e HaversineEstimator) Estimate(from, to engine.GeoPoint) engine.Cost {
	factor := e.RoadFactor
	if factor <= 0 {
		factor = 1.4
	}
	speed := e.SpeedKph
	if speed <= 0 {
		speed = 40
	}
	meters := HaversineMeters(from, to) * factor
	seconds := meters / (speed / 3.6)
	return engine.Cost{
		Meters:    meters,
		Duration:  time.Duration(seconds * float64(time.Second)),
		Estimated: true,
	}
}

// EstimateSource serves estimates as a primary cost source, for
// deployments without a routing backend.
type EstimateSource struct {
	E HaversineEstimator
}

func (s EstimateSource) Cost(_ context.Context, from, to engine.GeoPoint) (engine.Cost, error) {
	return s.E.Estimate(from, to), nil
}

// HaversineMeters is the great-circle distance between two points.
func HaversineMeters(a, b engine.GeoPoint) float64 {
	const earthRadiusM = 6371000.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
