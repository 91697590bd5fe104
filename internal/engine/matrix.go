package engine

import (
	"context"
	"fmt"
)

// CostSource supplies the travel cost of a directed leg. Implementations do
// the I/O (routing service, cache); the engine only reads the finished
// matrix.
type CostSource interface {
	Cost(ctx context.Context, from, to GeoPoint) (Cost, error)
}

// Estimator fills matrix entries the source could not provide, e.g. from
// great-circle distance at an assumed speed. Estimated entries are flagged so
// callers can report reduced precision.
type Estimator interface {
	Estimate(from, to GeoPoint) Cost
}

// Matrix is the complete directed cost matrix over Home plus all stops.
// Index 0 is Home; stop indices follow the order the builder was given.
// The matrix is not assumed symmetric.
type Matrix struct {
	points []GeoPoint
	cells  [][]Cost
}

// At returns the cost of the directed leg i -> j.
func (m *Matrix) At(i, j int) Cost { return m.cells[i][j] }

func (m *Matrix) size() int { return len(m.points) }

// estimated reports whether any off-diagonal entry was estimator-filled.
func (m *Matrix) estimated() bool {
	for i := range m.cells {
		for j := range m.cells[i] {
			if i != j && m.cells[i][j].Estimated {
				return true
			}
		}
	}
	return false
}

// BuildMatrix assembles the full pairwise matrix for home plus stops. Every
// missing pair is filled by est when provided, otherwise the build fails with
// ErrIncompleteCostData naming the pair. The diagonal is zero by definition.
func BuildMatrix(ctx context.Context, home GeoPoint, stops []Stop, src CostSource, est Estimator) (*Matrix, error) {
	points := make([]GeoPoint, 0, len(stops)+1)
	names := make([]string, 0, len(stops)+1)
	points = append(points, home)
	names = append(names, "home")
	for _, s := range stops {
		points = append(points, s.At)
		names = append(names, s.ID)
	}

	n := len(points)
	cells := make([][]Cost, n)
	for i := range cells {
		cells[i] = make([]Cost, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			c, err := src.Cost(ctx, points[i], points[j])
			if err != nil {
				if est == nil {
					return nil, fmt.Errorf("%w: %s -> %s: %v", ErrIncompleteCostData, names[i], names[j], err)
				}
				c = est.Estimate(points[i], points[j])
				c.Estimated = true
			}
			cells[i][j] = c
		}
	}
	return &Matrix{points: points, cells: cells}, nil
}
