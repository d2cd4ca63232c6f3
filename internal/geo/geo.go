// Package geo provides the geometry and timing primitives used by the
// solver: great-circle distance, drive-time conversion, and a cached
// pairwise distance matrix for a fixed location set.
package geo

import (
	"errors"
	"math"
)

const earthRadiusMi = 3958.7613

// ErrInvalidSpeed is returned when a speed of zero or less reaches a
// drive-time computation.
var ErrInvalidSpeed = errors.New("speed must be positive")

// Distance returns the great-circle distance between two coordinates in
// miles. It is symmetric and zero iff the points coincide.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMi * c
}

// DriveMinutes converts a distance in miles to drive minutes at the given
// speed, inflated by the robustness factor. A robustness of zero or less
// means no inflation.
func DriveMinutes(distanceMi, mph, robustness float64) (float64, error) {
	if mph <= 0 {
		return 0, ErrInvalidSpeed
	}
	if robustness <= 0 {
		robustness = 1
	}
	return distanceMi / mph * 60 * robustness, nil
}

// Point is one named location fed into a Matrix.
type Point struct {
	ID  string
	Lat float64
	Lon float64
}

// Matrix is an immutable pairwise distance cache for a fixed location set.
// It is built once per solve and read-only afterwards.
type Matrix struct {
	index map[string]int
	dist  [][]float64
}

// BuildMatrix computes the symmetric distance matrix over the given points.
// The diagonal is zero. Duplicate ids keep the first occurrence.
func BuildMatrix(points []Point) *Matrix {
	m := &Matrix{index: make(map[string]int, len(points))}
	kept := make([]Point, 0, len(points))
	for _, p := range points {
		if _, ok := m.index[p.ID]; ok {
			continue
		}
		m.index[p.ID] = len(kept)
		kept = append(kept, p)
	}
	n := len(kept)
	m.dist = make([][]float64, n)
	for i := range m.dist {
		m.dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := Distance(kept[i].Lat, kept[i].Lon, kept[j].Lat, kept[j].Lon)
			m.dist[i][j] = d
			m.dist[j][i] = d
		}
	}
	return m
}

// Distance returns the cached distance between two ids; ok is false when
// either id is not in the matrix.
func (m *Matrix) Distance(fromID, toID string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	i, ok := m.index[fromID]
	if !ok {
		return 0, false
	}
	j, ok := m.index[toID]
	if !ok {
		return 0, false
	}
	return m.dist[i][j], true
}
