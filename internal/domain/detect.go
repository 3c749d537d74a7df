package domain

import (
	"fmt"
	"math"
)

// Candidate is the result of minimum-finding for one time step. Closed
// reports whether the candidate sits inside a closed isobar rather than an
// open trough.
type Candidate struct {
	Lon      float64
	Lat      float64
	Pressure float64
	Closed   bool
}

// FindCandidate locates the minimum-pressure ocean cell in the sector window
// and tests it for contour closure within the wider window. step is the
// minimum height (hPa) of the enclosing isobar above the candidate pressure.
//
// Returns ErrNoCandidate when no ocean-eligible finite cell exists; it never
// returns a partial candidate.
func FindCandidate(sector, wider *Window, step float64) (Candidate, error) {
	if step <= 0 {
		return Candidate{}, fmt.Errorf("contour step must be positive, got %g", step)
	}

	r, c, found := -1, -1, false
	minP := math.Inf(1)
	// Row-major scan; strict < keeps the first of tied minima, fixing the
	// latitude-then-longitude tie-break.
	for i := 0; i < sector.Rows(); i++ {
		for j := 0; j < sector.Cols(); j++ {
			if !sector.Ocean(i, j) {
				continue
			}
			v := sector.At(i, j)
			if math.IsNaN(v) {
				continue
			}
			if v < minP {
				minP, r, c, found = v, i, j, true
			}
		}
	}
	if !found {
		return Candidate{}, ErrNoCandidate
	}

	cand := Candidate{
		Lon:      sector.Lon(c),
		Lat:      sector.Lat(r),
		Pressure: minP,
	}
	cand.Closed = isClosed(wider, cand.Lat, cand.Lon, minP+step)
	return cand, nil
}

// isClosed reports whether the connected region of cells below level that
// contains (lat, lon) stays clear of the wider window's edge. Land and NaN
// cells are barriers. If the region floods to the edge, any isobar at or
// above level runs out of the window: the low is open.
func isClosed(wider *Window, lat, lon, level float64) bool {
	sr, sc, ok := wider.Locate(lat, lon)
	if !ok {
		return false
	}

	rows, cols := wider.Rows(), wider.Cols()
	seen := make([]bool, rows*cols)
	queue := []int{sr*cols + sc}
	seen[sr*cols+sc] = true

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		r, c := cur/cols, cur%cols

		if r == 0 || r == rows-1 || c == 0 || c == cols-1 {
			return false
		}

		for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			nr, nc := r+d[0], c+d[1]
			idx := nr*cols + nc
			if seen[idx] {
				continue
			}
			if !wider.Ocean(nr, nc) {
				continue
			}
			v := wider.At(nr, nc)
			if math.IsNaN(v) || v >= level {
				continue
			}
			seen[idx] = true
			queue = append(queue, idx)
		}
	}
	return true
}
