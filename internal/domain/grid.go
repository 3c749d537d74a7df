package domain

import (
	"fmt"
	"math"
)

// coordEps is the tolerance for comparing coordinate arrays that originate
// from float32 NetCDF variables.
const coordEps = 1e-4

// NormalizeLon canonicalizes a longitude to [0, 360).
func NormalizeLon(lon float64) float64 {
	l := math.Mod(lon, 360)
	if l < 0 {
		l += 360
	}
	return l
}

// Grid is one 2-D pressure field in hPa, indexed Values[lat][lon].
//
// Longitudes are normalized to [0, 360) and the columns rotated so that Lons
// ascends strictly; latitudes keep their input order (ERA5 ships them
// descending). Construction is the single place longitude conventions are
// reconciled.
type Grid struct {
	Lats   []float64
	Lons   []float64
	Values [][]float64
}

// NewGrid validates coordinates against the value array and canonicalizes
// longitudes. Returns ErrShapeMismatch when dimensions disagree.
func NewGrid(lats, lons []float64, values [][]float64) (*Grid, error) {
	if len(lats) == 0 || len(lons) == 0 {
		return nil, fmt.Errorf("%w: empty coordinate array", ErrShapeMismatch)
	}
	if len(values) != len(lats) {
		return nil, fmt.Errorf("%w: %d rows for %d latitudes", ErrShapeMismatch, len(values), len(lats))
	}
	for i, row := range values {
		if len(row) != len(lons) {
			return nil, fmt.Errorf("%w: row %d has %d columns for %d longitudes", ErrShapeMismatch, i, len(row), len(lons))
		}
	}
	if !strictlyMonotonic(lats) {
		return nil, fmt.Errorf("latitudes are not strictly monotonic")
	}

	normLons := make([]float64, len(lons))
	for i, l := range lons {
		normLons[i] = NormalizeLon(l)
	}

	// After normalization an input like -180..179 reads 180..359,0..179:
	// ascending except for a single wrap point. Rotate columns so longitudes
	// ascend from the wrap point.
	pivot := 0
	for i := 1; i < len(normLons); i++ {
		if normLons[i] < normLons[i-1] {
			if pivot != 0 {
				return nil, fmt.Errorf("longitudes are not monotonic on the circle")
			}
			pivot = i
		}
	}

	g := &Grid{
		Lats:   append([]float64(nil), lats...),
		Lons:   rotate(normLons, pivot),
		Values: make([][]float64, len(values)),
	}
	for i, row := range values {
		g.Values[i] = rotate(row, pivot)
	}
	if !strictlyAscending(g.Lons) {
		return nil, fmt.Errorf("longitudes are not strictly ascending after normalization")
	}
	return g, nil
}

// HasData reports whether at least one cell holds a finite value.
func (g *Grid) HasData() bool {
	for _, row := range g.Values {
		for _, v := range row {
			if !math.IsNaN(v) {
				return true
			}
		}
	}
	return false
}

// Mask is the ocean-eligibility mask sharing the grid's coordinates. It is
// built once and shared read-only across all workers.
type Mask struct {
	Lats  []float64
	Lons  []float64
	Ocean [][]bool
}

// MaskFromField thresholds a land-sea-fraction field: cells with a fraction
// below threshold count as ocean (ERA5 convention: lsm < 0.5).
func MaskFromField(g *Grid, threshold float64) *Mask {
	ocean := make([][]bool, len(g.Lats))
	for i, row := range g.Values {
		ocean[i] = make([]bool, len(row))
		for j, v := range row {
			ocean[i][j] = !math.IsNaN(v) && v < threshold
		}
	}
	return &Mask{Lats: g.Lats, Lons: g.Lons, Ocean: ocean}
}

// Align verifies that a field shares the mask's coordinates. Returns
// ErrShapeMismatch when they differ; pressure fields and the mask must come
// from the same product grid.
func (m *Mask) Align(g *Grid) error {
	if len(g.Lats) != len(m.Lats) || len(g.Lons) != len(m.Lons) {
		return fmt.Errorf("%w: field %dx%d, mask %dx%d",
			ErrShapeMismatch, len(g.Lats), len(g.Lons), len(m.Lats), len(m.Lons))
	}
	for i := range m.Lats {
		if math.Abs(g.Lats[i]-m.Lats[i]) > coordEps {
			return fmt.Errorf("%w: latitude %d: field %.4f, mask %.4f", ErrShapeMismatch, i, g.Lats[i], m.Lats[i])
		}
	}
	for i := range m.Lons {
		if math.Abs(g.Lons[i]-m.Lons[i]) > coordEps {
			return fmt.Errorf("%w: longitude %d: field %.4f, mask %.4f", ErrShapeMismatch, i, g.Lons[i], m.Lons[i])
		}
	}
	return nil
}

func rotate(s []float64, pivot int) []float64 {
	if pivot == 0 {
		return append([]float64(nil), s...)
	}
	out := make([]float64, 0, len(s))
	out = append(out, s[pivot:]...)
	return append(out, s[:pivot]...)
}

func strictlyMonotonic(s []float64) bool {
	if len(s) < 2 {
		return true
	}
	return strictlyAscending(s) || strictlyDescending(s)
}

func strictlyAscending(s []float64) bool {
	for i := 1; i < len(s); i++ {
		if s[i] <= s[i-1] {
			return false
		}
	}
	return true
}

func strictlyDescending(s []float64) bool {
	for i := 1; i < len(s); i++ {
		if s[i] >= s[i-1] {
			return false
		}
	}
	return true
}
