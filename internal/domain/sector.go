package domain

import "fmt"

// Bounds is a geographic bounding box in degrees. West/East are longitudes in
// any convention (normalized on use); South/North are latitudes with
// South < North. East numerically below West after normalization means the
// box wraps across the 0/360 seam.
type Bounds struct {
	West  float64
	East  float64
	South float64
	North float64
}

// AmundsenSeaSector is the fixed ASL search region (Hosking et al. 2013).
var AmundsenSeaSector = Bounds{West: 170, East: 298, South: -80, North: -60}

// Validate checks latitude sanity. Longitudes need no check: every value is
// meaningful on the circle.
func (b Bounds) Validate() error {
	if b.South >= b.North {
		return fmt.Errorf("bounds south %.2f not below north %.2f", b.South, b.North)
	}
	if b.South < -90 || b.North > 90 {
		return fmt.Errorf("bounds latitudes [%.2f, %.2f] outside [-90, 90]", b.South, b.North)
	}
	return nil
}

// Expand grows the box by border degrees on every side, clamping latitudes.
// Used to derive the wider closure-test window from the sector.
func (b Bounds) Expand(border float64) Bounds {
	out := Bounds{
		West:  b.West - border,
		East:  b.East + border,
		South: b.South - border,
		North: b.North + border,
	}
	if out.South < -90 {
		out.South = -90
	}
	if out.North > 90 {
		out.North = 90
	}
	// Growing past a full circle would make West/East meet; cap at global.
	if b.spanLon()+2*border >= 360 {
		out.West, out.East = 0, 359.999999
	}
	return out
}

func (b Bounds) spanLon() float64 {
	w, e := NormalizeLon(b.West), NormalizeLon(b.East)
	if e >= w {
		return e - w
	}
	return 360 - w + e
}

// Window is a non-owning view of a Grid and Mask restricted to a Bounds.
// Rows follow the grid's latitude order; columns are grid longitude indices
// arranged contiguously on the circle, so a wrapped window still presents a
// rectangular (row, col) space with well-defined edges.
type Window struct {
	grid *Grid
	mask *Mask
	rows []int
	cols []int
}

// NewWindow selects the cells of g inside b, boundary cells included.
// Returns ErrOutOfBounds when the box misses the grid entirely.
func NewWindow(g *Grid, m *Mask, b Bounds) (*Window, error) {
	if err := m.Align(g); err != nil {
		return nil, err
	}

	var rows []int
	for i, lat := range g.Lats {
		if lat >= b.South && lat <= b.North {
			rows = append(rows, i)
		}
	}

	w, e := NormalizeLon(b.West), NormalizeLon(b.East)
	var cols []int
	if w <= e {
		for j, lon := range g.Lons {
			if lon >= w && lon <= e {
				cols = append(cols, j)
			}
		}
	} else {
		// Wrapped box: the window runs west..360 then 0..east. Grid
		// longitudes ascend, so both spans are contiguous index ranges.
		for j, lon := range g.Lons {
			if lon >= w {
				cols = append(cols, j)
			}
		}
		for j, lon := range g.Lons {
			if lon <= e {
				cols = append(cols, j)
			}
		}
	}

	if len(rows) == 0 || len(cols) == 0 {
		return nil, fmt.Errorf("%w: [%.2f..%.2fE, %.2f..%.2fN] selects no cells",
			ErrOutOfBounds, b.West, b.East, b.South, b.North)
	}
	return &Window{grid: g, mask: m, rows: rows, cols: cols}, nil
}

// Rows returns the number of latitude rows in the window.
func (w *Window) Rows() int { return len(w.rows) }

// Cols returns the number of longitude columns in the window.
func (w *Window) Cols() int { return len(w.cols) }

// At returns the pressure at window position (r, c).
func (w *Window) At(r, c int) float64 {
	return w.grid.Values[w.rows[r]][w.cols[c]]
}

// Ocean reports whether window position (r, c) is ocean-eligible.
func (w *Window) Ocean(r, c int) bool {
	return w.mask.Ocean[w.rows[r]][w.cols[c]]
}

// Lat returns the latitude of window row r.
func (w *Window) Lat(r int) float64 { return w.grid.Lats[w.rows[r]] }

// Lon returns the longitude of window column c, in [0, 360).
func (w *Window) Lon(c int) float64 { return w.grid.Lons[w.cols[c]] }

// Locate finds the window position of a grid coordinate pair. Coordinates
// originate from the same arrays, so exact comparison is sound.
func (w *Window) Locate(lat, lon float64) (r, c int, ok bool) {
	r, c = -1, -1
	for i, ri := range w.rows {
		if w.grid.Lats[ri] == lat {
			r = i
			break
		}
	}
	for j, cj := range w.cols {
		if w.grid.Lons[cj] == lon {
			c = j
			break
		}
	}
	return r, c, r >= 0 && c >= 0
}
