// Package fixture loads and writes self-contained JSON datasets: a land
// mask plus a stack of monthly pressure fields. Fixtures stand in for real
// reanalysis files in local runs and tests.
package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/asl-index-service/internal/domain"
)

// DefaultMissingValue marks absent cells in fixture files; JSON has no NaN.
const DefaultMissingValue = -9999.0

// Dataset is the on-disk fixture layout. Fields are indexed
// [time][lat][lon] in hPa, with MissingValue standing in for absent cells.
type Dataset struct {
	Lats         []float64     `json:"lats"`
	Lons         []float64     `json:"lons"`
	Ocean        [][]bool      `json:"ocean"`
	Times        []time.Time   `json:"times"`
	Fields       [][][]float64 `json:"fields"`
	MissingValue float64       `json:"missing_value"`
}

// Source serves fields from an in-memory dataset. It implements
// pipeline.FieldSource.
type Source struct {
	ds   *Dataset
	mask *domain.Mask
}

// Load reads and validates a fixture file.
func Load(path string) (*Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var ds Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return NewSource(&ds)
}

// NewSource validates a dataset and wraps it as a field source.
func NewSource(ds *Dataset) (*Source, error) {
	if len(ds.Times) != len(ds.Fields) {
		return nil, fmt.Errorf("%w: %d times but %d fields",
			domain.ErrShapeMismatch, len(ds.Times), len(ds.Fields))
	}
	if len(ds.Ocean) != len(ds.Lats) {
		return nil, fmt.Errorf("%w: ocean mask has %d rows for %d latitudes",
			domain.ErrShapeMismatch, len(ds.Ocean), len(ds.Lats))
	}
	for i, row := range ds.Ocean {
		if len(row) != len(ds.Lons) {
			return nil, fmt.Errorf("%w: ocean row %d has %d columns for %d longitudes",
				domain.ErrShapeMismatch, i, len(row), len(ds.Lons))
		}
	}
	if ds.MissingValue == 0 {
		ds.MissingValue = DefaultMissingValue
	}

	// Route the mask coordinates through a grid so they share the field
	// grids' longitude normalization.
	zero := make([][]float64, len(ds.Lats))
	for i := range zero {
		zero[i] = make([]float64, len(ds.Lons))
	}
	g, err := domain.NewGrid(ds.Lats, ds.Lons, zero)
	if err != nil {
		return nil, fmt.Errorf("fixture coordinates: %w", err)
	}
	mask := &domain.Mask{Lats: g.Lats, Lons: g.Lons, Ocean: oceanFor(g, ds)}

	return &Source{ds: ds, mask: mask}, nil
}

// oceanFor rearranges the stored ocean rows to the grid's normalized
// longitude order.
func oceanFor(g *domain.Grid, ds *Dataset) [][]bool {
	perm := make([]int, len(ds.Lons))
	for j, lon := range ds.Lons {
		want := domain.NormalizeLon(lon)
		for k, glon := range g.Lons {
			if glon == want {
				perm[k] = j
				break
			}
		}
	}
	out := make([][]bool, len(ds.Ocean))
	for i, row := range ds.Ocean {
		out[i] = make([]bool, len(row))
		for k, j := range perm {
			out[i][k] = row[j]
		}
	}
	return out
}

// Mask returns the fixture's land mask.
func (s *Source) Mask() *domain.Mask { return s.mask }

// Times returns the fixture's time stamps.
func (s *Source) Times() []time.Time { return s.ds.Times }

// FieldAt builds the grid for time step i, converting the missing-value
// sentinel back to NaN.
func (s *Source) FieldAt(_ context.Context, i int) (*domain.Grid, error) {
	if i < 0 || i >= len(s.ds.Fields) {
		return nil, fmt.Errorf("%w: time step %d of %d", domain.ErrOutOfBounds, i, len(s.ds.Fields))
	}
	field := s.ds.Fields[i]
	vals := make([][]float64, len(field))
	for r, row := range field {
		vals[r] = make([]float64, len(row))
		for c, v := range row {
			if v == s.ds.MissingValue {
				vals[r][c] = math.NaN()
			} else {
				vals[r][c] = v
			}
		}
	}
	return domain.NewGrid(s.ds.Lats, s.ds.Lons, vals)
}

// WriteFile serializes a dataset, replacing NaN cells with the dataset's
// missing-value sentinel.
func WriteFile(path string, ds *Dataset) error {
	if ds.MissingValue == 0 {
		ds.MissingValue = DefaultMissingValue
	}
	for _, field := range ds.Fields {
		for _, row := range field {
			for c, v := range row {
				if math.IsNaN(v) {
					row[c] = ds.MissingValue
				}
			}
		}
	}
	raw, err := json.MarshalIndent(ds, "", " ")
	if err != nil {
		return fmt.Errorf("serialize fixture: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	return nil
}
