// Package netcdf reads ERA5-style reanalysis files: monthly mean sea level
// pressure stacks plus the land-sea mask. Files store packed integers with
// scale/offset attributes and hours-since-1900 time axes; everything is
// unpacked to float64 hPa grids before it reaches the detection code.
package netcdf

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/couchcryptid/asl-index-service/internal/domain"
)

// TZ=UTC date --date="1900-01-01 00:00:00" +%s
const unixSecs1900 = -2208988800

const paPerHPa = 100.0

// file is one open dataset. GetSlice is not safe for concurrent use on a
// shared handle, so each file carries its own lock.
type file struct {
	mu    sync.Mutex
	nc    api.Group
	msl   api.VarGetter
	lats  []float64
	lons  []float64
	times []time.Time

	// Packed-variable unpacking parameters.
	scale  float64
	offset float64
	fill   float64
	hasFil bool

	// ERA5T files append an experiment-version axis; only its first entry
	// carries the consolidated analysis.
	fourDim bool
}

// step addresses one time slice inside one file.
type step struct {
	f   *file
	idx int
	ts  time.Time
}

// Source serves pressure fields from a set of files matching a glob. It
// implements pipeline.FieldSource.
type Source struct {
	files []*file
	steps []step
	times []time.Time
}

// Open opens every file matching the glob and merges their time axes into
// one ascending, deduplicated sequence.
func Open(glob string) (*Source, error) {
	paths, err := filepath.Glob(glob)
	if err != nil {
		return nil, fmt.Errorf("bad glob %q: %w", glob, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("glob %q matches no files", glob)
	}
	sort.Strings(paths)

	src := &Source{}
	for _, path := range paths {
		f, err := openFile(path)
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		src.files = append(src.files, f)
		for i, ts := range f.times {
			src.steps = append(src.steps, step{f: f, idx: i, ts: ts})
		}
	}

	sort.SliceStable(src.steps, func(i, j int) bool {
		return src.steps[i].ts.Before(src.steps[j].ts)
	})
	deduped := src.steps[:0]
	for _, s := range src.steps {
		if len(deduped) > 0 && deduped[len(deduped)-1].ts.Equal(s.ts) {
			continue
		}
		deduped = append(deduped, s)
	}
	src.steps = deduped

	src.times = make([]time.Time, len(src.steps))
	for i, s := range src.steps {
		src.times[i] = s.ts
	}
	return src, nil
}

// Close releases every underlying file handle.
func (s *Source) Close() {
	for _, f := range s.files {
		f.nc.Close()
	}
	s.files = nil
}

// Times returns the merged time axis.
func (s *Source) Times() []time.Time { return s.times }

// FieldAt loads one pressure field and converts it to hPa.
func (s *Source) FieldAt(_ context.Context, i int) (*domain.Grid, error) {
	if i < 0 || i >= len(s.steps) {
		return nil, fmt.Errorf("%w: time step %d of %d", domain.ErrOutOfBounds, i, len(s.steps))
	}
	st := s.steps[i]
	vals, err := st.f.slice(st.idx)
	if err != nil {
		return nil, fmt.Errorf("field at %s: %w", st.ts.Format("2006-01"), err)
	}
	return domain.NewGrid(st.f.lats, st.f.lons, vals)
}

func openFile(path string) (*file, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, err
	}
	f := &file{nc: nc, scale: 1}

	if f.lats, err = coordValues(nc, "latitude"); err != nil {
		nc.Close()
		return nil, err
	}
	if f.lons, err = coordValues(nc, "longitude"); err != nil {
		nc.Close()
		return nil, err
	}
	if f.times, err = timeValues(nc); err != nil {
		nc.Close()
		return nil, err
	}
	if f.msl, err = nc.GetVarGetter("msl"); err != nil {
		nc.Close()
		return nil, err
	}

	f.fourDim = len(f.msl.Dimensions()) == 4
	attrs := f.msl.Attributes()
	if v, has := attrs.Get("scale_factor"); has {
		if fv, ok := attrToFloat(v); ok {
			f.scale = fv
		}
	}
	if v, has := attrs.Get("add_offset"); has {
		if fv, ok := attrToFloat(v); ok {
			f.offset = fv
		}
	}
	if v, has := attrs.Get("_FillValue"); has {
		if fv, ok := attrToFloat(v); ok {
			f.fill, f.hasFil = fv, true
		}
	}
	return f, nil
}

// slice reads one time index of the msl variable and unpacks it to hPa.
func (f *file) slice(idx int) ([][]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	begin := int64(idx)
	v, err := f.msl.GetSlice(begin, begin+1)
	if err != nil {
		return nil, err
	}

	var raw [][]float64
	if f.fourDim {
		raw, err = planeOf4D(v)
	} else {
		raw, err = planeOf3D(v)
	}
	if err != nil {
		return nil, err
	}
	return f.unpack(raw), nil
}

// unpack applies the packed-variable transform and the Pa-to-hPa conversion.
// Fill values become NaN.
func (f *file) unpack(raw [][]float64) [][]float64 {
	out := make([][]float64, len(raw))
	for r, row := range raw {
		out[r] = make([]float64, len(row))
		for c, pv := range row {
			if f.hasFil && pv == f.fill {
				out[r][c] = math.NaN()
				continue
			}
			out[r][c] = (pv*f.scale + f.offset) / paPerHPa
		}
	}
	return out
}

// planeOf3D extracts the single [lat][lon] plane from a [1][lat][lon] slice.
func planeOf3D(v any) ([][]float64, error) {
	switch t := v.(type) {
	case [][][]int16:
		return toFloat2D(t[0]), nil
	case [][][]int32:
		return toFloat2D(t[0]), nil
	case [][][]float32:
		return toFloat2D(t[0]), nil
	case [][][]float64:
		return t[0], nil
	default:
		return nil, fmt.Errorf("msl: unsupported storage type %T", v)
	}
}

// planeOf4D extracts [lat][lon] from a [1][expver][lat][lon] slice, keeping
// the first experiment version.
func planeOf4D(v any) ([][]float64, error) {
	switch t := v.(type) {
	case [][][][]int16:
		return toFloat2D(t[0][0]), nil
	case [][][][]int32:
		return toFloat2D(t[0][0]), nil
	case [][][][]float32:
		return toFloat2D(t[0][0]), nil
	case [][][][]float64:
		return t[0][0], nil
	default:
		return nil, fmt.Errorf("msl: unsupported storage type %T", v)
	}
}

func toFloat2D[T int16 | int32 | float32](in [][]T) [][]float64 {
	out := make([][]float64, len(in))
	for i, row := range in {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = float64(v)
		}
	}
	return out
}

// coordValues reads a 1-D coordinate variable as float64.
func coordValues(nc api.Group, name string) ([]float64, error) {
	vg, err := nc.GetVarGetter(name)
	if err != nil {
		return nil, err
	}
	v, err := vg.Values()
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case []float32:
		out := make([]float64, len(t))
		for i, f := range t {
			out[i] = float64(f)
		}
		return out, nil
	case []float64:
		return t, nil
	default:
		return nil, fmt.Errorf("%s: unsupported coordinate type %T", name, v)
	}
}

// timeValues reads the hours-since-1900 axis and converts to UTC stamps.
func timeValues(nc api.Group) ([]time.Time, error) {
	vg, err := nc.GetVarGetter("time")
	if err != nil {
		return nil, err
	}
	v, err := vg.Values()
	if err != nil {
		return nil, err
	}
	var hours []int64
	switch t := v.(type) {
	case []int32:
		hours = make([]int64, len(t))
		for i, h := range t {
			hours[i] = int64(h)
		}
	case []int64:
		hours = t
	default:
		return nil, fmt.Errorf("time: unsupported axis type %T", v)
	}
	out := make([]time.Time, len(hours))
	for i, h := range hours {
		out[i] = timeFromHours(h)
	}
	return out, nil
}

// timeFromHours converts an hours-since-1900 value to a UTC time stamp.
func timeFromHours(h int64) time.Time {
	return time.Unix(h*3600+unixSecs1900, 0).UTC()
}

// LoadMask reads the land-sea fraction variable from a mask file and
// thresholds it into an ocean mask aligned with the pressure grids.
func LoadMask(path string, threshold float64) (*domain.Mask, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mask %s: %w", path, err)
	}
	defer nc.Close()

	lats, err := coordValues(nc, "latitude")
	if err != nil {
		return nil, err
	}
	lons, err := coordValues(nc, "longitude")
	if err != nil {
		return nil, err
	}

	vg, err := nc.GetVarGetter("lsm")
	if err != nil {
		return nil, err
	}

	scale, offset, fill := 1.0, 0.0, 0.0
	hasFill := false
	attrs := vg.Attributes()
	if v, has := attrs.Get("scale_factor"); has {
		if fv, ok := attrToFloat(v); ok {
			scale = fv
		}
	}
	if v, has := attrs.Get("add_offset"); has {
		if fv, ok := attrToFloat(v); ok {
			offset = fv
		}
	}
	if v, has := attrs.Get("_FillValue"); has {
		if fv, ok := attrToFloat(v); ok {
			fill, hasFill = fv, true
		}
	}

	var raw [][]float64
	if len(vg.Dimensions()) >= 3 {
		// Mask files keep the time axis of their source request; any single
		// slice works, the mask is static.
		v, err := vg.GetSlice(0, 1)
		if err != nil {
			return nil, err
		}
		raw, err = planeOf3D(v)
		if err != nil {
			return nil, err
		}
	} else {
		v, err := vg.Values()
		if err != nil {
			return nil, err
		}
		switch t := v.(type) {
		case [][]float32:
			raw = toFloat2D(t)
		case [][]float64:
			raw = t
		default:
			return nil, fmt.Errorf("lsm: unsupported storage type %T", v)
		}
	}

	unpackMask(raw, scale, offset, fill, hasFill)

	g, err := domain.NewGrid(lats, lons, raw)
	if err != nil {
		return nil, fmt.Errorf("mask grid: %w", err)
	}
	return domain.MaskFromField(g, threshold), nil
}

// unpackMask applies the packed-variable transform to land-sea-fraction
// cells in place. Fill values become NaN so they never threshold as ocean.
func unpackMask(raw [][]float64, scale, offset, fill float64, hasFill bool) {
	for _, row := range raw {
		for c := range row {
			if hasFill && row[c] == fill {
				row[c] = math.NaN()
				continue
			}
			row[c] = row[c]*scale + offset
		}
	}
}

// attrToFloat normalizes the numeric attribute encodings files use. Scalar
// attributes sometimes arrive as one-element slices.
func attrToFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case []float64:
		if len(t) == 1 {
			return t[0], true
		}
	case []float32:
		if len(t) == 1 {
			return float64(t[0]), true
		}
	}
	return 0, false
}
