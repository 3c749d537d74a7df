package domain_test

import (
	"math"
	"testing"

	"github.com/couchcryptid/asl-index-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// detectGrid is a 5x5 field centered on the Amundsen Sea with an all-ocean
// mask. The sector covers the inner 3x3; the wider window covers everything.
const (
	detectStep = 2.0
)

var (
	detectSector = domain.Bounds{West: 210, East: 230, South: -72, North: -64}
	detectWider  = detectSector.Expand(10)
)

func detectWindows(t *testing.T, vals [][]float64, ocean [][]bool) (sector, wider *domain.Window) {
	t.Helper()
	lats := []float64{-60, -64, -68, -72, -76}
	lons := []float64{200, 210, 220, 230, 240}

	g, err := domain.NewGrid(lats, lons, vals)
	require.NoError(t, err)

	var m *domain.Mask
	if ocean == nil {
		zero, err := domain.NewGrid(lats, lons, uniformField(5, 5, 0))
		require.NoError(t, err)
		m = domain.MaskFromField(zero, 0.5)
	} else {
		m = &domain.Mask{Lats: g.Lats, Lons: g.Lons, Ocean: ocean}
	}

	sector, err = domain.NewWindow(g, m, detectSector)
	require.NoError(t, err)
	require.Equal(t, 3, sector.Rows())
	require.Equal(t, 3, sector.Cols())

	wider, err = domain.NewWindow(g, m, detectWider)
	require.NoError(t, err)
	return sector, wider
}

func TestFindCandidate_ClosedLow(t *testing.T) {
	// A single global minimum fully surrounded by higher pressure: detection
	// must return that exact cell with closure.
	vals := uniformField(5, 5, 1000)
	vals[2][2] = 975

	sector, wider := detectWindows(t, vals, nil)
	cand, err := domain.FindCandidate(sector, wider, detectStep)
	require.NoError(t, err)

	assert.InDelta(t, 220, cand.Lon, 1e-9)
	assert.InDelta(t, -68, cand.Lat, 1e-9)
	assert.InDelta(t, 975, cand.Pressure, 1e-9)
	assert.True(t, cand.Closed)
}

func TestFindCandidate_OpenTrough(t *testing.T) {
	// Pressure falls monotonically toward the eastern edge: no interior
	// minimum, the flood region runs out of the wider window.
	vals := make([][]float64, 5)
	for i := range vals {
		vals[i] = make([]float64, 5)
		for j := range vals[i] {
			vals[i][j] = 1000 - 8*float64(j)
		}
	}

	sector, wider := detectWindows(t, vals, nil)
	cand, err := domain.FindCandidate(sector, wider, detectStep)
	require.NoError(t, err)

	assert.InDelta(t, 230, cand.Lon, 1e-9, "minimum sits on the sector's east edge")
	assert.False(t, cand.Closed)
}

func TestFindCandidate_TieBreaksFirstInScanOrder(t *testing.T) {
	vals := uniformField(5, 5, 1000)
	vals[1][3] = 980 // earlier row
	vals[3][1] = 980 // later row, earlier column

	sector, wider := detectWindows(t, vals, nil)
	cand, err := domain.FindCandidate(sector, wider, detectStep)
	require.NoError(t, err)

	assert.InDelta(t, -64, cand.Lat, 1e-9, "first tied minimum in latitude scan order wins")
	assert.InDelta(t, 230, cand.Lon, 1e-9)
}

func TestFindCandidate_SkipsLandAndNaN(t *testing.T) {
	vals := uniformField(5, 5, 1000)
	vals[1][1] = 960 // land, must not win
	vals[2][2] = math.NaN()
	vals[2][3] = 985

	ocean := make([][]bool, 5)
	for i := range ocean {
		ocean[i] = make([]bool, 5)
		for j := range ocean[i] {
			ocean[i][j] = true
		}
	}
	ocean[1][1] = false

	sector, wider := detectWindows(t, vals, ocean)
	cand, err := domain.FindCandidate(sector, wider, detectStep)
	require.NoError(t, err)

	assert.InDelta(t, 985, cand.Pressure, 1e-9)
	assert.InDelta(t, 230, cand.Lon, 1e-9)
	assert.InDelta(t, -68, cand.Lat, 1e-9)
}

func TestFindCandidate_NoCandidate(t *testing.T) {
	t.Run("all NaN", func(t *testing.T) {
		sector, wider := detectWindows(t, uniformField(5, 5, math.NaN()), nil)
		_, err := domain.FindCandidate(sector, wider, detectStep)
		require.ErrorIs(t, err, domain.ErrNoCandidate)
	})

	t.Run("all land", func(t *testing.T) {
		ocean := make([][]bool, 5)
		for i := range ocean {
			ocean[i] = make([]bool, 5)
		}
		sector, wider := detectWindows(t, uniformField(5, 5, 1000), ocean)
		_, err := domain.FindCandidate(sector, wider, detectStep)
		require.ErrorIs(t, err, domain.ErrNoCandidate)
	})
}

func TestFindCandidate_LandActsAsBarrier(t *testing.T) {
	// A low pressure channel reaching the window edge is interrupted by a
	// land cell: the region stays bounded and the low counts as closed.
	vals := uniformField(5, 5, 1000)
	vals[2][2] = 975
	vals[2][3] = 976 // below 977 level, continues east
	vals[2][4] = 976 // would reach the edge...

	ocean := make([][]bool, 5)
	for i := range ocean {
		ocean[i] = make([]bool, 5)
		for j := range ocean[i] {
			ocean[i][j] = true
		}
	}
	ocean[2][3] = false // ...but land blocks the channel

	sector, wider := detectWindows(t, vals, ocean)
	cand, err := domain.FindCandidate(sector, wider, detectStep)
	require.NoError(t, err)
	assert.True(t, cand.Closed)
}

func TestFindCandidate_OpenChannelLeaks(t *testing.T) {
	// Same channel without the land barrier: the fill reaches the wider
	// window's edge and the candidate is open.
	vals := uniformField(5, 5, 1000)
	vals[2][2] = 975
	vals[2][3] = 976
	vals[2][4] = 976

	sector, wider := detectWindows(t, vals, nil)
	cand, err := domain.FindCandidate(sector, wider, detectStep)
	require.NoError(t, err)
	assert.False(t, cand.Closed)
}

func TestFindCandidate_RejectsNonPositiveStep(t *testing.T) {
	sector, wider := detectWindows(t, uniformField(5, 5, 1000), nil)
	_, err := domain.FindCandidate(sector, wider, 0)
	require.Error(t, err)
}
