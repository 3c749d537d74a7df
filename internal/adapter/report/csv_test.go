package report_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/asl-index-service/internal/adapter/report"
	"github.com/couchcryptid/asl-index-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func sampleTable() domain.Table {
	return domain.Table{
		{
			Time: month(1979, time.January), Lon: 244.25, Lat: -67.5,
			ActCenPres: 961.5, SectorPres: 982.9, RelCenPres: -21.4,
			Closed: true, Valid: true,
		},
		{Time: month(1979, time.February)}, // missing month
		{
			Time: month(1979, time.March), Lon: 200, Lat: -70,
			ActCenPres: 970.0, SectorPres: 990.0, RelCenPres: -20.0,
			Closed: true, Valid: true,
		},
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteTable(&buf, sampleTable()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "time,lon,lat,ActCenPres,SectorPres,RelCenPres", lines[0])
	assert.Equal(t, "1979-01-01,244.25,-67.50,961.5,982.9,-21.4", lines[1])
	assert.Equal(t, "1979-02-01,,,,,", lines[2])
	assert.Equal(t, "1979-03-01,200.00,-70.00,970.0,990.0,-20.0", lines[3])
}

func TestReadTable_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteTable(&buf, sampleTable()))

	got, err := report.ReadTable(&buf)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, month(1979, time.January), got[0].Time)
	assert.True(t, got[0].Valid)
	assert.Equal(t, 961.5, got[0].ActCenPres)
	assert.Equal(t, -21.4, got[0].RelCenPres)

	assert.False(t, got[1].Valid)
	assert.Equal(t, month(1979, time.February), got[1].Time)

	assert.Equal(t, 200.0, got[2].Lon)
	assert.Equal(t, -70.0, got[2].Lat)
}

func TestReadTable_Rejects(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := report.ReadTable(strings.NewReader(""))
		require.Error(t, err)
	})

	t.Run("wrong header", func(t *testing.T) {
		_, err := report.ReadTable(strings.NewReader("a,b,c\n"))
		require.Error(t, err)
	})

	t.Run("bad time", func(t *testing.T) {
		in := "time,lon,lat,ActCenPres,SectorPres,RelCenPres\nJan-1979,,,,,\n"
		_, err := report.ReadTable(strings.NewReader(in))
		require.Error(t, err)
	})

	t.Run("bad number", func(t *testing.T) {
		in := "time,lon,lat,ActCenPres,SectorPres,RelCenPres\n1979-01-01,x,-67.50,961.5,982.9,-21.4\n"
		_, err := report.ReadTable(strings.NewReader(in))
		require.Error(t, err)
	})
}

func TestWriteFile_ReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asli.csv")
	require.NoError(t, report.WriteFile(path, sampleTable()))

	got, err := report.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	require.NoError(t, got.Validate())
}
