// Package report renders result tables to the CSV exchange format consumed by
// downstream climatology tooling.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/asl-index-service/internal/domain"
)

// Header is the fixed column set of the CSV output.
var Header = []string{"time", "lon", "lat", "ActCenPres", "SectorPres", "RelCenPres"}

const timeLayout = "2006-01-02"

// WriteTable writes the table as CSV. Missing months keep their time stamp
// and leave every other column empty.
func WriteTable(w io.Writer, table domain.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range table {
		row := []string{rec.Time.Format(timeLayout), "", "", "", "", ""}
		if rec.Valid {
			row[1] = strconv.FormatFloat(rec.Lon, 'f', 2, 64)
			row[2] = strconv.FormatFloat(rec.Lat, 'f', 2, 64)
			row[3] = strconv.FormatFloat(rec.ActCenPres, 'f', 1, 64)
			row[4] = strconv.FormatFloat(rec.SectorPres, 'f', 1, 64)
			row[5] = strconv.FormatFloat(rec.RelCenPres, 'f', 1, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the table to path, replacing any existing file.
func WriteFile(path string, table domain.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteTable(f, table); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadTable parses a CSV written by WriteTable. Rows with empty metric
// columns come back as missing records. ProcessedAt is not part of the
// exchange format and is left zero.
func ReadTable(r io.Reader) (domain.Table, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv has no header row")
	}
	if got := rows[0]; len(got) != len(Header) || got[0] != Header[0] || got[5] != Header[5] {
		return nil, fmt.Errorf("unexpected csv header %v", got)
	}

	table := make(domain.Table, 0, len(rows)-1)
	for i, row := range rows[1:] {
		ts, err := time.Parse(timeLayout, row[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad time %q: %w", i+1, row[0], err)
		}
		if row[1] == "" {
			table = append(table, domain.Record{Time: ts})
			continue
		}
		rec := domain.Record{Time: ts, Valid: true, Closed: true}
		for col, dst := range map[int]*float64{
			1: &rec.Lon, 2: &rec.Lat, 3: &rec.ActCenPres, 4: &rec.SectorPres, 5: &rec.RelCenPres,
		} {
			v, err := strconv.ParseFloat(row[col], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad %s %q: %w", i+1, Header[col], row[col], err)
			}
			*dst = v
		}
		table = append(table, rec)
	}
	return table, nil
}

// ReadFile parses the CSV at path.
func ReadFile(path string) (domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadTable(f)
}
