// Command validate performs integrity checks on a detection CSV: structural
// parsing, chronological ordering, metric arithmetic, and geographic
// plausibility against the search sector.
//
// Usage:
//
//	go run ./cmd/validate -csv asli.csv
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/couchcryptid/asl-index-service/internal/adapter/report"
	"github.com/couchcryptid/asl-index-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "", "path to the detection CSV to validate")
	west := flag.Float64("west", domain.AmundsenSeaSector.West, "sector west bound used for the run")
	east := flag.Float64("east", domain.AmundsenSeaSector.East, "sector east bound used for the run")
	south := flag.Float64("south", domain.AmundsenSeaSector.South, "sector south bound used for the run")
	north := flag.Float64("north", domain.AmundsenSeaSector.North, "sector north bound used for the run")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	sector := domain.Bounds{West: *west, East: *east, South: *south, North: *north}
	if code := run(*csvPath, sector); code != 0 {
		os.Exit(code)
	}
}

func run(csvPath string, sector domain.Bounds) int {
	table, err := report.ReadFile(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL structure: %v\n", err)
		return 1
	}

	phases := []*phase{
		checkChronology(table),
		checkArithmetic(table),
		checkGeography(table, sector),
	}

	valid, missing := 0, 0
	for _, rec := range table {
		if rec.Valid {
			valid++
		} else {
			missing++
		}
	}
	fmt.Printf("%s: %d rows (%d detections, %d missing months)\n", csvPath, len(table), valid, missing)

	failed := false
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS %s\n", p.name)
			continue
		}
		failed = true
		fmt.Printf("FAIL %s (%d problems)\n", p.name, len(p.errors))
		for _, e := range p.errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	if failed {
		return 1
	}
	return 0
}

// checkChronology verifies ascending, unique, first-of-month time stamps.
func checkChronology(table domain.Table) *phase {
	p := &phase{name: "chronology"}
	for i, rec := range table {
		if rec.Time.Day() != 1 || rec.Time.Hour() != 0 {
			p.errorf("row %d: time %s is not a first-of-month stamp", i, rec.Time)
		}
		if i > 0 && !table[i-1].Time.Before(rec.Time) {
			p.errorf("row %d: time %s not after previous row", i, rec.Time)
		}
	}
	return p
}

// checkArithmetic verifies RelCenPres = ActCenPres - SectorPres within
// rounding, and that the central pressure never exceeds the sector mean.
func checkArithmetic(table domain.Table) *phase {
	p := &phase{name: "arithmetic"}
	for i, rec := range table {
		if !rec.Valid {
			continue
		}
		if diff := rec.RelCenPres - (rec.ActCenPres - rec.SectorPres); math.Abs(diff) > 0.1+1e-9 {
			p.errorf("row %d: RelCenPres %.1f inconsistent with %.1f - %.1f",
				i, rec.RelCenPres, rec.ActCenPres, rec.SectorPres)
		}
		if rec.RelCenPres > 0 {
			p.errorf("row %d: RelCenPres %.1f above zero", i, rec.RelCenPres)
		}
		if rec.ActCenPres < 900 || rec.ActCenPres > 1080 {
			p.errorf("row %d: ActCenPres %.1f outside plausible surface pressure", i, rec.ActCenPres)
		}
	}
	return p
}

// checkGeography verifies detections fall inside the search sector.
func checkGeography(table domain.Table, sector domain.Bounds) *phase {
	p := &phase{name: "geography"}
	w, e := domain.NormalizeLon(sector.West), domain.NormalizeLon(sector.East)
	for i, rec := range table {
		if !rec.Valid {
			continue
		}
		if rec.Lat < sector.South || rec.Lat > sector.North {
			p.errorf("row %d: latitude %.2f outside [%.2f, %.2f]", i, rec.Lat, sector.South, sector.North)
		}
		lon := domain.NormalizeLon(rec.Lon)
		inside := lon >= w && lon <= e
		if w > e { // sector wraps the 0/360 seam
			inside = lon >= w || lon <= e
		}
		if !inside {
			p.errorf("row %d: longitude %.2f outside [%.2f, %.2f]", i, rec.Lon, sector.West, sector.East)
		}
	}
	return p
}
