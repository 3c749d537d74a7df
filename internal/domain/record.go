package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// MissingPolicy decides how an unclosed (open-trough) candidate is reported.
type MissingPolicy string

const (
	// PolicyFlag reports the candidate's metrics with Closed=false.
	PolicyFlag MissingPolicy = "flag"
	// PolicyStrict withholds the metrics: the record keeps only its time stamp.
	PolicyStrict MissingPolicy = "strict"
)

// ParseMissingPolicy validates a policy string from configuration.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch MissingPolicy(s) {
	case PolicyFlag, PolicyStrict:
		return MissingPolicy(s), nil
	default:
		return "", fmt.Errorf("missing policy %q not in {flag, strict}", s)
	}
}

// Record is one row of the ASL time series. When Valid is false only Time and
// ProcessedAt are meaningful; the month is reported but carries no detection.
type Record struct {
	Time        time.Time `json:"time"`
	Lon         float64   `json:"lon"`
	Lat         float64   `json:"lat"`
	ActCenPres  float64   `json:"act_cen_pres"`
	SectorPres  float64   `json:"sector_pres"`
	RelCenPres  float64   `json:"rel_cen_pres"`
	Closed      bool      `json:"closed"`
	Valid       bool      `json:"valid"`
	ProcessedAt time.Time `json:"processed_at"`
}

// SectorMean computes the arithmetic mean pressure over ocean-eligible finite
// cells in the window. Returns ErrMissingData when no cell qualifies.
func SectorMean(w *Window) (float64, error) {
	var sum float64
	var n int
	for i := 0; i < w.Rows(); i++ {
		for j := 0; j < w.Cols(); j++ {
			if !w.Ocean(i, j) {
				continue
			}
			v := w.At(i, j)
			if math.IsNaN(v) {
				continue
			}
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: sector has no ocean cells with values", ErrMissingData)
	}
	return sum / float64(n), nil
}

// NewRecord derives the reported metrics from a candidate and the sector
// mean. Pressures are rounded to 1 decimal and coordinates to 2, matching
// the established output convention.
func NewRecord(t time.Time, cand Candidate, sectorMean float64) Record {
	return Record{
		Time:        t,
		Lon:         round2(cand.Lon),
		Lat:         round2(cand.Lat),
		ActCenPres:  round1(cand.Pressure),
		SectorPres:  round1(sectorMean),
		RelCenPres:  round1(cand.Pressure - sectorMean),
		Closed:      cand.Closed,
		Valid:       true,
		ProcessedAt: clock.Now().UTC(),
	}
}

// MissingRecord emits the time stamp of a month that produced no detection.
func MissingRecord(t time.Time) Record {
	return Record{Time: t, ProcessedAt: clock.Now().UTC()}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

// Table is the ordered-by-time result of a run, one record per requested
// time step.
type Table []Record

// Sort orders the table chronologically. The sort is the authoritative
// ordering step after parallel collection.
func (t Table) Sort() {
	sort.SliceStable(t, func(i, j int) bool { return t[i].Time.Before(t[j].Time) })
}

// Validate checks the table's structural invariants: strictly increasing
// unique time stamps, and for valid records RelCenPres = ActCenPres -
// SectorPres (within rounding) with RelCenPres <= 0.
func (t Table) Validate() error {
	for i, rec := range t {
		if i > 0 && !t[i-1].Time.Before(rec.Time) {
			return fmt.Errorf("row %d: time %s not after %s", i,
				rec.Time.Format(time.RFC3339), t[i-1].Time.Format(time.RFC3339))
		}
		if !rec.Valid {
			continue
		}
		if diff := rec.RelCenPres - (rec.ActCenPres - rec.SectorPres); math.Abs(diff) > 0.1+1e-9 {
			return fmt.Errorf("row %d: RelCenPres %.1f != ActCenPres %.1f - SectorPres %.1f",
				i, rec.RelCenPres, rec.ActCenPres, rec.SectorPres)
		}
		if rec.RelCenPres > 0 {
			return fmt.Errorf("row %d: RelCenPres %.1f above zero", i, rec.RelCenPres)
		}
	}
	return nil
}
