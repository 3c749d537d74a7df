// Command genfixture writes a synthetic monthly pressure dataset with a
// Gaussian low wandering through the Amundsen Sea sector. The fixture
// exercises the full detection path without any real reanalysis download.
//
// Usage:
//
//	go run ./cmd/genfixture -out testdata/asl_fixture.json -months 24
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/couchcryptid/asl-index-service/internal/adapter/fixture"
	"github.com/couchcryptid/asl-index-service/internal/domain"
)

const (
	latStart = -50.0
	latStep  = -1.5
	latCount = 27 // last row sits at -89
	lonStep  = 3.0
	lonCount = 120
)

func main() {
	out := flag.String("out", "asl_fixture.json", "output path for the JSON dataset")
	months := flag.Int("months", 24, "number of monthly fields to generate")
	flag.Parse()

	if err := run(*out, *months); err != nil {
		log.Fatal(err)
	}
}

func run(out string, months int) error {
	if months < 1 {
		return fmt.Errorf("months must be positive, got %d", months)
	}

	lats := make([]float64, latCount)
	for i := range lats {
		lats[i] = latStart + float64(i)*latStep
	}
	lons := make([]float64, lonCount)
	for j := range lons {
		lons[j] = float64(j) * lonStep
	}

	ds := &fixture.Dataset{
		Lats:         lats,
		Lons:         lons,
		Ocean:        oceanMask(lats, lons),
		MissingValue: fixture.DefaultMissingValue,
	}

	for m := 0; m < months; m++ {
		ts := time.Date(1979, time.Month(m%12+1), 1, 0, 0, 0, 0, time.UTC).AddDate(m/12, 0, 0)
		ds.Times = append(ds.Times, ts)
		ds.Fields = append(ds.Fields, monthField(lats, lons, m))
	}

	if err := fixture.WriteFile(out, ds); err != nil {
		return err
	}
	fmt.Printf("wrote %s: %d months on a %dx%d grid, sector %+v\n",
		out, months, latCount, lonCount, domain.AmundsenSeaSector)
	return nil
}

// oceanMask marks everything south of -76 as the Antarctic land plateau and
// adds a coastal strip so land-exclusion paths get exercised.
func oceanMask(lats, lons []float64) [][]bool {
	ocean := make([][]bool, len(lats))
	for i, lat := range lats {
		ocean[i] = make([]bool, len(lons))
		for j := range lons {
			ocean[i][j] = lat > -76
		}
	}
	return ocean
}

// monthField is a smooth background with a seasonal-cycle Gaussian low whose
// center drifts zonally through the sector month by month.
func monthField(lats, lons []float64, m int) [][]float64 {
	cLon := 210.0 + 40.0*math.Sin(2*math.Pi*float64(m)/12.0)
	cLat := -68.0 + 3.0*math.Cos(2*math.Pi*float64(m)/12.0)
	depth := 25.0 + 10.0*math.Sin(2*math.Pi*float64(m)/12.0+1)

	field := make([][]float64, len(lats))
	for i, lat := range lats {
		field[i] = make([]float64, len(lons))
		for j, lon := range lons {
			// Background: pressure falls gently toward the pole.
			p := 1000.0 + 0.15*(lat+50)

			dLon := lonDistance(lon, cLon)
			dLat := lat - cLat
			p -= depth * math.Exp(-(dLon*dLon/200.0 + dLat*dLat/18.0))

			field[i][j] = math.Round(p*100) / 100
		}
	}
	return field
}

// lonDistance is the shortest signed zonal distance in degrees.
func lonDistance(a, b float64) float64 {
	d := math.Mod(a-b+540, 360) - 180
	return d
}
