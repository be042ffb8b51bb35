// Command genmock generates the mock query fixture used by the pipeline tests
// and the end-to-end validation. Each reference site carries a stored field
// vector, so the fixture can be assessed without the NCEI service. It uses
// the actual domain package to compute the expected environment levels, and
// optionally writes the full assessments for cmd/validate.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/gtf_queries.json \
//	  -assessments-out data/mock/gtf_assessments.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/geomag-gtf-service/internal/domain"
)

// computedAt is the fixed clock used for reproducible assessments.
var computedAt = time.Date(2025, time.November, 13, 0, 0, 0, 0, time.UTC)

// site is a reference location with a field vector taken from IGRF-14.
type site struct {
	name  string
	lat   float64
	lon   float64
	altKm float64
	epoch string
	kp    *float64
	field domain.FieldVector
}

// fixture is one entry of the mock query file.
type fixture struct {
	Site          string              `json:"site"`
	Field         domain.FieldVector  `json:"field"`
	Message       domain.QueryMessage `json:"message"`
	ExpectedLevel domain.Level        `json:"expected_level"`
}

func kp(v float64) *float64 { return &v }

var sites = []site{
	{"boulder", 40.015, -105.27, 1.655, "2025-11-09T18:30:00Z", nil, domain.FieldVector{East: 2830.5, North: 20640.3, Up: -48920.1}},
	{"huancayo", -12.05, -75.32, 3.313, "2025-11-09T12:00:00Z", kp(2), domain.FieldVector{East: -1200, North: 25100, Up: -1500}},
	{"tromso", 69.65, 18.96, 0.1, "2025-11-12T19:45:00Z", kp(8.667), domain.FieldVector{East: 1520, North: 10950, Up: -51830}},
	{"mcmurdo", -77.85, 166.67, 0.024, "2025-06-01T00:00:00Z", kp(1.333), domain.FieldVector{East: 2500, North: 7900, Up: 64800}},
	{"singapore", 1.35, 103.82, 0.015, "2025-03-21T06:00:00Z", kp(4.333), domain.FieldVector{East: 60, North: 40480, Up: 11600}},
	{"sao_paulo", -23.55, -46.63, 0.76, "2025-08-15T15:00:00Z", kp(0.667), domain.FieldVector{East: -7480, North: 16920, Up: 14460}},
	{"iss_houston", 29.76, -95.37, 408, "2025-10-10T09:00:00Z", kp(6), domain.FieldVector{East: 380, North: 19880, Up: -33210}},
	{"ottawa", 45.42, -75.70, 0.07, "2025-01-01T00:00:00Z", kp(3), domain.FieldVector{East: -3600, North: 16700, Up: -50300}},
	{"honolulu", 21.31, 202.14, 0.005, "2025-05-05T03:00:00Z", nil, domain.FieldVector{East: 4510, North: 26930, Up: -21040}},
	{"rome", 41.9, 12.5, 0.02, "2025-07-04T21:00:00Z", kp(2.333), domain.FieldVector{East: 1200, North: 24470, Up: -39200}},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock/gtf_queries.json", "output path for the query fixture")
	assessmentsOut := flag.String("assessments-out", "", "optional output path for the computed assessments")
	flag.Parse()

	fixtures := make([]fixture, 0, len(sites))
	assessments := make([]domain.Assessment, 0, len(sites))
	clock := clockwork.NewFakeClockAt(computedAt)

	for _, s := range sites {
		f, a, err := build(s, clock)
		if err != nil {
			return fmt.Errorf("site %s: %w", s.name, err)
		}
		fixtures = append(fixtures, f)
		assessments = append(assessments, a)
		log.Printf("%-12s Rc=%6.3f GV  Kp=%5.3f  %s", s.name, a.Result.CutoffRigidity, a.Activity.Kp, a.Level)
	}

	if err := writeJSON(*out, fixtures); err != nil {
		return fmt.Errorf("writing query fixture: %w", err)
	}
	log.Printf("wrote query fixture: %s (%d sites)", *out, len(fixtures))

	if *assessmentsOut != "" {
		if err := writeJSON(*assessmentsOut, assessments); err != nil {
			return fmt.Errorf("writing assessments: %w", err)
		}
		log.Printf("wrote assessments: %s", *assessmentsOut)
	}
	return nil
}

func build(s site, clock clockwork.Clock) (fixture, domain.Assessment, error) {
	epoch, err := time.Parse(time.RFC3339, s.epoch)
	if err != nil {
		return fixture{}, domain.Assessment{}, err
	}
	msg := domain.QueryMessage{
		ID:         "mock-" + s.name,
		Latitude:   s.lat,
		Longitude:  s.lon,
		AltitudeKm: s.altKm,
		Epoch:      epoch,
		Kp:         s.kp,
	}

	calc, err := domain.NewCalculator(domain.StaticField(s.field), domain.DefaultModel())
	if err != nil {
		return fixture{}, domain.Assessment{}, err
	}
	q, err := msg.Query().Validate()
	if err != nil {
		return fixture{}, domain.Assessment{}, err
	}
	result, err := calc.ComputeGTF(context.Background(), q, nil)
	if err != nil {
		return fixture{}, domain.Assessment{}, err
	}

	activity := domain.Activity{Kp: 0, Source: domain.KpSourceFallback}
	if s.kp != nil {
		activity = domain.Activity{Kp: *s.kp, Source: domain.KpSourceQuery}
	}
	level := domain.ClassifyEnvironment(result.CutoffRigidity, activity.Kp)

	return fixture{
			Site:          s.name,
			Field:         s.field,
			Message:       msg,
			ExpectedLevel: level,
		}, domain.Assessment{
			ID:         msg.ID,
			Query:      q,
			Result:     result,
			Activity:   activity,
			Level:      level,
			ComputedAt: clock.Now(),
		}, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
