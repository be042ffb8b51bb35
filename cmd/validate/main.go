// Command validate performs end-to-end integrity checks on computed
// assessments: schema and range checks, the physical invariants of each
// transmission curve, and a cross-reference against the mock query fixture
// that recomputes every result from its stored field vector.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -queries data/mock/gtf_queries.json \
//	  -assessments data/mock/gtf_assessments.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/couchcryptid/geomag-gtf-service/internal/config"
	"github.com/couchcryptid/geomag-gtf-service/internal/domain"
)

const tolerance = 1e-9

// fixture mirrors the entries written by cmd/genmock.
type fixture struct {
	Site          string              `json:"site"`
	Field         domain.FieldVector  `json:"field"`
	Message       domain.QueryMessage `json:"message"`
	ExpectedLevel domain.Level        `json:"expected_level"`
}

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
	queries := flag.String("queries", "data/mock/gtf_queries.json", "path to the mock query fixture")
	assessments := flag.String("assessments", "", "path to the computed assessments JSON")
	modelPath := flag.String("model", "", "optional model YAML the assessments were computed with")
	flag.Parse()

	if *assessments == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*queries, *assessments, *modelPath, os.Stdout); code != 0 {
		os.Exit(code)
	}
}

func run(queriesPath, assessmentsPath, modelPath string, out io.Writer) int {
	fmt.Fprintln(out, "=== GTF Assessment Validation ===")
	fmt.Fprintln(out)

	model, err := config.LoadModel(modelPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load model: %v\n", err)
		return 1
	}
	fixtures, err := loadJSON[fixture](queriesPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load queries: %v\n", err)
		return 1
	}
	assessments, err := loadJSON[domain.Assessment](assessmentsPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load assessments: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateSchema(assessments),
		validateInvariants(assessments, model),
		validateAgainstFixtures(assessments, fixtures, model),
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d queries, %d assessments\n", len(fixtures), len(assessments))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// ── Phase 1: schema ──

func validateSchema(assessments []domain.Assessment) *phase {
	p := &phase{name: "Schema and ranges"}
	seen := make(map[string]bool, len(assessments))

	for i, a := range assessments {
		pf := func(format string, args ...any) {
			p.errorf("assessment[%d] %s: %s", i, a.ID, fmt.Sprintf(format, args...))
		}
		if a.ID == "" {
			pf("missing id")
		} else if seen[a.ID] {
			pf("duplicate id")
		}
		seen[a.ID] = true

		if _, err := a.Query.Validate(); err != nil {
			pf("query: %v", err)
		}
		if a.Query.Longitude <= -180 || a.Query.Longitude > 180 {
			pf("longitude %.4f not normalized", a.Query.Longitude)
		}
		if a.ComputedAt.IsZero() {
			pf("missing computed_at")
		}
		if !domain.ValidKp(a.Activity.Kp) {
			pf("kp %.3f out of range", a.Activity.Kp)
		}
		switch a.Activity.Source {
		case domain.KpSourceQuery, domain.KpSourceService, domain.KpSourceFallback:
		default:
			pf("unknown kp_source %q", a.Activity.Source)
		}
		switch a.Level {
		case domain.Nominal, domain.Moderate, domain.Severe:
		default:
			pf("unknown level %d", int(a.Level))
		}
	}
	return p
}

// ── Phase 2: physical invariants ──

func validateInvariants(assessments []domain.Assessment, model domain.Model) *phase {
	p := &phase{name: "Transmission curve invariants"}

	for i, a := range assessments {
		pf := func(format string, args ...any) {
			p.errorf("assessment[%d] %s: %s", i, a.ID, fmt.Sprintf(format, args...))
		}
		r := a.Result

		if r.GeomagneticLatitude < -90 || r.GeomagneticLatitude > 90 {
			pf("geomagnetic latitude %.4f out of range", r.GeomagneticLatitude)
		}
		if r.CutoffRigidity < 0 || r.CutoffRigidity > model.StormerConstant+tolerance {
			pf("cutoff rigidity %.4f outside [0, %.1f]", r.CutoffRigidity, model.StormerConstant)
		}
		if rc, err := domain.CutoffRigidity(r.GeomagneticLatitude, model.StormerConstant); err != nil || !floatEq(rc, r.CutoffRigidity) {
			pf("cutoff rigidity %.6f inconsistent with latitude (want %.6f)", r.CutoffRigidity, rc)
		}
		if err := r.Rigidity.Validate(); err != nil {
			pf("rigidity grid: %v", err)
		}
		if len(r.Transmission) != len(r.Rigidity) {
			pf("transmission has %d points, rigidity %d", len(r.Transmission), len(r.Rigidity))
			continue
		}
		checkCurve(pf, r, model.Steepness)

		if want := domain.ClassifyEnvironment(r.CutoffRigidity, a.Activity.Kp); want != a.Level {
			pf("level %s, want %s", a.Level, want)
		}
	}
	return p
}

func checkCurve(pf func(string, ...any), r domain.Result, k float64) {
	for j, t := range r.Transmission {
		if t < 0 || t > 1 || math.IsNaN(t) {
			pf("transmission[%d] = %v outside [0, 1]", j, t)
			return
		}
		if j > 0 && t < r.Transmission[j-1] {
			pf("transmission decreases at index %d", j)
			return
		}
	}
	for j, t := range r.Transmission {
		if want := domain.Transmission(r.Rigidity[j], r.CutoffRigidity, k); !floatEq(want, t) {
			pf("transmission[%d] = %.9f, want %.9f", j, t, want)
			return
		}
	}
}

// ── Phase 3: fixture cross-reference ──

func validateAgainstFixtures(assessments []domain.Assessment, fixtures []fixture, model domain.Model) *phase {
	p := &phase{name: "Recompute from stored field vectors"}

	byID := make(map[string]domain.Assessment, len(assessments))
	for _, a := range assessments {
		byID[a.ID] = a
	}
	if len(assessments) != len(fixtures) {
		p.errorf("count mismatch: %d assessments, %d queries", len(assessments), len(fixtures))
	}

	for _, f := range fixtures {
		a, ok := byID[f.Message.ID]
		if !ok {
			p.errorf("%s: no assessment for id %q", f.Site, f.Message.ID)
			continue
		}
		calc, err := domain.NewCalculator(domain.StaticField(f.Field), model)
		if err != nil {
			p.errorf("%s: %v", f.Site, err)
			continue
		}
		want, err := calc.Evaluate(f.Field, a.Result.Rigidity)
		if err != nil {
			p.errorf("%s: recompute: %v", f.Site, err)
			continue
		}
		if diff := cmp.Diff(want, a.Result, cmpopts.EquateApprox(0, tolerance)); diff != "" {
			p.errorf("%s: result mismatch (-recomputed +stored):\n%s", f.Site, diff)
		}
		if a.Level != f.ExpectedLevel {
			p.errorf("%s: level %s, fixture expects %s", f.Site, a.Level, f.ExpectedLevel)
		}
		if q, err := f.Message.Query().Validate(); err == nil && !q.Epoch.Equal(a.Query.Epoch) {
			p.errorf("%s: epoch %s, fixture has %s", f.Site, a.Query.Epoch, q.Epoch)
		}
		if f.Message.Kp != nil && !floatEq(*f.Message.Kp, a.Activity.Kp) {
			p.errorf("%s: kp %.3f, fixture supplies %.3f", f.Site, a.Activity.Kp, *f.Message.Kp)
		}
	}
	return p
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}
