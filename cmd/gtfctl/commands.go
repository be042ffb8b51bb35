package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/geomag-gtf-service/internal/adapter/gfz"
	"github.com/couchcryptid/geomag-gtf-service/internal/adapter/igrf"
	"github.com/couchcryptid/geomag-gtf-service/internal/config"
	"github.com/couchcryptid/geomag-gtf-service/internal/domain"
	"github.com/couchcryptid/geomag-gtf-service/internal/observability"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "gtfctl",
		Short:         "Geomagnetic transmission function calculator",
		Long:          `Compute the cutoff rigidity, transmission curve, and radiation environment for a location and time.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.AddCommand(newComputeCmd(), newClassifyCmd(), newSpectrumCmd(), newPropertiesCmd())
	return root
}

type computeOptions struct {
	lat        float64
	lon        float64
	alt        float64
	at         string
	kp         float64
	lookupKp   bool
	east       float64
	north      float64
	up         float64
	properties []string
	format     string
	model      string
	igrfURL    string
	apiKey     string
	kpURL      string
	timeout    time.Duration
	curve      bool
}

func newComputeCmd() *cobra.Command {
	var o computeOptions
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute the transmission function at a location",
		Long: `Compute the transmission function at a location and time.

The field vector is fetched from the NCEI IGRF calculator unless all of
--east, --north, and --up are given.

Examples:
  gtfctl compute --lat 40.015 --lon -105.27 --alt 1.6 --time 2024-05-10T18:00:00Z --kp 8
  gtfctl compute --north 20000 --up 40000 --property inclination --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompute(cmd, o)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&o.lat, "lat", 0, "Geographic latitude in degrees")
	f.Float64Var(&o.lon, "lon", 0, "Geographic longitude in degrees")
	f.Float64Var(&o.alt, "alt", 0, "Altitude above mean sea level in km")
	f.StringVar(&o.at, "time", "", "Epoch as RFC 3339 (default now)")
	f.Float64Var(&o.kp, "kp", 0, "Planetary Kp index")
	f.BoolVar(&o.lookupKp, "lookup-kp", false, "Fetch Kp from the GFZ service instead of --kp")
	f.Float64Var(&o.east, "east", 0, "Field east component in nT")
	f.Float64Var(&o.north, "north", 0, "Field north component in nT")
	f.Float64Var(&o.up, "up", 0, "Field upward component in nT")
	f.StringSliceVarP(&o.properties, "property", "p", nil, "Extra properties to print (see 'gtfctl properties')")
	f.StringVarP(&o.format, "format", "o", formatTable, "Output format: table or json")
	f.StringVar(&o.model, "model", os.Getenv("MODEL_CONFIG"), "Model YAML file")
	f.StringVar(&o.igrfURL, "igrf-url", igrf.DefaultBaseURL, "NCEI calculator URL")
	f.StringVar(&o.apiKey, "api-key", envOr("IGRF_API_KEY", "zNEw7"), "NCEI API key")
	f.StringVar(&o.kpURL, "kp-url", gfz.DefaultBaseURL, "GFZ Kp service URL")
	f.DurationVar(&o.timeout, "timeout", 10*time.Second, "Upstream request timeout")
	f.BoolVar(&o.curve, "curve", false, "Print the full transmission curve")
	cmd.MarkFlagsRequiredTogether("east", "north", "up")
	cmd.MarkFlagsMutuallyExclusive("kp", "lookup-kp")

	return cmd
}

func runCompute(cmd *cobra.Command, o computeOptions) error {
	if o.format != formatTable && o.format != formatJSON {
		return fmt.Errorf("invalid --format %q: must be %s or %s", o.format, formatTable, formatJSON)
	}
	props := make([]domain.Property, 0, len(o.properties))
	for _, key := range o.properties {
		p, err := domain.ParseProperty(key)
		if err != nil {
			return err
		}
		props = append(props, p)
	}

	epoch := time.Now().UTC()
	if o.at != "" {
		t, err := time.Parse(time.RFC3339, o.at)
		if err != nil {
			return fmt.Errorf("invalid --time: %w", err)
		}
		epoch = t
	}
	if !domain.ValidKp(o.kp) {
		return fmt.Errorf("invalid --kp %g: must be within [0, 9]", o.kp)
	}

	model, err := config.LoadModel(o.model)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	// Not scraped: the CLI exits before anything could collect them.
	metrics := observability.NewMetricsForTesting()

	var provider domain.FieldProvider
	if cmd.Flags().Changed("east") {
		provider = domain.StaticField{East: o.east, North: o.north, Up: o.up}
	} else {
		provider = igrf.NewClient(o.igrfURL, o.apiKey, o.timeout, metrics, logger)
	}

	// Resolve the field once so the properties read the same vector the
	// calculation used.
	q, err := domain.Query{Latitude: o.lat, Longitude: o.lon, AltitudeKm: o.alt, Epoch: epoch}.Validate()
	if err != nil {
		return err
	}
	field, err := provider.FieldAt(ctx, q)
	if err != nil {
		return fmt.Errorf("field model: %w", err)
	}
	calc, err := domain.NewCalculator(domain.StaticField(field), model)
	if err != nil {
		return err
	}
	result, err := calc.Evaluate(field, nil)
	if err != nil {
		return err
	}

	kp := &o.kp
	var source domain.ActivitySource
	if o.lookupKp {
		kp = nil
		source = gfz.NewClient(o.kpURL, o.timeout, metrics, logger)
	}
	activity := domain.ResolveActivity(ctx, q.Epoch, kp, source, o.kp, logger)
	level := domain.ClassifyEnvironment(result.CutoffRigidity, activity.Kp)

	out := cmd.OutOrStdout()
	if o.format == formatJSON {
		return writeComputeJSON(out, q, field, result, activity, level, props, o.curve)
	}
	return writeComputeTable(out, q, result, activity, level, field, props, o.curve)
}

type computeJSON struct {
	Query      domain.Query       `json:"query"`
	DecYear    float64            `json:"decimal_year"`
	Field      domain.FieldVector `json:"field"`
	Result     *domain.Result     `json:"result,omitempty"`
	Cutoff     float64            `json:"cutoff_rigidity"`
	GeomagLat  float64            `json:"geomagnetic_latitude"`
	Activity   domain.Activity    `json:"activity"`
	Level      domain.Level       `json:"level"`
	Properties map[string]float64 `json:"properties,omitempty"`
}

func writeComputeJSON(out io.Writer, q domain.Query, field domain.FieldVector, r domain.Result, a domain.Activity, level domain.Level, props []domain.Property, curve bool) error {
	doc := computeJSON{
		Query:     q,
		DecYear:   domain.DecimalYear(q.Epoch),
		Field:     field,
		Cutoff:    r.CutoffRigidity,
		GeomagLat: r.GeomagneticLatitude,
		Activity:  a,
		Level:     level,
	}
	if curve {
		doc.Result = &r
	}
	if len(props) > 0 {
		doc.Properties = make(map[string]float64, len(props))
		for _, p := range props {
			doc.Properties[p.Key()] = p.Value(r, field)
		}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func writeComputeTable(out io.Writer, q domain.Query, r domain.Result, a domain.Activity, level domain.Level, field domain.FieldVector, props []domain.Property, curve bool) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Location\t%.4f, %.4f @ %.3f km\n", q.Latitude, q.Longitude, q.AltitudeKm)
	fmt.Fprintf(tw, "Epoch\t%s (%.4f)\n", q.Epoch.Format(time.RFC3339), domain.DecimalYear(q.Epoch))
	fmt.Fprintf(tw, "%s\t%.4f %s\n", domain.PropGeomagneticLatitude.Label(), r.GeomagneticLatitude, domain.PropGeomagneticLatitude.Unit())
	fmt.Fprintf(tw, "%s\t%.4f %s\n", domain.PropCutoffRigidity.Label(), r.CutoffRigidity, domain.PropCutoffRigidity.Unit())
	fmt.Fprintf(tw, "Kp\t%.3f (%s)\n", a.Kp, a.Source)
	fmt.Fprintf(tw, "Environment\t%s\n", level)
	for _, p := range props {
		fmt.Fprintf(tw, "%s\t%.4f %s\n", p.Label(), p.Value(r, field), p.Unit())
	}
	if curve {
		fmt.Fprintln(tw, "\nRigidity (GV)\tTransmission")
		for i, rig := range r.Rigidity {
			fmt.Fprintf(tw, "%.4f\t%.6f\n", rig, r.Transmission[i])
		}
	}
	return tw.Flush()
}

func newClassifyCmd() *cobra.Command {
	var rc, kp float64
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify the radiation environment from Rc and Kp",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rc < 0 {
				return fmt.Errorf("invalid --rc %g: must be non-negative", rc)
			}
			if !domain.ValidKp(kp) {
				return fmt.Errorf("invalid --kp %g: must be within [0, 9]", kp)
			}
			fmt.Fprintln(cmd.OutOrStdout(), domain.ClassifyEnvironment(rc, kp))
			return nil
		},
	}
	cmd.Flags().Float64Var(&rc, "rc", 0, "Cutoff rigidity in GV")
	cmd.Flags().Float64Var(&kp, "kp", 0, "Planetary Kp index")
	_ = cmd.MarkFlagRequired("rc")
	_ = cmd.MarkFlagRequired("kp")
	return cmd
}

func newSpectrumCmd() *cobra.Command {
	var (
		lo, hi float64
		points int
	)
	cmd := &cobra.Command{
		Use:   "spectrum",
		Short: "Print a rigidity grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := domain.Linspace(lo, hi, points)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range s {
				fmt.Fprintf(out, "%g\n", r)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&lo, "min", 0, "Lowest rigidity in GV")
	cmd.Flags().Float64Var(&hi, "max", domain.DefaultSpectrumMax, "Highest rigidity in GV")
	cmd.Flags().IntVar(&points, "points", domain.DefaultSpectrumPoints, "Number of samples")
	return cmd
}

func newPropertiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "properties",
		Short: "List the properties accepted by --property",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, p := range domain.Properties() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Key(), p.Label(), p.Unit())
			}
			return tw.Flush()
		},
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
