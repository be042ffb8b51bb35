// Package igrf provides the geomagnetic field vector from the NOAA NCEI
// IGRF calculator.
package igrf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/geomag-gtf-service/internal/domain"
	"github.com/couchcryptid/geomag-gtf-service/internal/observability"
)

const sourceLabel = "igrf"

// DefaultBaseURL is the public NCEI calculator endpoint.
const DefaultBaseURL = "https://www.ngdc.noaa.gov/geomag-web/calculators/calculateIgrfwmm"

// ErrNoResult is returned when the calculator answers without a field value.
var ErrNoResult = errors.New("igrf: empty result")

// Client implements domain.FieldProvider using the NCEI IGRF calculator.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an NCEI field model client.
func NewClient(baseURL, apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// FieldAt returns the local East/North/Up field vector in nT at the query's
// location, altitude, and date. The calculator resolves dates to the day.
func (c *Client) FieldAt(ctx context.Context, q domain.Query) (domain.FieldVector, error) {
	epoch := q.Epoch.UTC()
	params := url.Values{
		"lat1":           {formatFloat(q.Latitude)},
		"lon1":           {formatFloat(q.Longitude)},
		"elevation":      {formatFloat(q.AltitudeKm)},
		"elevationUnits": {"K"},
		"model":          {"IGRF"},
		"startYear":      {strconv.Itoa(epoch.Year())},
		"startMonth":     {strconv.Itoa(int(epoch.Month()))},
		"startDay":       {strconv.Itoa(epoch.Day())},
		"resultFormat":   {"json"},
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	start := time.Now()
	v, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.UpstreamDuration.WithLabelValues(sourceLabel).Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, ErrNoResult):
		c.metrics.UpstreamRequests.WithLabelValues(sourceLabel, "empty").Inc()
	case err != nil:
		c.metrics.UpstreamRequests.WithLabelValues(sourceLabel, "error").Inc()
		c.logger.Warn("igrf request failed", "lat", q.Latitude, "lon", q.Longitude, "error", err)
	default:
		c.metrics.UpstreamRequests.WithLabelValues(sourceLabel, "success").Inc()
	}
	return v, err
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.FieldVector, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.FieldVector{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.FieldVector{}, fmt.Errorf("igrf request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.FieldVector{}, fmt.Errorf("igrf API error: status %d: %s", resp.StatusCode, body)
	}

	var igrfResp response
	if err := json.NewDecoder(resp.Body).Decode(&igrfResp); err != nil {
		return domain.FieldVector{}, fmt.Errorf("decode response: %w", err)
	}
	if len(igrfResp.Result) == 0 {
		return domain.FieldVector{}, ErrNoResult
	}

	r := igrfResp.Result[0]
	// NCEI reports X north, Y east, Z down.
	return domain.FieldVector{
		East:  r.Y,
		North: r.X,
		Up:    -r.Z,
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NCEI calculator response types.

type response struct {
	Result []result `json:"result"`
}

type result struct {
	X           float64 `json:"xcomponent"` // nT, north
	Y           float64 `json:"ycomponent"` // nT, east
	Z           float64 `json:"zcomponent"` // nT, down
	Declination float64 `json:"declination"`
	Inclination float64 `json:"inclination"`
	TotalField  float64 `json:"totalintensity"`
}
