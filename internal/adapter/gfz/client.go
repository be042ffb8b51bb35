// Package gfz looks up the planetary Kp index published by GFZ Potsdam.
package gfz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/geomag-gtf-service/internal/domain"
	"github.com/couchcryptid/geomag-gtf-service/internal/observability"
)

const sourceLabel = "kp"

// DefaultBaseURL is the public GFZ Kp JSON endpoint.
const DefaultBaseURL = "https://kp.gfz.de/app/json/"

const timeLayout = "2006-01-02T15:04:05Z"

// Client implements domain.ActivitySource using the GFZ Kp web service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a GFZ Kp client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// ActivityAt returns the Kp value of the 3-hour slot containing t. ok is false
// when GFZ has not published a value for that slot yet.
func (c *Client) ActivityAt(ctx context.Context, t time.Time) (float64, bool, error) {
	slot := domain.KpSlotStart(t)
	ts := slot.Format(timeLayout)
	params := url.Values{
		"start": {ts},
		"end":   {ts},
		"index": {"Kp"},
	}

	start := time.Now()
	kp, ok, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode(), slot)
	c.metrics.UpstreamDuration.WithLabelValues(sourceLabel).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.UpstreamRequests.WithLabelValues(sourceLabel, "error").Inc()
	case !ok:
		c.metrics.UpstreamRequests.WithLabelValues(sourceLabel, "empty").Inc()
		c.logger.Debug("kp not yet published", "slot", ts)
	default:
		c.metrics.UpstreamRequests.WithLabelValues(sourceLabel, "success").Inc()
	}
	return kp, ok, err
}

func (c *Client) doRequest(ctx context.Context, fullURL string, slot time.Time) (float64, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return 0, false, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, false, fmt.Errorf("kp request: %w", err)
	}
	defer resp.Body.Close()

	// GFZ answers 404 for slots outside the published range.
	if resp.StatusCode == http.StatusNotFound {
		return 0, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, false, fmt.Errorf("kp API error: status %d: %s", resp.StatusCode, body)
	}

	var kpResp response
	if err := json.NewDecoder(resp.Body).Decode(&kpResp); err != nil {
		return 0, false, fmt.Errorf("decode response: %w", err)
	}
	kp, ok := kpResp.valueAt(slot)
	return kp, ok, nil
}

// GFZ response types. The service returns parallel datetime/Kp arrays; older
// deployments wrapped values in a data array.

type response struct {
	Datetime []string  `json:"datetime"`
	Kp       []float64 `json:"Kp"`
	Data     []struct {
		Value float64 `json:"value"`
	} `json:"data"`
}

func (r response) valueAt(slot time.Time) (float64, bool) {
	n := min(len(r.Datetime), len(r.Kp))
	for i := range n {
		ts, err := time.Parse(time.RFC3339, r.Datetime[i])
		if err == nil && ts.Equal(slot) {
			return r.Kp[i], true
		}
	}
	if len(r.Kp) > 0 {
		return r.Kp[0], true
	}
	if len(r.Data) > 0 {
		return r.Data[0].Value, true
	}
	return 0, false
}
