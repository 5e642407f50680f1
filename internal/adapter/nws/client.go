// Package nws is a client for the National Weather Service active-alerts
// API, https://api.weather.gov/alerts/active. The API requires a
// descriptive User-Agent and speaks GeoJSON.
package nws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/flood-risk-service/internal/observability"
)

// Alert is one active NWS alert, flattened from GeoJSON feature properties.
type Alert struct {
	Event       string `json:"event"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Urgency     string `json:"urgency"`
	AreaDesc    string `json:"area_desc"`
	Effective   string `json:"effective"`
	Expires     string `json:"expires"`
	Instruction string `json:"instruction"`
}

// Client talks to the NWS alerts API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an alerts client. userAgent must identify the
// application per NWS API policy, e.g. "(flood-risk-service, ops@example.com)".
func NewClient(baseURL, userAgent string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// ActiveForPoint returns active alerts covering a coordinate.
func (c *Client) ActiveForPoint(ctx context.Context, lat, lon float64) ([]Alert, error) {
	params := url.Values{"point": {fmt.Sprintf("%g,%g", lat, lon)}}
	return c.fetch(ctx, params)
}

// ActiveForArea returns active alerts for a two-letter state code.
func (c *Client) ActiveForArea(ctx context.Context, stateCode string) ([]Alert, error) {
	params := url.Values{"area": {stateCode}}
	return c.fetch(ctx, params)
}

func (c *Client) fetch(ctx context.Context, params url.Values) ([]Alert, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/alerts/active?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("nws", "error").Inc()
		return nil, fmt.Errorf("nws request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.UpstreamAPIDuration.WithLabelValues("nws").Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		c.metrics.UpstreamRequests.WithLabelValues("nws", "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("nws API error: status %d: %s", resp.StatusCode, body)
	}

	var geoResp response
	if err := json.NewDecoder(resp.Body).Decode(&geoResp); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("nws", "error").Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}
	c.metrics.UpstreamRequests.WithLabelValues("nws", "success").Inc()

	alerts := make([]Alert, 0, len(geoResp.Features))
	for _, f := range geoResp.Features {
		alerts = append(alerts, Alert(f.Properties))
	}
	return alerts, nil
}

// NWS GeoJSON response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties properties `json:"properties"`
}

type properties struct {
	Event       string `json:"event"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Urgency     string `json:"urgency"`
	AreaDesc    string `json:"areaDesc"`
	Effective   string `json:"effective"`
	Expires     string `json:"expires"`
	Instruction string `json:"instruction"`
}
