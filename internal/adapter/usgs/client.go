// Package usgs is a client for the USGS National Water Information System
// (NWIS) water services. Two endpoints are used: the instantaneous-values
// service to enumerate active streamflow sites for a state, and the
// daily-values service for the trailing discharge series of one site.
// Parameter code 00060 is discharge in cubic feet per second.
package usgs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
)

const (
	// NWIS parameter code for streamflow discharge (CFS).
	parameterDischarge = "00060"

	dateLayout = "2006-01-02"
)

// Client talks to the NWIS water services.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a NWIS client. baseURL is the service root, e.g.
// "https://waterservices.usgs.gov/nwis".
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Sites returns the active streamflow monitoring sites for a two-letter
// state code.
func (c *Client) Sites(ctx context.Context, stateCode string) ([]domain.Site, error) {
	params := url.Values{
		"format":      {"json"},
		"stateCd":     {stateCode},
		"siteStatus":  {"active"},
		"parameterCd": {parameterDischarge},
	}

	var resp nwisResponse
	if err := c.doRequest(ctx, c.baseURL+"/iv/?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	sites := make([]domain.Site, 0, len(resp.Value.TimeSeries))
	seen := make(map[string]bool)
	for _, series := range resp.Value.TimeSeries {
		info := series.SourceInfo
		if len(info.SiteCode) == 0 {
			continue
		}
		code := info.SiteCode[0].Value
		loc := info.GeoLocation.GeogLocation
		if code == "" || seen[code] || (loc.Latitude == 0 && loc.Longitude == 0) {
			continue
		}
		seen[code] = true
		sites = append(sites, domain.Site{
			Code: code,
			Name: info.SiteName,
			Lat:  loc.Latitude,
			Lon:  loc.Longitude,
		})
	}
	return sites, nil
}

// DailyDischarge returns the chronological daily discharge series for a
// site over [start, end].
func (c *Client) DailyDischarge(ctx context.Context, siteCode string, start, end time.Time) ([]domain.Observation, error) {
	params := url.Values{
		"format":      {"json"},
		"sites":       {siteCode},
		"startDT":     {start.Format(dateLayout)},
		"endDT":       {end.Format(dateLayout)},
		"parameterCd": {parameterDischarge},
		"siteStatus":  {"active"},
	}

	var resp nwisResponse
	if err := c.doRequest(ctx, c.baseURL+"/dv/?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	var observations []domain.Observation
	for _, series := range resp.Value.TimeSeries {
		if len(series.Values) == 0 {
			continue
		}
		for _, v := range series.Values[0].Value {
			ts, err := parseNWISTime(v.DateTime)
			if err != nil {
				c.logger.Warn("skipping observation with bad timestamp",
					"site", siteCode, "date_time", v.DateTime, "error", err)
				continue
			}
			var discharge float64
			if _, err := fmt.Sscanf(v.Value, "%f", &discharge); err != nil {
				c.logger.Warn("skipping observation with bad value",
					"site", siteCode, "value", v.Value, "error", err)
				continue
			}
			observations = append(observations, domain.Observation{
				Timestamp:    ts,
				DischargeCFS: discharge,
			})
		}
	}
	return observations, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string, out any) error {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("usgs", "error").Inc()
		return fmt.Errorf("nwis request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.UpstreamAPIDuration.WithLabelValues("usgs").Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		c.metrics.UpstreamRequests.WithLabelValues("usgs", "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("nwis API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("usgs", "error").Inc()
		return fmt.Errorf("decode response: %w", err)
	}
	c.metrics.UpstreamRequests.WithLabelValues("usgs", "success").Inc()
	return nil
}

// parseNWISTime accepts the fractional-second local form the daily-values
// service emits ("2020-01-01T00:00:00.000") plus zoned variants.
func parseNWISTime(s string) (time.Time, error) {
	for _, layout := range []string{
		"2006-01-02T15:04:05.000-07:00",
		"2006-01-02T15:04:05.000",
		time.RFC3339,
	} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// NWIS WaterML-JSON response types (only the fields used).

type nwisResponse struct {
	Value struct {
		TimeSeries []timeSeries `json:"timeSeries"`
	} `json:"value"`
}

type timeSeries struct {
	SourceInfo sourceInfo    `json:"sourceInfo"`
	Values     []seriesValue `json:"values"`
}

type sourceInfo struct {
	SiteName    string     `json:"siteName"`
	SiteCode    []keyValue `json:"siteCode"`
	GeoLocation struct {
		GeogLocation struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"geogLocation"`
	} `json:"geoLocation"`
}

type keyValue struct {
	Value string `json:"value"`
}

type seriesValue struct {
	Value []observationValue `json:"value"`
}

type observationValue struct {
	Value    string `json:"value"`
	DateTime string `json:"dateTime"`
}
