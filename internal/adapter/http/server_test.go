package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/flood-risk-service/internal/adapter/assistant"
	httpadapter "github.com/couchcryptid/flood-risk-service/internal/adapter/http"
	"github.com/couchcryptid/flood-risk-service/internal/adapter/news"
	"github.com/couchcryptid/flood-risk-service/internal/adapter/nws"
	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct{ err error }

func (m *mockReadiness) CheckReadiness(context.Context) error { return m.err }

type mockAssessor struct {
	assessment domain.Assessment
	err        error
	gotSite    string
	gotEnd     time.Time
}

func (m *mockAssessor) AssessSite(_ context.Context, siteCode string, endDate time.Time) (domain.Assessment, error) {
	m.gotSite = siteCode
	m.gotEnd = endDate
	return m.assessment, m.err
}

type mockSites struct {
	sites []domain.Site
	err   error
}

func (m *mockSites) Sites(context.Context, string) ([]domain.Site, error) {
	return m.sites, m.err
}

type mockAlerts struct {
	alerts   []nws.Alert
	err      error
	gotState string
	gotLat   float64
	gotLon   float64
}

func (m *mockAlerts) ActiveForPoint(_ context.Context, lat, lon float64) ([]nws.Alert, error) {
	m.gotLat, m.gotLon = lat, lon
	return m.alerts, m.err
}

func (m *mockAlerts) ActiveForArea(_ context.Context, state string) ([]nws.Alert, error) {
	m.gotState = state
	return m.alerts, m.err
}

type mockGeocoder struct {
	place domain.Place
	err   error
}

func (m *mockGeocoder) ReverseGeocode(context.Context, float64, float64) (domain.Place, error) {
	return m.place, m.err
}

type mockNews struct {
	articles    []news.Article
	gotLocation string
}

func (m *mockNews) Search(_ context.Context, location string) ([]news.Article, error) {
	m.gotLocation = location
	return m.articles, nil
}

type mockAssistant struct {
	reply string
	err   error
}

func (m *mockAssistant) Respond(context.Context, string, []assistant.Message) (string, error) {
	return m.reply, m.err
}

func newTestServer(deps httpadapter.Deps) *httpadapter.Server {
	if deps.Ready == nil {
		deps.Ready = &mockReadiness{}
	}
	deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpadapter.NewServer(":0", deps)
}

func do(srv *httpadapter.Server, method, target string, body io.Reader) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, target, body))
	return rec
}

func TestHealthz(t *testing.T) {
	rec := do(newTestServer(httpadapter.Deps{}), http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyz(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		rec := do(newTestServer(httpadapter.Deps{}), http.MethodGet, "/readyz", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not ready", func(t *testing.T) {
		deps := httpadapter.Deps{Ready: &mockReadiness{err: fmt.Errorf("classifier not loaded")}}
		rec := do(newTestServer(deps), http.MethodGet, "/readyz", nil)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "classifier not loaded", body["error"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(newTestServer(httpadapter.Deps{}), http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestSites(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		deps := httpadapter.Deps{Sites: &mockSites{sites: []domain.Site{
			{Code: "03434500", Name: "HARPETH RIVER", Lat: 36.1, Lon: -87.1},
		}}}
		rec := do(newTestServer(deps), http.MethodGet, "/api/sites?state=tn", nil)

		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			State string        `json:"state"`
			Sites []domain.Site `json:"sites"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "TN", body.State)
		require.Len(t, body.Sites, 1)
		assert.Equal(t, "03434500", body.Sites[0].Code)
	})

	t.Run("missing state", func(t *testing.T) {
		rec := do(newTestServer(httpadapter.Deps{Sites: &mockSites{}}), http.MethodGet, "/api/sites", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("upstream failure", func(t *testing.T) {
		deps := httpadapter.Deps{Sites: &mockSites{err: errors.New("nwis down")}}
		rec := do(newTestServer(deps), http.MethodGet, "/api/sites?state=TN", nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestAssess(t *testing.T) {
	assessment := domain.Assessment{
		ID:          "03434500-deadbeef",
		SiteCode:    "03434500",
		Probability: 0.12,
		Category:    domain.RiskLow,
	}

	t.Run("happy path", func(t *testing.T) {
		mock := &mockAssessor{assessment: assessment}
		rec := do(newTestServer(httpadapter.Deps{Assessor: mock}), http.MethodGet, "/api/assess?site=03434500", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "03434500", mock.gotSite)
		assert.True(t, mock.gotEnd.IsZero())

		var body domain.Assessment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, domain.RiskLow, body.Category)
		assert.Equal(t, 0.12, body.Probability)
	})

	t.Run("explicit date", func(t *testing.T) {
		mock := &mockAssessor{assessment: assessment}
		rec := do(newTestServer(httpadapter.Deps{Assessor: mock}), http.MethodGet, "/api/assess?site=03434500&date=2024-04-26", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, time.Date(2024, 4, 26, 0, 0, 0, 0, time.UTC), mock.gotEnd)
	})

	t.Run("missing site", func(t *testing.T) {
		rec := do(newTestServer(httpadapter.Deps{Assessor: &mockAssessor{}}), http.MethodGet, "/api/assess", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad date", func(t *testing.T) {
		rec := do(newTestServer(httpadapter.Deps{Assessor: &mockAssessor{}}), http.MethodGet, "/api/assess?site=x&date=04/26/2024", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("insufficient data is unprocessable", func(t *testing.T) {
		mock := &mockAssessor{err: &domain.InsufficientDataError{Required: 30, Actual: 12}}
		rec := do(newTestServer(httpadapter.Deps{Assessor: mock}), http.MethodGet, "/api/assess?site=03434500", nil)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body["error"], "30")
	})

	t.Run("fetch failure is bad gateway", func(t *testing.T) {
		mock := &mockAssessor{err: &pipeline.FetchError{Err: errors.New("nwis timeout")}}
		rec := do(newTestServer(httpadapter.Deps{Assessor: mock}), http.MethodGet, "/api/assess?site=03434500", nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("unexpected failure is internal", func(t *testing.T) {
		mock := &mockAssessor{err: errors.New("boom")}
		rec := do(newTestServer(httpadapter.Deps{Assessor: mock}), http.MethodGet, "/api/assess?site=03434500", nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestAlerts(t *testing.T) {
	alert := nws.Alert{Event: "Flash Flood Warning", Severity: "Severe"}

	t.Run("by state", func(t *testing.T) {
		mock := &mockAlerts{alerts: []nws.Alert{alert}}
		rec := do(newTestServer(httpadapter.Deps{Alerts: mock}), http.MethodGet, "/api/alerts?state=TN", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "TN", mock.gotState)

		var body struct {
			Alerts []nws.Alert `json:"alerts"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Alerts, 1)
		assert.Equal(t, "Flash Flood Warning", body.Alerts[0].Event)
	})

	t.Run("by point", func(t *testing.T) {
		mock := &mockAlerts{}
		rec := do(newTestServer(httpadapter.Deps{Alerts: mock}), http.MethodGet, "/api/alerts?lat=36.16&lon=-86.78", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 36.16, mock.gotLat)
		assert.Equal(t, -86.78, mock.gotLon)
	})

	t.Run("missing params", func(t *testing.T) {
		rec := do(newTestServer(httpadapter.Deps{Alerts: &mockAlerts{}}), http.MethodGet, "/api/alerts", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("out-of-range coordinates", func(t *testing.T) {
		rec := do(newTestServer(httpadapter.Deps{Alerts: &mockAlerts{}}), http.MethodGet, "/api/alerts?lat=123&lon=0", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("upstream failure", func(t *testing.T) {
		mock := &mockAlerts{err: errors.New("nws down")}
		rec := do(newTestServer(httpadapter.Deps{Alerts: mock}), http.MethodGet, "/api/alerts?state=TN", nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestNews(t *testing.T) {
	t.Run("geocodes then searches", func(t *testing.T) {
		geocoder := &mockGeocoder{place: domain.Place{City: "Nashville", County: "Davidson County", State: "Tennessee"}}
		searcher := &mockNews{articles: []news.Article{{Title: "Flooding downtown", Link: "https://news.example/1"}}}

		deps := httpadapter.Deps{Geocoder: geocoder, News: searcher}
		rec := do(newTestServer(deps), http.MethodGet, "/api/news?lat=36.16&lon=-86.78", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Nashville, Davidson County, Tennessee", searcher.gotLocation)

		var body struct {
			Location string         `json:"location"`
			Articles []news.Article `json:"articles"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Nashville, Davidson County, Tennessee", body.Location)
		require.Len(t, body.Articles, 1)
	})

	t.Run("missing coordinates", func(t *testing.T) {
		rec := do(newTestServer(httpadapter.Deps{}), http.MethodGet, "/api/news?lat=36.16", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("geocode failure", func(t *testing.T) {
		deps := httpadapter.Deps{Geocoder: &mockGeocoder{err: errors.New("nominatim down")}, News: &mockNews{}}
		rec := do(newTestServer(deps), http.MethodGet, "/api/news?lat=36.16&lon=-86.78", nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestSafety(t *testing.T) {
	rec := do(newTestServer(httpadapter.Deps{}), http.MethodGet, "/api/safety", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		SafetyTips []struct {
			Title string   `json:"title"`
			Tips  []string `json:"tips"`
		} `json:"safety_tips"`
		Shelter []struct {
			Title string `json:"title"`
		} `json:"shelter"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.SafetyTips, 3)
	assert.Equal(t, "Prepare", body.SafetyTips[0].Title)
	assert.Len(t, body.Shelter, 2)
}

func TestChat(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		deps := httpadapter.Deps{Assistant: &mockAssistant{reply: "Stay safe out there."}}
		payload := `{"message": "What should I do in a flood?", "history": [{"role": "user", "content": "hi"}]}`
		rec := do(newTestServer(deps), http.MethodPost, "/api/chat", strings.NewReader(payload))

		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Stay safe out there.", body["reply"])
	})

	t.Run("assistant not configured", func(t *testing.T) {
		rec := do(newTestServer(httpadapter.Deps{}), http.MethodPost, "/api/chat", strings.NewReader(`{"message": "hi"}`))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("empty message", func(t *testing.T) {
		deps := httpadapter.Deps{Assistant: &mockAssistant{}}
		rec := do(newTestServer(deps), http.MethodPost, "/api/chat", strings.NewReader(`{"message": "  "}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		deps := httpadapter.Deps{Assistant: &mockAssistant{}}
		rec := do(newTestServer(deps), http.MethodPost, "/api/chat", strings.NewReader(`{broken`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("assistant failure", func(t *testing.T) {
		deps := httpadapter.Deps{Assistant: &mockAssistant{err: errors.New("router down")}}
		rec := do(newTestServer(deps), http.MethodPost, "/api/chat", strings.NewReader(`{"message": "hi"}`))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}
