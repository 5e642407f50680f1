// Package http exposes the flood-risk service over JSON endpoints, plus
// the usual health, readiness, and metrics routes.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/flood-risk-service/internal/adapter/assistant"
	"github.com/couchcryptid/flood-risk-service/internal/adapter/news"
	"github.com/couchcryptid/flood-risk-service/internal/adapter/nws"
	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/pipeline"
	"github.com/couchcryptid/flood-risk-service/internal/safety"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Assessor runs a flood-risk assessment for one site.
type Assessor interface {
	AssessSite(ctx context.Context, siteCode string, endDate time.Time) (domain.Assessment, error)
}

// SiteLister returns the monitoring sites for a state.
type SiteLister interface {
	Sites(ctx context.Context, stateCode string) ([]domain.Site, error)
}

// AlertFinder returns active weather alerts.
type AlertFinder interface {
	ActiveForPoint(ctx context.Context, lat, lon float64) ([]nws.Alert, error)
	ActiveForArea(ctx context.Context, stateCode string) ([]nws.Alert, error)
}

// NewsSearcher returns flood news for a location name.
type NewsSearcher interface {
	Search(ctx context.Context, location string) ([]news.Article, error)
}

// ChatAssistant answers user questions, optionally via tool calls.
type ChatAssistant interface {
	Respond(ctx context.Context, userInput string, history []assistant.Message) (string, error)
}

// Deps carries the collaborators the server routes to. Assistant may be
// nil when no API key is configured; its route then answers 503.
type Deps struct {
	Ready     ReadinessChecker
	Assessor  Assessor
	Sites     SiteLister
	Alerts    AlertFinder
	Geocoder  domain.Geocoder
	News      NewsSearcher
	Assistant ChatAssistant
	Logger    *slog.Logger
}

// Server exposes the flood-risk HTTP API.
type Server struct {
	httpServer *http.Server
	deps       Deps
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps: deps,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/sites", s.handleSites)
	mux.HandleFunc("GET /api/assess", s.handleAssess)
	mux.HandleFunc("GET /api/alerts", s.handleAlerts)
	mux.HandleFunc("GET /api/news", s.handleNews)
	mux.HandleFunc("GET /api/safety", s.handleSafety)
	mux.HandleFunc("POST /api/chat", s.handleChat)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.deps.Logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.deps.Ready.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleSites(w http.ResponseWriter, r *http.Request) {
	state := strings.TrimSpace(r.URL.Query().Get("state"))
	if len(state) != 2 {
		writeError(w, http.StatusBadRequest, "state must be a two-letter code")
		return
	}

	sites, err := s.deps.Sites.Sites(r.Context(), state)
	if err != nil {
		s.deps.Logger.Error("site lookup failed", "state", state, "error", err)
		writeError(w, http.StatusBadGateway, "site lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"state": strings.ToUpper(state),
		"sites": sites,
	})
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	site := strings.TrimSpace(r.URL.Query().Get("site"))
	if site == "" {
		writeError(w, http.StatusBadRequest, "site is required")
		return
	}

	var endDate time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		endDate = parsed
	}

	assessment, err := s.deps.Assessor.AssessSite(r.Context(), site, endDate)
	if err != nil {
		status, detail := assessmentErrorStatus(err)
		s.deps.Logger.Warn("assessment failed", "site", site, "error", err)
		writeError(w, status, detail)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		alerts []nws.Alert
		err    error
	)
	switch {
	case q.Get("lat") != "" && q.Get("lon") != "":
		lat, lon, perr := parseCoords(q.Get("lat"), q.Get("lon"))
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr.Error())
			return
		}
		alerts, err = s.deps.Alerts.ActiveForPoint(r.Context(), lat, lon)
	case q.Get("state") != "":
		alerts, err = s.deps.Alerts.ActiveForArea(r.Context(), q.Get("state"))
	default:
		writeError(w, http.StatusBadRequest, "state or lat/lon is required")
		return
	}

	if err != nil {
		s.deps.Logger.Error("alert lookup failed", "error", err)
		writeError(w, http.StatusBadGateway, "alert lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := parseCoords(r.URL.Query().Get("lat"), r.URL.Query().Get("lon"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	place, err := s.deps.Geocoder.ReverseGeocode(r.Context(), lat, lon)
	if err != nil {
		s.deps.Logger.Error("reverse geocode failed", "error", err)
		writeError(w, http.StatusBadGateway, "reverse geocode failed")
		return
	}

	location := place.DisplayName()
	articles, err := s.deps.News.Search(r.Context(), location)
	if err != nil {
		s.deps.Logger.Error("news search failed", "location", location, "error", err)
		writeError(w, http.StatusBadGateway, "news search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"location": location,
		"articles": articles,
	})
}

func (s *Server) handleSafety(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, safety.FullGuide())
}

type chatRequest struct {
	Message string              `json:"message"`
	History []assistant.Message `json:"history"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.deps.Assistant == nil {
		writeError(w, http.StatusServiceUnavailable, "assistant is not configured")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := s.deps.Assistant.Respond(r.Context(), req.Message, req.History)
	if err != nil {
		s.deps.Logger.Error("chat failed", "error", err)
		writeError(w, http.StatusBadGateway, "assistant request failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// assessmentErrorStatus maps pipeline failures to HTTP statuses: upstream
// fetch trouble is a gateway problem, data and model validation failures
// are unprocessable requests.
func assessmentErrorStatus(err error) (int, string) {
	var fetchErr *pipeline.FetchError
	if errors.As(err, &fetchErr) {
		return http.StatusBadGateway, "streamflow data unavailable"
	}

	var (
		insufficientErr *domain.InsufficientDataError
		paramsErr       *domain.InvalidParamsError
		shapeErr        *domain.ShapeMismatchError
		probErr         *domain.InvalidProbabilityError
	)
	switch {
	case errors.As(err, &insufficientErr),
		errors.As(err, &paramsErr),
		errors.As(err, &shapeErr),
		errors.As(err, &probErr):
		return http.StatusUnprocessableEntity, err.Error()
	default:
		return http.StatusInternalServerError, "assessment failed"
	}
}

func parseCoords(rawLat, rawLon string) (float64, float64, error) {
	if rawLat == "" || rawLon == "" {
		return 0, 0, errors.New("lat and lon are required")
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return 0, 0, errors.New("lat must be a number")
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return 0, 0, errors.New("lon must be a number")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, errors.New("coordinates out of range")
	}
	return lat, lon, nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
