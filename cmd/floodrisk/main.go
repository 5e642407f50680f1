package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/couchcryptid/flood-risk-service/internal/adapter/assistant"
	httpadapter "github.com/couchcryptid/flood-risk-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/flood-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/flood-risk-service/internal/adapter/news"
	"github.com/couchcryptid/flood-risk-service/internal/adapter/nominatim"
	"github.com/couchcryptid/flood-risk-service/internal/adapter/nws"
	"github.com/couchcryptid/flood-risk-service/internal/adapter/usgs"
	"github.com/couchcryptid/flood-risk-service/internal/config"
	"github.com/couchcryptid/flood-risk-service/internal/model"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
	"github.com/couchcryptid/flood-risk-service/internal/pipeline"
	"github.com/couchcryptid/flood-risk-service/internal/safety"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Load the frozen model artifacts. A bad artifact is a deployment
	// problem; fail fast.
	classifier, err := model.LoadClassifier(cfg.WeightsPath)
	if err != nil {
		logger.Error("failed to load classifier", "path", cfg.WeightsPath, "error", err)
		os.Exit(1)
	}
	scaler, err := model.LoadScaler(cfg.ScalerPath)
	if err != nil {
		logger.Error("failed to load scaler", "path", cfg.ScalerPath, "error", err)
		os.Exit(1)
	}
	metrics.ModelLoaded.Set(1)
	logger.Info("model artifacts loaded", "weights", cfg.WeightsPath, "scaler", cfg.ScalerPath)

	usgsClient := usgs.NewClient(cfg.USGSBaseURL, cfg.USGSTimeout, logger, metrics)
	sites := usgs.NewCachedClient(usgsClient, cfg.SiteCacheSize, metrics)

	alerts := nws.NewClient(cfg.NWSBaseURL, cfg.NWSUserAgent, cfg.NWSTimeout, logger, metrics)

	geocoderClient := nominatim.NewClient(cfg.NominatimBaseURL, cfg.NWSUserAgent, cfg.NominatimTimeout, logger, metrics)
	geocoder := nominatim.NewCachedGeocoder(geocoderClient, cfg.GeocodeCacheSize)

	newsClient := news.NewClient(cfg.NewsBaseURL, cfg.NewsTimeout, logger, metrics)

	// Assessment export is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var exporter pipeline.Exporter
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		exporter = publisher
		logger.Info("assessment export enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("assessment export disabled")
	}

	assessor := pipeline.New(sites, scaler, classifier, exporter, cfg.LookbackDays, logger, metrics)

	// The chat assistant is feature-flagged via ASSISTANT_API_KEY.
	var chat httpadapter.ChatAssistant
	if cfg.AssistantEnabled {
		tools := assistantTools(assessor, alerts)
		chat = assistant.NewClient(cfg.AssistantBaseURL, cfg.AssistantAPIKey, cfg.AssistantModel,
			cfg.AssistantMaxTokens, cfg.AssistantTimeout, tools, logger, metrics)
		logger.Info("chat assistant enabled", "model", cfg.AssistantModel)
	} else {
		logger.Info("chat assistant disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Ready:     assessor,
		Assessor:  assessor,
		Sites:     sites,
		Alerts:    alerts,
		Geocoder:  geocoder,
		News:      newsClient,
		Assistant: chat,
		Logger:    logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// assistantTools exposes service capabilities to the chat assistant.
func assistantTools(assessor *pipeline.Assessor, alerts *nws.Client) map[string]assistant.ToolFunc {
	return map[string]assistant.ToolFunc{
		"get_flood_probability": func(ctx context.Context, args map[string]any) (string, error) {
			siteCode, _ := args["site_code"].(string)
			if siteCode == "" {
				return "", errors.New("site_code is required")
			}
			assessment, err := assessor.AssessSite(ctx, siteCode, time.Time{})
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("The flood probability for site %s is %.0f%% (%s risk).",
				assessment.SiteCode, assessment.Probability*100, assessment.Category), nil
		},
		"get_active_alerts": func(ctx context.Context, args map[string]any) (string, error) {
			state, _ := args["state"].(string)
			if state == "" {
				return "", errors.New("state is required")
			}
			active, err := alerts.ActiveForArea(ctx, state)
			if err != nil {
				return "", err
			}
			if len(active) == 0 {
				return "There are no active weather alerts for " + strings.ToUpper(state) + ".", nil
			}
			var b strings.Builder
			fmt.Fprintf(&b, "%d active alert(s) for %s:", len(active), strings.ToUpper(state))
			for _, a := range active {
				fmt.Fprintf(&b, "\n- %s (%s, %s): %s", a.Event, a.Severity, a.Urgency, a.AreaDesc)
			}
			return b.String(), nil
		},
		"get_safety_tips": func(context.Context, map[string]any) (string, error) {
			var b strings.Builder
			for _, section := range safety.Tips() {
				fmt.Fprintf(&b, "%s:\n", section.Title)
				for _, tip := range section.Tips {
					fmt.Fprintf(&b, "- %s\n", tip)
				}
			}
			return b.String(), nil
		},
	}
}
