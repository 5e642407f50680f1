// Command assess runs a single flood-risk assessment for one USGS site
// and prints the result as JSON. Useful for smoke-testing model artifacts
// and for ad-hoc checks without running the service.
//
// Usage:
//
//	go run ./cmd/assess \
//	  -site 03434500 \
//	  -weights data/model/weights.json \
//	  -scaler data/model/scaler.json \
//	  -date 2024-04-26
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/flood-risk-service/internal/adapter/usgs"
	"github.com/couchcryptid/flood-risk-service/internal/model"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
	"github.com/couchcryptid/flood-risk-service/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "assess: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	site := flag.String("site", "", "USGS site code (required)")
	date := flag.String("date", "", "assessment end date, YYYY-MM-DD (default: today)")
	weightsPath := flag.String("weights", "data/model/weights.json", "path to the weights artifact")
	scalerPath := flag.String("scaler", "data/model/scaler.json", "path to the scaler artifact")
	usgsURL := flag.String("usgs-url", "https://waterservices.usgs.gov/nwis", "USGS NWIS base URL")
	lookback := flag.Int("lookback", 45, "days of history to fetch")
	timeout := flag.Duration("timeout", 30*time.Second, "overall request timeout")
	flag.Parse()

	if *site == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -site")
	}

	var endDate time.Time
	if *date != "" {
		parsed, err := time.Parse("2006-01-02", *date)
		if err != nil {
			return fmt.Errorf("invalid -date %q: %w", *date, err)
		}
		endDate = parsed
	}

	classifier, err := model.LoadClassifier(*weightsPath)
	if err != nil {
		return err
	}
	scaler, err := model.LoadScaler(*scalerPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := observability.NewMetricsForTesting()

	fetcher := usgs.NewClient(*usgsURL, *timeout, logger, metrics)
	assessor := pipeline.New(fetcher, scaler, classifier, nil, *lookback, logger, metrics)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	assessment, err := assessor.AssessSite(ctx, *site, endDate)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(assessment, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
