package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Observation is a single streamflow measurement from a USGS gage.
type Observation struct {
	Timestamp    time.Time `json:"timestamp"`
	DischargeCFS float64   `json:"discharge_cfs"`
}

// Site is a USGS monitoring site that reports streamflow.
type Site struct {
	Code string  `json:"code"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Assessment is the full record of one flood-risk evaluation.
type Assessment struct {
	ID               string        `json:"id"`
	SiteCode         string        `json:"site_code"`
	Probability      float64       `json:"probability"`
	Category         RiskCategory  `json:"category"`
	Features         FeatureVector `json:"features"`
	WindowStart      time.Time     `json:"window_start"`
	WindowEnd        time.Time     `json:"window_end"`
	ObservationCount int           `json:"observation_count"`
	AssessedAt       time.Time     `json:"assessed_at"`
}

// AssessmentID produces a deterministic ID from the site and window end.
// Reassessing the same site and window yields the same ID, so exported
// assessments can be deduplicated downstream.
func AssessmentID(siteCode string, windowEnd time.Time) string {
	input := fmt.Sprintf("%s|%s", siteCode, windowEnd.UTC().Format(time.RFC3339))
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if siteCode == "" {
		return short
	}
	return siteCode + "-" + short
}
