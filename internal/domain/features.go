package domain

import "gonum.org/v1/gonum/stat"

// Feature vector layout. The order is fixed: scaler params and classifier
// weights were fitted against vectors in exactly this order.
const (
	FeatCurrent = iota
	FeatMean7
	FeatStd7
	FeatMean30
	FeatStd30
	FeatRateOfChange

	FeatureCount = 6
)

// Window sizes for the rolling statistics.
const (
	ShortWindow = 7
	LongWindow  = 30
)

// MinObservations is the shortest series the extractor accepts. The 30-point
// statistics need a full long window.
const MinObservations = LongWindow

// FeatureVector is an ordered tuple of derived streamflow features. A valid
// vector has exactly FeatureCount entries; consumers validate the width and
// return ShapeMismatchError otherwise.
type FeatureVector []float64

// ExtractFeatures reduces a chronological observation series to the fixed
// feature vector. Pure function of the input; the series is not modified.
//
// Conventions (pinned, see package doc): rolling standard deviations are
// sample (N-1) estimates, and rate of change is the last observation minus
// the one immediately before it.
func ExtractFeatures(observations []Observation) (FeatureVector, error) {
	if len(observations) < MinObservations {
		return nil, &InsufficientDataError{Required: MinObservations, Actual: len(observations)}
	}

	values := make([]float64, len(observations))
	for i, obs := range observations {
		values[i] = obs.DischargeCFS
	}

	last7 := values[len(values)-ShortWindow:]
	last30 := values[len(values)-LongWindow:]

	current := values[len(values)-1]
	previous := values[len(values)-2]

	return FeatureVector{
		FeatCurrent:      current,
		FeatMean7:        stat.Mean(last7, nil),
		FeatStd7:         stat.StdDev(last7, nil),
		FeatMean30:       stat.Mean(last30, nil),
		FeatStd30:        stat.StdDev(last30, nil),
		FeatRateOfChange: current - previous,
	}, nil
}
