package domain

// RiskCategory is the user-facing three-level flood-risk label.
type RiskCategory string

const (
	RiskLow      RiskCategory = "low"
	RiskModerate RiskCategory = "moderate"
	RiskHigh     RiskCategory = "high"
)

// Category thresholds. Both boundaries belong to moderate.
const (
	LowThreshold  = 0.30
	HighThreshold = 0.70
)

// RiskResult pairs a classifier probability with its category label.
type RiskResult struct {
	Probability float64      `json:"probability"`
	Category    RiskCategory `json:"category"`
}

// Categorize maps a probability to a risk category. Probabilities outside
// [0, 1] fail with InvalidProbabilityError.
func Categorize(probability float64) (RiskCategory, error) {
	if probability < 0 || probability > 1 {
		return "", &InvalidProbabilityError{Probability: probability}
	}
	switch {
	case probability < LowThreshold:
		return RiskLow, nil
	case probability > HighThreshold:
		return RiskHigh, nil
	default:
		return RiskModerate, nil
	}
}
