package domain

import "fmt"

// ScalerParams holds the per-feature standardization statistics fixed when
// the classifier was fitted. Immutable at inference time.
type ScalerParams struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Validate checks the params against a feature width. Every Std entry must
// be strictly positive or the standardization division is undefined.
func (p ScalerParams) Validate(width int) error {
	if len(p.Mean) != width || len(p.Std) != width {
		return &InvalidParamsError{
			Reason: fmt.Sprintf("want %d mean/std pairs, got %d mean and %d std", width, len(p.Mean), len(p.Std)),
		}
	}
	for i, s := range p.Std {
		if s <= 0 {
			return &InvalidParamsError{
				Reason: fmt.Sprintf("std[%d] = %g, must be strictly positive", i, s),
			}
		}
	}
	return nil
}

// Standardize applies the elementwise affine transform
// (value - mean_i) / std_i. Pure and deterministic; the input vector is not
// modified.
func Standardize(vector FeatureVector, params ScalerParams) (FeatureVector, error) {
	if err := params.Validate(len(vector)); err != nil {
		return nil, err
	}

	scaled := make(FeatureVector, len(vector))
	for i, v := range vector {
		scaled[i] = (v - params.Mean[i]) / params.Std[i]
	}
	return scaled, nil
}
