package model

import (
	"encoding/json"
	"os"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// LoadScaler reads and validates a scaler artifact. The params must carry
// exactly one mean/std pair per feature with strictly positive std entries;
// anything else is a ModelLoadError.
func LoadScaler(path string) (domain.ScalerParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ScalerParams{}, &domain.ModelLoadError{Path: path, Reason: "read artifact", Err: err}
	}

	var artifact ScalerArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return domain.ScalerParams{}, &domain.ModelLoadError{Path: path, Reason: "decode artifact", Err: err}
	}

	params := domain.ScalerParams{Mean: artifact.Mean, Std: artifact.Std}
	if err := params.Validate(domain.FeatureCount); err != nil {
		return domain.ScalerParams{}, &domain.ModelLoadError{Path: path, Reason: "validate artifact", Err: err}
	}
	return params, nil
}
