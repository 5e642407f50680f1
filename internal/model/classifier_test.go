package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zeroArtifact builds a valid artifact with every weight and bias at zero.
// The forward pass collapses to sigmoid(0) = 0.5 regardless of input.
func zeroArtifact() WeightsArtifact {
	dims := []int{6, 64, 32, 1}
	layers := make([]LayerArtifact, len(dims)-1)
	for i := range layers {
		in, out := dims[i], dims[i+1]
		weights := make([][]float64, out)
		for r := range weights {
			weights[r] = make([]float64, in)
		}
		layers[i] = LayerArtifact{Weights: weights, Bias: make([]float64, out)}
	}
	return WeightsArtifact{Architecture: dims, Layers: layers}
}

// passthroughArtifact routes a single input feature straight to the output:
// the first hidden unit of each layer carries the value, everything else is
// zero. For non-negative inputs the output is sigmoid(input[idx]).
func passthroughArtifact(idx int) WeightsArtifact {
	artifact := zeroArtifact()
	artifact.Layers[0].Weights[0][idx] = 1
	artifact.Layers[1].Weights[0][0] = 1
	artifact.Layers[2].Weights[0][0] = 1
	return artifact
}

func writeArtifact(t *testing.T, v any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifact.json")
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadClassifier_RoundTrip(t *testing.T) {
	path := writeArtifact(t, zeroArtifact())

	classifier, err := LoadClassifier(path)
	require.NoError(t, err)

	prob, err := classifier.Predict(domain.FeatureVector{0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.5, prob)
}

func TestLoadClassifier_MissingFile(t *testing.T) {
	_, err := LoadClassifier(filepath.Join(t.TempDir(), "nope.json"))

	var loadErr *domain.ModelLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, loadErr.Reason, "read")
}

func TestLoadClassifier_CorruptArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadClassifier(path)

	var loadErr *domain.ModelLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, loadErr.Reason, "decode")
}

func TestLoadClassifier_WrongArchitecture(t *testing.T) {
	artifact := zeroArtifact()
	artifact.Architecture = []int{6, 128, 32, 1}
	path := writeArtifact(t, artifact)

	_, err := LoadClassifier(path)

	var loadErr *domain.ModelLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, err.Error(), "does not match")
}

func TestLoadClassifier_WrongLayerShape(t *testing.T) {
	artifact := zeroArtifact()
	artifact.Layers[1].Weights = artifact.Layers[1].Weights[:10]
	path := writeArtifact(t, artifact)

	_, err := LoadClassifier(path)

	var loadErr *domain.ModelLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, err.Error(), "layer 1")
}

func TestLoadClassifier_WrongRowWidth(t *testing.T) {
	artifact := zeroArtifact()
	artifact.Layers[0].Weights[3] = []float64{1, 2, 3}
	path := writeArtifact(t, artifact)

	_, err := LoadClassifier(path)
	var loadErr *domain.ModelLoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestPredict_ShapeMismatch(t *testing.T) {
	classifier, err := FromArtifact(zeroArtifact())
	require.NoError(t, err)

	_, err = classifier.Predict(domain.FeatureVector{1, 2, 3})

	var shapeErr *domain.ShapeMismatchError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, 6, shapeErr.Expected)
	assert.Equal(t, 3, shapeErr.Actual)
}

func TestPredict_Deterministic(t *testing.T) {
	classifier, err := FromArtifact(passthroughArtifact(domain.FeatRateOfChange))
	require.NoError(t, err)

	vector := domain.FeatureVector{120, 110, 4, 100, 9, 2.5}
	first, err := classifier.Predict(vector)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := classifier.Predict(vector)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPredict_OutputInUnitInterval(t *testing.T) {
	classifier, err := FromArtifact(passthroughArtifact(domain.FeatCurrent))
	require.NoError(t, err)

	for _, v := range []float64{-1e6, -3, 0, 0.5, 42, 1e6} {
		prob, err := classifier.Predict(domain.FeatureVector{v, 0, 0, 0, 0, 0})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, prob, 0.0)
		assert.LessOrEqual(t, prob, 1.0)
	}
}

func TestPredict_MonotoneInPassthroughFeature(t *testing.T) {
	classifier, err := FromArtifact(passthroughArtifact(domain.FeatRateOfChange))
	require.NoError(t, err)

	prev := -1.0
	for _, rate := range []float64{0, 1, 10, 100, 400, 1000} {
		prob, err := classifier.Predict(domain.FeatureVector{100, 100, 0, 100, 0, rate})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, prob, prev, "rate %g", rate)
		prev = prob
	}
}

func TestLoadScaler(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		path := writeArtifact(t, ScalerArtifact{
			Mean: []float64{1, 2, 3, 4, 5, 6},
			Std:  []float64{1, 1, 1, 1, 1, 1},
		})
		params, err := LoadScaler(path)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, params.Mean)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadScaler(filepath.Join(t.TempDir(), "nope.json"))
		var loadErr *domain.ModelLoadError
		require.ErrorAs(t, err, &loadErr)
	})

	t.Run("corrupt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scaler.json")
		require.NoError(t, os.WriteFile(path, []byte("[1,2"), 0o644))
		_, err := LoadScaler(path)
		var loadErr *domain.ModelLoadError
		require.ErrorAs(t, err, &loadErr)
	})

	t.Run("wrong length", func(t *testing.T) {
		path := writeArtifact(t, ScalerArtifact{Mean: []float64{1}, Std: []float64{1}})
		_, err := LoadScaler(path)
		var loadErr *domain.ModelLoadError
		require.ErrorAs(t, err, &loadErr)

		var paramsErr *domain.InvalidParamsError
		assert.ErrorAs(t, err, &paramsErr)
	})

	t.Run("zero std", func(t *testing.T) {
		path := writeArtifact(t, ScalerArtifact{
			Mean: []float64{0, 0, 0, 0, 0, 0},
			Std:  []float64{1, 1, 0, 1, 1, 1},
		})
		_, err := LoadScaler(path)
		var loadErr *domain.ModelLoadError
		require.ErrorAs(t, err, &loadErr)
	})
}
