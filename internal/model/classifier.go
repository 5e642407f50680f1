// Package model loads the frozen flood classifier and scaler artifacts and
// runs the forward pass. The network architecture is fixed: 6 input features,
// two hidden ReLU layers of 64 and 32 units, and a single sigmoid output.
// Artifacts are validated eagerly at load so a bad deployment fails at
// startup, not on the first request.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"gonum.org/v1/gonum/mat"
)

// Fixed network dimensions. Weight artifacts must match exactly.
var architecture = []int{domain.FeatureCount, 64, 32, 1}

// WeightsArtifact is the serialized form of the classifier weights.
type WeightsArtifact struct {
	Architecture []int           `json:"architecture"`
	Layers       []LayerArtifact `json:"layers"`
}

// LayerArtifact holds one dense layer. Weights are row-major with one row
// per output unit.
type LayerArtifact struct {
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// ScalerArtifact is the serialized form of the standardization parameters.
type ScalerArtifact struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

type layer struct {
	weights *mat.Dense
	bias    *mat.VecDense
}

// Classifier is the frozen feedforward network. Immutable after
// construction, so concurrent Predict calls need no locking.
type Classifier struct {
	layers []layer
}

// LoadClassifier reads and validates a weights artifact. Any failure is a
// ModelLoadError naming the artifact path.
func LoadClassifier(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ModelLoadError{Path: path, Reason: "read artifact", Err: err}
	}

	var artifact WeightsArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, &domain.ModelLoadError{Path: path, Reason: "decode artifact", Err: err}
	}

	classifier, err := FromArtifact(artifact)
	if err != nil {
		return nil, &domain.ModelLoadError{Path: path, Reason: "validate artifact", Err: err}
	}
	return classifier, nil
}

// FromArtifact builds a Classifier from a decoded artifact, checking every
// dimension against the fixed architecture.
func FromArtifact(artifact WeightsArtifact) (*Classifier, error) {
	if len(artifact.Architecture) != len(architecture) {
		return nil, fmt.Errorf("architecture has %d entries, want %d", len(artifact.Architecture), len(architecture))
	}
	for i, want := range architecture {
		if artifact.Architecture[i] != want {
			return nil, fmt.Errorf("architecture %v does not match fixed %v", artifact.Architecture, architecture)
		}
	}
	if len(artifact.Layers) != len(architecture)-1 {
		return nil, fmt.Errorf("artifact has %d layers, want %d", len(artifact.Layers), len(architecture)-1)
	}

	layers := make([]layer, len(artifact.Layers))
	for i, la := range artifact.Layers {
		in, out := architecture[i], architecture[i+1]
		l, err := buildLayer(la, in, out)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		layers[i] = l
	}
	return &Classifier{layers: layers}, nil
}

func buildLayer(artifact LayerArtifact, in, out int) (layer, error) {
	if len(artifact.Weights) != out {
		return layer{}, fmt.Errorf("weights have %d rows, want %d", len(artifact.Weights), out)
	}
	if len(artifact.Bias) != out {
		return layer{}, fmt.Errorf("bias has %d entries, want %d", len(artifact.Bias), out)
	}

	flat := make([]float64, 0, out*in)
	for r, row := range artifact.Weights {
		if len(row) != in {
			return layer{}, fmt.Errorf("weights row %d has %d columns, want %d", r, len(row), in)
		}
		flat = append(flat, row...)
	}

	return layer{
		weights: mat.NewDense(out, in, flat),
		bias:    mat.NewVecDense(out, append([]float64(nil), artifact.Bias...)),
	}, nil
}

// Predict runs the forward pass: linear, ReLU, linear, ReLU, linear,
// sigmoid. Deterministic for fixed weights; the output is always in [0, 1].
func (c *Classifier) Predict(vector domain.FeatureVector) (float64, error) {
	if len(vector) != domain.FeatureCount {
		return 0, &domain.ShapeMismatchError{Expected: domain.FeatureCount, Actual: len(vector)}
	}

	activation := mat.NewVecDense(len(vector), append([]float64(nil), vector...))
	for i, l := range c.layers {
		next := mat.NewVecDense(l.bias.Len(), nil)
		next.MulVec(l.weights, activation)
		next.AddVec(next, l.bias)

		if i < len(c.layers)-1 {
			relu(next)
		}
		activation = next
	}

	return sigmoid(activation.AtVec(0)), nil
}

func relu(v *mat.VecDense) {
	for i := 0; i < v.Len(); i++ {
		if v.AtVec(i) < 0 {
			v.SetVec(i, 0)
		}
	}
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
