package domain

import "fmt"

// InsufficientDataError reports an observation series too short for feature
// extraction. Required and Actual let callers tell the user exactly how much
// data is missing.
type InsufficientDataError struct {
	Required int
	Actual   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need at least %d observations, got %d", e.Required, e.Actual)
}

// InvalidParamsError reports scaler parameters that cannot be applied:
// a length mismatch against the feature vector or a non-positive standard
// deviation entry.
type InvalidParamsError struct {
	Reason string
}

func (e *InvalidParamsError) Error() string {
	return "invalid scaler params: " + e.Reason
}

// ShapeMismatchError reports a vector whose width does not match what a
// consumer expects.
type ShapeMismatchError struct {
	Expected int
	Actual   int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: expected width %d, got %d", e.Expected, e.Actual)
}

// ModelLoadError reports a missing, corrupt, or shape-incompatible model
// artifact. It is raised at startup, before any prediction is attempted.
type ModelLoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ModelLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load model artifact %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("load model artifact %s: %s", e.Path, e.Reason)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// InvalidProbabilityError reports a probability outside [0, 1]. The
// categorizer checks this even though a sigmoid output cannot violate it;
// the probability crosses a trust boundary between model output and
// user-facing labels.
type InvalidProbabilityError struct {
	Probability float64
}

func (e *InvalidProbabilityError) Error() string {
	return fmt.Sprintf("probability %g outside [0, 1]", e.Probability)
}
