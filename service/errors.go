package service

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidState    = errors.New("no fitted model, call fit first")
	ErrFeatureMismatch = errors.New("prediction features do not match the fitted model")
	ErrTrainingFailure = errors.New("training failure")
)

// Error kinds reported by Kind
const (
	KindOK              = "ok"
	KindInvalidInput    = "invalid_input"
	KindInvalidState    = "invalid_state"
	KindFeatureMismatch = "feature_mismatch"
	KindTrainingFailure = "training_failure"
	KindInternal        = "internal"
)

// Kind classifies an error returned by the service into a stable string
func Kind(err error) string {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrFeatureMismatch):
		return KindFeatureMismatch
	case errors.Is(err, ErrTrainingFailure):
		return KindTrainingFailure
	default:
		return KindInternal
	}
}
