package predictor

import "fmt"

// PredictError is a custom error type for predictor setup errors.
// Prediction itself is total: malformed snapshots degrade to empty
// results rather than errors.
type PredictError struct {
	Message string
}

func (e PredictError) Error() string {
	return fmt.Sprintf("predictor error: %s", e.Message)
}

// ErrInvalidConfig creates an error for invalid configuration
func ErrInvalidConfig(msg string) error {
	return PredictError{Message: fmt.Sprintf("invalid config: %s", msg)}
}
