package explain

import (
	"errors"
	"fmt"
)

// Sentinel errors for precondition failures. Both are detected eagerly,
// before any scorer call, and abort the whole operation.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidFeature = errors.New("invalid feature")
)

// ScorerError wraps a failure raised by the caller-supplied scoring
// function. The engines never swallow scorer failures; partially
// accumulated trials or grid points are discarded.
type ScorerError struct {
	Feature   string // feature being explained, "" for the baseline pass
	Trial     int    // permutation repeat index, -1 when not applicable
	GridIndex int    // grid point index, -1 when not applicable
	Err       error
}

func (e *ScorerError) Error() string {
	switch {
	case e.Feature == "":
		return fmt.Sprintf("scorer failed on baseline pass: %v", e.Err)
	case e.Trial >= 0:
		return fmt.Sprintf("scorer failed on feature %q repeat %d: %v", e.Feature, e.Trial, e.Err)
	case e.GridIndex >= 0:
		return fmt.Sprintf("scorer failed on feature %q grid point %d: %v", e.Feature, e.GridIndex, e.Err)
	default:
		return fmt.Sprintf("scorer failed on feature %q: %v", e.Feature, e.Err)
	}
}

func (e *ScorerError) Unwrap() error { return e.Err }
