package evaluation

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized    = errors.New("authentication required")
	ErrForbidden       = errors.New("not allowed")
	ErrLocked          = errors.New("evaluation is locked")
	ErrNotFound        = errors.New("evaluation not found")
	ErrInvalidWeights  = errors.New("task weights must total 100")
	ErrInvalidState    = errors.New("transition not allowed from current status")
	ErrInvalidDecision = errors.New("unknown review decision")
	ErrInvalidPeriod   = errors.New("invalid evaluation period")
	ErrInvalidScore    = errors.New("scores must be between 0 and 100")
	ErrUnknownTask     = errors.New("score references a task outside this evaluation")
	ErrConflict        = errors.New("evaluation was modified concurrently")
)

// WeightError carries the offending total. errors.Is matches ErrInvalidWeights.
type WeightError struct {
	Total float64
}

func (e *WeightError) Error() string {
	return fmt.Sprintf("task weights must total %d (got %.2f)", WeightTarget, e.Total)
}

func (e *WeightError) Is(target error) bool {
	return target == ErrInvalidWeights
}
