package estimator

import (
	"errors"
	"fmt"
)

// Exported variables.
var (
	ErrRemainingExceedsTotal = errors.New("remaining work exceeds total")
)

// RemainingExceedsTotalError records the numbers behind an ErrRemainingExceedsTotal.
// It usually means the read raced a state change such as a disconnect during sync.
type RemainingExceedsTotalError struct {
	Kind      OperationKind
	Remaining WorkUnit
	Total     WorkUnit
	Failed    WorkUnit
}

func (e *RemainingExceedsTotalError) Error() string {
	return fmt.Sprintf("cs:%s rs_left=%d > rs_total=%d (rs_failed %d)", e.Kind, e.Remaining, e.Total, e.Failed)
}

// Unwrap lets errors.Is match ErrRemainingExceedsTotal.
func (e *RemainingExceedsTotalError) Unwrap() error {
	return ErrRemainingExceedsTotal
}
