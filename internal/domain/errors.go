package domain

import (
	"errors"
	"fmt"
)

// Invalid-input errors are raised at construction time of a plan or
// holding, never deep inside the engines.
var (
	ErrInvalidHolding = errors.New("invalid holding")
	ErrInvalidPlan    = errors.New("invalid plan")
	ErrEndBeforeStart = fmt.Errorf("%w: end before start", ErrInvalidPlan)
)

// TransportError marks a price-source failure that is worth retrying,
// as opposed to a confirmed "no price exists for this date" result
// which price sources signal with ok=false and no error. Engines
// propagate transport failures instead of zero-filling, so callers
// decide whether to retry or degrade.
type TransportError struct {
	Symbol string
	Op     string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("price source %s failed for %s: %v", e.Op, e.Symbol, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
