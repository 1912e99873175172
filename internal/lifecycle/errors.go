package lifecycle

import (
	"errors"
	"fmt"

	"github.com/iliyamo/restaurant-pos/internal/repository"
)

// Failure kinds.  Every error returned by the Controller is an *Error whose
// Kind is one of these, so callers match with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrPartialFailure     = errors.New("partial failure")
)

// Error carries a failure kind and an operator facing message.
type Error struct {
	Kind    error
	Message string
	// Batch is set for ErrPartialFailure and names the failing step.
	Batch *BatchError
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// BatchError describes the step of an order batch that failed.  Applied is
// the number of steps that had been written before the failure.
type BatchError struct {
	Step    int    `json:"step"`
	Op      string `json:"op"`
	OrderID uint64 `json:"order_id,omitempty"`
	Applied int    `json:"applied"`
}

func validationf(format string, args ...interface{}) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...interface{}) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func preconditionf(format string, args ...interface{}) error {
	return &Error{Kind: ErrPreconditionFailed, Message: fmt.Sprintf(format, args...)}
}

func tableNotFound(id string) error { return notFoundf("table %s does not exist", id) }

// fromBatch translates an order ledger batch error.  A batch rejected
// before any write keeps the kind of its cause; one that stopped after
// writing is a partial failure.
func fromBatch(err error) error {
	var se *repository.StepError
	if !errors.As(err, &se) {
		return err
	}
	if se.Applied > 0 {
		return &Error{
			Kind:    ErrPartialFailure,
			Message: fmt.Sprintf("order edit stopped at %s; %d earlier steps were saved", se.Error(), se.Applied),
			Batch:   &BatchError{Step: se.Step + 1, Op: string(se.Op), OrderID: se.OrderID, Applied: se.Applied},
		}
	}
	if errors.Is(se.Err, repository.ErrOrderNotFound) {
		return notFoundf("order %d does not exist", se.OrderID)
	}
	return preconditionf("order edit rejected at %s", se.Error())
}
