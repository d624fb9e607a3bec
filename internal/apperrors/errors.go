package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks before any mutation.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInvalidState indicates the operation is not legal for the entry's current status.
var ErrInvalidState = errors.New("operation not allowed in current state")

// ErrPeriodClosed indicates the target date falls inside a closed fiscal period.
var ErrPeriodClosed = errors.New("fiscal period is closed")

// ErrUnbalanced indicates total debits and credits of an entry disagree.
var ErrUnbalanced = errors.New("entry debits and credits do not balance")

// ErrAlreadyPosted indicates a post was attempted on an entry that is not a draft.
var ErrAlreadyPosted = errors.New("entry is already posted")

// ErrAlreadyReversed indicates a reversal was attempted on an already reversed entry.
var ErrAlreadyReversed = errors.New("entry is already reversed")

// ErrDateOrder indicates a reversal or auto-reverse date precedes the source entry date.
var ErrDateOrder = errors.New("date precedes source entry date")

// ErrUnbalancedWorkspace indicates a working trial balance lock was attempted
// while adjusted debit and credit totals disagree.
var ErrUnbalancedWorkspace = errors.New("workspace adjusted totals do not balance")

// ErrLockedWorkspace indicates a mutation was attempted on a locked workspace.
var ErrLockedWorkspace = errors.New("workspace is locked")

// ErrImbalance indicates the ledger itself failed a consistency check.
// This is not recoverable by the caller; it means the posting atomicity
// guarantee was violated somewhere and must reach an operator.
var ErrImbalance = errors.New("ledger imbalance detected")

// AppError wraps infrastructure failures with an HTTP-ish status code and a
// human readable message while preserving the underlying cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
