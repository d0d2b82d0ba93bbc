package engine

import (
	"errors"
	"fmt"
)

// EngineError represents a typed failure of an engine operation.
//
// The taxonomy:
//   - Validation failure: caller-correctable input problem, raised before
//     any persistence.
//   - Precondition failure: a referenced entity is missing or in the
//     wrong state.
//   - Guard refusal: the operation is well-formed but policy forbids it
//     (historical edits with too large a cascade blast radius).
//   - Invariant violation: a should-never-happen inconsistency; the
//     transaction is aborted and the error surfaces loudly.
type EngineError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// ResultID identifies the affected result, when there is one.
	ResultID string

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeValidation indicates caller-correctable bad input.
	ErrCodeValidation ErrorCode = "VALIDATION_FAILED"

	// ErrCodePrecondition indicates a missing or mismatched referenced entity.
	ErrCodePrecondition ErrorCode = "PRECONDITION_FAILED"

	// ErrCodeGuardRefused indicates the historical-edit policy refused the
	// operation outright.
	ErrCodeGuardRefused ErrorCode = "GUARD_REFUSED"

	// ErrCodeInvariant indicates a should-never-happen inconsistency.
	ErrCodeInvariant ErrorCode = "INVARIANT_VIOLATION"
)

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.ResultID != "" {
		return fmt.Sprintf("%s: %s (result=%s)", e.Code, e.Message, e.ResultID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, resultID, format string, args ...any) *EngineError {
	return &EngineError{Code: code, ResultID: resultID, Message: fmt.Sprintf(format, args...)}
}

// IsValidation returns true for validation failures.
// Uses errors.As to handle wrapped errors.
func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

// IsPrecondition returns true for precondition failures.
func IsPrecondition(err error) bool {
	return hasCode(err, ErrCodePrecondition)
}

// IsGuardRefusal returns true for guard policy refusals.
func IsGuardRefusal(err error) bool {
	return hasCode(err, ErrCodeGuardRefused)
}

// IsInvariant returns true for invariant violations.
func IsInvariant(err error) bool {
	return hasCode(err, ErrCodeInvariant)
}

func hasCode(err error, code ErrorCode) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}
