package lens

import (
	"errors"
	"fmt"
)

// Error is the error type returned by every Lens operation.
//
// Errors fall into three groups:
//   - Construction: the target entity is unknown
//   - Malformed chain: a call sequence that cannot form a clause
//   - Execution: the store failed to run the compiled query
//
// Construction and chain errors are recorded at the call that caused them.
// Execution errors surface once, from the terminal call.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Entity is the target entity, when known.
	Entity string

	// Field is the field the error concerns, when there is one.
	Field string

	// Err is the underlying cause (store or validation error).
	Err error
}

// ErrorCode categorizes Lens errors.
type ErrorCode string

const (
	// ErrCodeUnknownEntity indicates the store has no such entity.
	ErrCodeUnknownEntity ErrorCode = "UNKNOWN_ENTITY"

	// ErrCodeInvalidField indicates a field or sort key is not an identifier.
	ErrCodeInvalidField ErrorCode = "INVALID_FIELD"

	// ErrCodeLeadingCompound indicates And/Or was used before any Find.
	ErrCodeLeadingCompound ErrorCode = "LEADING_COMPOUND"

	// ErrCodeDanglingComparison indicates a comparison with no field to apply to.
	ErrCodeDanglingComparison ErrorCode = "DANGLING_COMPARISON"

	// ErrCodeComparisonAlreadySet indicates a second comparison on the same field.
	ErrCodeComparisonAlreadySet ErrorCode = "COMPARISON_ALREADY_SET"

	// ErrCodeIncompleteClause indicates a field was never given a comparison.
	ErrCodeIncompleteClause ErrorCode = "INCOMPLETE_CLAUSE"

	// ErrCodeInvalidValue indicates a value the comparison cannot take.
	ErrCodeInvalidValue ErrorCode = "INVALID_VALUE"

	// ErrCodeUnknownField indicates the entity has no such field.
	ErrCodeUnknownField ErrorCode = "UNKNOWN_FIELD"

	// ErrCodeKindMismatch indicates a value of the wrong kind for its field.
	ErrCodeKindMismatch ErrorCode = "KIND_MISMATCH"

	// ErrCodeRequestExecuted indicates a request was changed after it ran.
	ErrCodeRequestExecuted ErrorCode = "REQUEST_EXECUTED"

	// ErrCodeNoStore indicates execution without a store.
	ErrCodeNoStore ErrorCode = "NO_STORE"

	// ErrCodeExecutionFailed indicates the store failed to run the query.
	ErrCodeExecutionFailed ErrorCode = "EXECUTION_FAILED"

	// ErrCodeDecodeFailed indicates a record could not be decoded into the result type.
	ErrCodeDecodeFailed ErrorCode = "DECODE_FAILED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.Entity != "" && e.Field != "":
		msg += fmt.Sprintf(" (entity=%s, field=%s)", e.Entity, e.Field)
	case e.Entity != "":
		msg += fmt.Sprintf(" (entity=%s)", e.Entity)
	case e.Field != "":
		msg += fmt.Sprintf(" (field=%s)", e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// IsUnknownEntity returns true if the error is an unknown entity error.
// Uses errors.As to handle wrapped errors.
func IsUnknownEntity(err error) bool {
	return CodeOf(err) == ErrCodeUnknownEntity
}

// IsDanglingComparison returns true if a comparison was issued before any field.
func IsDanglingComparison(err error) bool {
	return CodeOf(err) == ErrCodeDanglingComparison
}

// IsExecutionFailed returns true if the store failed to run the query.
// The store's error is available through errors.Unwrap.
func IsExecutionFailed(err error) bool {
	return CodeOf(err) == ErrCodeExecutionFailed
}

// IsMalformedChain returns true for errors caused by the shape of the call
// chain rather than by the store.
func IsMalformedChain(err error) bool {
	switch CodeOf(err) {
	case ErrCodeInvalidField, ErrCodeLeadingCompound, ErrCodeDanglingComparison,
		ErrCodeComparisonAlreadySet, ErrCodeIncompleteClause, ErrCodeInvalidValue,
		ErrCodeUnknownField, ErrCodeKindMismatch, ErrCodeRequestExecuted:
		return true
	}
	return false
}

func newError(code ErrorCode, entity, field, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Entity:  entity,
		Field:   field,
	}
}
