package engine

import (
	"errors"
	"fmt"
)

// SnapError describes a condition detected during a run.
//
// Only EXTERNAL_SERVICE_FAILURE and STATE_VIOLATION abort a run. The other
// codes are counted in Result and, for per-line conditions, listed in
// Result.Warnings.
type SnapError struct {
	// Code identifies the condition.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// LineID is the affected line, zero when not line-specific.
	LineID int64

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes snap errors.
type ErrorCode string

const (
	// ErrCodeMultipart marks a line with more than one part; it was truncated.
	ErrCodeMultipart ErrorCode = "MULTIPART_GEOMETRY"

	// ErrCodeShortSegment marks a line deleted for being below the minimum length.
	ErrCodeShortSegment ErrorCode = "SHORT_SEGMENT"

	// ErrCodeInvalidGeometry marks a line deleted for degenerate geometry.
	ErrCodeInvalidGeometry ErrorCode = "INVALID_GEOMETRY"

	// ErrCodeUnresolvedNeighborhood marks a neighborhood where nothing snapped.
	ErrCodeUnresolvedNeighborhood ErrorCode = "UNRESOLVED_NEIGHBORHOOD"

	// ErrCodeExternalFailure wraps a store or proximity index failure.
	ErrCodeExternalFailure ErrorCode = "EXTERNAL_SERVICE_FAILURE"

	// ErrCodeStateViolation means the tracker rejected a status transition.
	ErrCodeStateViolation ErrorCode = "STATE_VIOLATION"
)

// Error implements the error interface.
func (e *SnapError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.LineID != 0 {
		msg = fmt.Sprintf("%s (line=%d)", msg, e.LineID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *SnapError) Unwrap() error {
	return e.Err
}

// Fatal reports whether the condition aborts a run.
func (e *SnapError) Fatal() bool {
	return e.Code == ErrCodeExternalFailure || e.Code == ErrCodeStateViolation
}

func hasCode(err error, code ErrorCode) bool {
	var se *SnapError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsExternalFailure reports whether err is a store or index failure.
func IsExternalFailure(err error) bool {
	return hasCode(err, ErrCodeExternalFailure)
}

// IsStateViolation reports whether err is a rejected status transition.
func IsStateViolation(err error) bool {
	return hasCode(err, ErrCodeStateViolation)
}

// NewExternalFailure wraps a collaborator error.
func NewExternalFailure(op string, lineID int64, err error) *SnapError {
	return &SnapError{
		Code:    ErrCodeExternalFailure,
		Message: op,
		LineID:  lineID,
		Err:     err,
	}
}

// NewStateViolation wraps a tracker error.
func NewStateViolation(lineID int64, err error) *SnapError {
	return &SnapError{
		Code:    ErrCodeStateViolation,
		Message: "status transition rejected",
		LineID:  lineID,
		Err:     err,
	}
}

// NewMultipartWarning records a truncated multipart line.
func NewMultipartWarning(lineID int64, parts int) *SnapError {
	return &SnapError{
		Code:    ErrCodeMultipart,
		Message: fmt.Sprintf("line has %d parts, extra parts trimmed", parts),
		LineID:  lineID,
	}
}

// NewInvalidGeometry records a line deleted for degenerate geometry.
func NewInvalidGeometry(lineID int64) *SnapError {
	return &SnapError{
		Code:    ErrCodeInvalidGeometry,
		Message: "line has no first part with two or more vertices",
		LineID:  lineID,
	}
}
