package pipeline

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyInput is returned by Load when the decoded file has no rows.
	// Callers show an empty-state message rather than an error.
	ErrEmptyInput = errors.New("the file is empty or has no data rows")

	// ErrNoData is returned when an operation needs loaded data and the
	// pipeline is Empty.
	ErrNoData = errors.New("no data loaded")

	// ErrConcurrentEdit is returned by BeginEdit while another session is open.
	ErrConcurrentEdit = errors.New("an edit session is already open")

	// ErrSessionClosed is returned when a session is used after CloseEdit or
	// after a new Load replaced the data it was editing.
	ErrSessionClosed = errors.New("edit session is not active")

	// ErrUnknownRecord is returned when a record is not part of the loaded data.
	ErrUnknownRecord = errors.New("record does not belong to the loaded data")

	// ErrEditInProgress is returned by Submit while an edit session is open.
	ErrEditInProgress = errors.New("an edit session must be closed before submitting")

	// ErrFieldCollision is returned by Load when two distinct column headers
	// share the same internal key.
	ErrFieldCollision = errors.New("column headers collide after normalization")

	// ErrSubmissionFailed matches every *SubmissionError.
	ErrSubmissionFailed = errors.New("submission failed")
)

// SubmissionError reports a failed submission. The loaded data is left intact
// so the caller may retry without re-reading the file.
type SubmissionError struct {
	// StatusCode is the HTTP status returned by the endpoint, or 0 when the
	// request never produced a response.
	StatusCode int

	// Err is the underlying transport error.
	Err error
}

// Error implements the error interface.
func (e *SubmissionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("submission failed with status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("submission failed: %v", e.Err)
}

// Unwrap returns the underlying transport error.
func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrSubmissionFailed) true for any SubmissionError.
func (e *SubmissionError) Is(target error) bool {
	return target == ErrSubmissionFailed
}
