package insight

import (
	"errors"
	"fmt"
)

// Error represents a failure of a facade operation.
//
// Facade errors include:
//   - Invalid or unknown dataset identifiers
//   - Archives that cannot yield a valid dataset
//   - Queries that are malformed or invalid for their dataset
//   - Queries whose result would exceed the result cap
//
// Error includes structured fields for diagnostics and recovery.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// DatasetID identifies the affected dataset, when one applies.
	DatasetID string

	// Err is the underlying cause, when one exists.
	Err error
}

// ErrorCode categorizes facade errors.
type ErrorCode string

const (
	// ErrCodeInvalidID indicates a dataset id that is empty, blank, or
	// contains an underscore.
	ErrCodeInvalidID ErrorCode = "INVALID_ID"

	// ErrCodeDuplicateDataset indicates an add with an id already in use.
	ErrCodeDuplicateDataset ErrorCode = "DUPLICATE_DATASET"

	// ErrCodeUnsupportedArchive indicates content that is not a usable
	// archive of the declared kind.
	ErrCodeUnsupportedArchive ErrorCode = "UNSUPPORTED_ARCHIVE"

	// ErrCodeEmptyDataset indicates an archive with no valid records.
	ErrCodeEmptyDataset ErrorCode = "EMPTY_DATASET"

	// ErrCodeMalformedQuery indicates a query that fails parsing or
	// validation.
	ErrCodeMalformedQuery ErrorCode = "MALFORMED_QUERY"

	// ErrCodeResultTooLarge indicates a query whose pre-ordering result
	// exceeds MaxResults.
	ErrCodeResultTooLarge ErrorCode = "RESULT_TOO_LARGE"

	// ErrCodeDatasetNotFound indicates an operation on an id that is not
	// currently added.
	ErrCodeDatasetNotFound ErrorCode = "DATASET_NOT_FOUND"

	// ErrCodeStorage indicates a persistence failure.
	ErrCodeStorage ErrorCode = "STORAGE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.DatasetID != "" {
		return fmt.Sprintf("%s: %s (dataset=%s)", e.Code, e.Message, e.DatasetID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the facade error code, or "" for foreign errors.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// IsNotFound returns true if the error reports an unknown dataset id.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeDatasetNotFound
}

// IsResultTooLarge returns true if the error reports a result over the cap.
func IsResultTooLarge(err error) bool {
	return CodeOf(err) == ErrCodeResultTooLarge
}

func newInvalidIDError(id string) *Error {
	return &Error{
		Code:      ErrCodeInvalidID,
		Message:   "dataset id must be non-blank and free of underscores",
		DatasetID: id,
	}
}

func newDuplicateError(id string) *Error {
	return &Error{
		Code:      ErrCodeDuplicateDataset,
		Message:   "dataset id already added",
		DatasetID: id,
	}
}

func newNotFoundError(id string) *Error {
	return &Error{
		Code:      ErrCodeDatasetNotFound,
		Message:   "dataset not added",
		DatasetID: id,
	}
}

func newResultTooLargeError(n, max int) *Error {
	return &Error{
		Code:    ErrCodeResultTooLarge,
		Message: fmt.Sprintf("query matched %d records, over the %d cap", n, max),
	}
}

func newMalformedQueryError(err error) *Error {
	return &Error{
		Code:    ErrCodeMalformedQuery,
		Message: err.Error(),
		Err:     err,
	}
}

func newStorageError(id string, err error) *Error {
	return &Error{
		Code:      ErrCodeStorage,
		Message:   err.Error(),
		DatasetID: id,
		Err:       err,
	}
}
