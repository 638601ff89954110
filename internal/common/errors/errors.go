// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeRequestValidationFailed ErrorCode = "REQUEST_VALIDATION_FAILED"
	ErrCodeRequestExpired          ErrorCode = "REQUEST_EXPIRED"

	ErrCodeDirectoryQueryFailed   ErrorCode = "DIRECTORY_QUERY_FAILED"
	ErrCodeDirectoryQueryTimeout  ErrorCode = "DIRECTORY_QUERY_TIMEOUT"
	ErrCodeDirectoryIndexNotFound ErrorCode = "DIRECTORY_INDEX_NOT_FOUND"
	ErrCodeProviderHydrateFailed  ErrorCode = "PROVIDER_HYDRATE_FAILED"

	ErrCodeMatchConfigInvalid ErrorCode = "MATCH_CONFIG_INVALID"
	ErrCodeMatchFailed        ErrorCode = "MATCH_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// New builds a StandardError stamped with the current time.
func New(code ErrorCode, message string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// Wrap builds a StandardError carrying the underlying error as detail.
func Wrap(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	e := New(code, message, retryable)
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ConvertToBPMNError maps a StandardError onto a throwable BPMN error.
func ConvertToBPMNError(err *StandardError) *BPMNError {
	return &BPMNError{
		Code:      string(err.Code),
		Message:   err.Message,
		Details:   err.Details,
		Retryable: err.Retryable,
		Retries:   GetRetryCount(err.Code),
		ErrorVariables: map[string]interface{}{
			"failedAt": err.Timestamp.Format(time.RFC3339),
		},
	}
}

// retryCounts is the per-code retry budget for transient failures.
// Configuration and validation errors never retry: re-running them
// cannot change the outcome.
var retryCounts = map[ErrorCode]int{
	ErrCodeDirectoryQueryFailed:     3,
	ErrCodeDirectoryQueryTimeout:    2,
	ErrCodeProviderHydrateFailed:    2,
	ErrCodeNotificationSendFailed:   3,
	ErrCodeDatabaseConnectionFailed: 3,
	ErrCodeQueryExecutionFailed:     1,
}

// GetRetryCount returns how many times a failed job with this code
// should be retried before the error is thrown to the workflow.
func GetRetryCount(code ErrorCode) int {
	return retryCounts[code]
}
