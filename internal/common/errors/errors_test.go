// internal/common/errors/errors_test.go
package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapCarriesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCodeDirectoryQueryFailed, "directory query failed", cause, true)

	assert.Equal(t, ErrCodeDirectoryQueryFailed, err.Code)
	assert.Equal(t, "connection refused", err.Details)
	assert.True(t, err.Retryable)
	assert.False(t, err.Timestamp.IsZero())
	assert.Contains(t, err.Error(), "DIRECTORY_QUERY_FAILED")
}

func TestConvertToBPMNError(t *testing.T) {
	stdErr := New(ErrCodeNotificationSendFailed, "all channels failed", true)

	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "NOTIFICATION_SEND_FAILED", bpmnErr.Code)
	assert.Equal(t, 3, bpmnErr.Retries)
	assert.True(t, bpmnErr.Retryable)

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "NOTIFICATION_SEND_FAILED", vars["errorCode"])
	require.Contains(t, vars, "failedAt")
}

func TestGetRetryCount(t *testing.T) {
	tests := []struct {
		code    ErrorCode
		retries int
	}{
		{ErrCodeDirectoryQueryFailed, 3},
		{ErrCodeDirectoryQueryTimeout, 2},
		{ErrCodeQueryExecutionFailed, 1},
		{ErrCodeMatchConfigInvalid, 0},
		{ErrCodeRequestValidationFailed, 0},
		{ErrCodeInternal, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.retries, GetRetryCount(tt.code))
		})
	}
}
