package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, ErrorCategoryNetwork, "X", "svc", "op", true))

	cause := errors.New("boom")
	wrapped := WrapError(cause, ErrorCategoryDatabase, "QUERY_FAILED", "Source", "List", false)
	require.NotNil(t, wrapped)
	assert.Equal(t, "[database:QUERY_FAILED] boom", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)

	inner := NewServiceError(ErrorCategoryNetwork, "HTTP_503", "unavailable", "Client", "get", true, nil)
	rewrapped := WrapError(fmt.Errorf("fetch: %w", inner), ErrorCategoryProcessing, "IGNORED", "Pipeline", "Refresh", false)
	assert.Same(t, inner, rewrapped)
	assert.Equal(t, "Pipeline", rewrapped.ServiceName)
	assert.Equal(t, ErrorCategoryNetwork, rewrapped.Category)
}

func TestServiceErrorLogError(t *testing.T) {
	hook := logtest.NewGlobal()
	defer logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))

	cause := errors.New("boom")
	NewServiceError(ErrorCategoryProcessing, "SNAPSHOT_REFRESH_FAILED", "boom", "RefreshJob", "Run", true, cause).
		WithDetails(map[string]interface{}{"elapsed": "2s"}).
		LogError()

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "SNAPSHOT_REFRESH_FAILED", entry.Data["error_code"])
	assert.Equal(t, "RefreshJob", entry.Data["service_name"])
	assert.Equal(t, map[string]interface{}{"elapsed": "2s"}, entry.Data["details"])
	assert.Equal(t, cause, entry.Data["underlying_error"])
}

func TestIsInvalidInput(t *testing.T) {
	assert.True(t, IsInvalidInput(NewInvalidInputError("Transformer", "Transform", "raw ipo is nil")))
	assert.True(t, IsInvalidInput(fmt.Errorf("wrapped: %w", ErrInvalidInput)))
	assert.False(t, IsInvalidInput(errors.New("invalid input")))
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"retryable service error", NewServiceError(ErrorCategoryNetwork, "HTTP_503", "x", "s", "o", true, nil), true},
		{"final service error", NewServiceError(ErrorCategoryNetwork, "HTTP_404", "x", "s", "o", false, nil), false},
		{"timeout text", errors.New("i/o timeout"), true},
		{"unexpected eof", errors.New("unexpected EOF"), true},
		{"plain", errors.New("bad request"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(tt.err))
		})
	}
}

func TestBuildBatchErrorSummary(t *testing.T) {
	errs := []error{errors.New("a"), errors.New("b"), errors.New("c"), errors.New("d")}

	assert.Equal(t, "batch completed with 6 successes and 0 failures", BuildBatchErrorSummary(6, 0, nil))
	assert.Equal(t, "batch completed with 1 successes and 2 failures; a; b", BuildBatchErrorSummary(1, 2, errs[:2]))
	assert.Equal(t, "batch completed with 0 successes and 5 failures; a; b; c; and 2 additional errors", BuildBatchErrorSummary(0, 5, errs))
}
