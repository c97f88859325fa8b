package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolGraphError_Unwrap_PreservesOriginalError(t *testing.T) {
	originalErr := errors.New("original error")

	sgErr := New(ErrCodeFileNotFound, "file not found: test.go", originalErr)

	require.NotNil(t, sgErr)
	assert.Equal(t, originalErr, errors.Unwrap(sgErr))
	assert.True(t, errors.Is(sgErr, originalErr))
}

func TestSymbolGraphError_Error_ReturnsFormattedMessage(t *testing.T) {
	err := New(ErrCodeSchemaVersion, "index schema is newer than this binary", nil)
	assert.Equal(t, "[ERR_204_SCHEMA_VERSION_MISMATCH] index schema is newer than this binary", err.Error())
}

func TestSymbolGraphError_Is_MatchesByCode(t *testing.T) {
	a := New(ErrCodeFileNotFound, "a", nil)
	b := New(ErrCodeFileNotFound, "b", nil)
	c := New(ErrCodeInternal, "c", nil)

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestCategoryFromCode(t *testing.T) {
	assert.Equal(t, CategoryIO, New(ErrCodeFileNotFound, "", nil).Category)
	assert.Equal(t, CategoryBackend, New(ErrCodeEmbeddingFailed, "", nil).Category)
	assert.Equal(t, CategoryValidation, New(ErrCodeDimensionMismatch, "", nil).Category)
	assert.Equal(t, CategoryInternal, New(ErrCodeInternal, "", nil).Category)
}

func TestSeverity_FatalCodesAbortTheRun(t *testing.T) {
	assert.True(t, IsFatal(New(ErrCodeSchemaVersion, "", nil)))
	assert.True(t, IsFatal(New(ErrCodeCorruptIndex, "", nil)))
	assert.False(t, IsFatal(New(ErrCodeFileNotFound, "", nil)))
}

func TestRetryable_BackendErrorsAreRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(ErrCodeVectorStoreDown, "", nil)))
	assert.True(t, IsRetryable(New(ErrCodeEmbeddingFailed, "", nil)))
	assert.False(t, IsRetryable(New(ErrCodeFileNotFound, "", nil)))
}

func TestWithDetailAndSuggestion_Chain(t *testing.T) {
	err := New(ErrCodeFileNotFound, "missing", nil).
		WithDetail("path", "a.go").
		WithSuggestion("reindex the repository")

	assert.Equal(t, "a.go", err.Details["path"])
	assert.Equal(t, "reindex the repository", err.Suggestion)
}

func TestCode_ReturnsEmptyForPlainErrors(t *testing.T) {
	assert.Equal(t, "", Code(errors.New("plain")))
	assert.Equal(t, ErrCodeFileNotFound, Code(New(ErrCodeFileNotFound, "", nil)))
}
