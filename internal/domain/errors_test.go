package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesWrappedCopies(t *testing.T) {
	err := NewDomainErrorWithCause(ErrCodeInternalError, ErrGenerationFailed.Message, errors.New("503 from endpoint"))
	wrapped := fmt.Errorf("answer: %w", err)

	assert.ErrorIs(t, wrapped, ErrGenerationFailed)
	assert.NotErrorIs(t, wrapped, ErrRetrievalFailed)
	assert.Contains(t, err.Error(), "503 from endpoint")
}

func TestCodeOf(t *testing.T) {
	code, ok := CodeOf(fmt.Errorf("handler: %w", ErrQueryMissing))
	assert.True(t, ok)
	assert.Equal(t, ErrCodeValidation, code)

	_, ok = CodeOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestStartupStageOf(t *testing.T) {
	err := fmt.Errorf("serve: %w", NewStartupError(StartupStageEndpoint, errors.New("probe returned 503")))

	stage, ok := StartupStageOf(err)

	assert.True(t, ok)
	assert.Equal(t, StartupStageEndpoint, stage)
	assert.Equal(t, "startup failed at endpoint stage: probe returned 503", errors.Unwrap(err).Error())
}
