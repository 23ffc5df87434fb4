package domain

import (
	"errors"
	"fmt"
)

// StartupStage names the step of process initialization that failed.
type StartupStage string

const (
	StartupStageConfig    StartupStage = "config"
	StartupStageCorpus    StartupStage = "corpus"
	StartupStageEmbedding StartupStage = "embedding"
	StartupStageIndex     StartupStage = "index"
	StartupStageEndpoint  StartupStage = "endpoint"
)

// StartupError is fatal: the process must exit without serving traffic.
type StartupError struct {
	Stage StartupStage
	Err   error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("startup failed at %s stage: %v", e.Stage, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// NewStartupError wraps err as a fatal error for the given stage.
func NewStartupError(stage StartupStage, err error) *StartupError {
	return &StartupError{Stage: stage, Err: err}
}

// StartupStageOf reports the stage of a StartupError anywhere in err's chain.
func StartupStageOf(err error) (StartupStage, bool) {
	var se *StartupError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
