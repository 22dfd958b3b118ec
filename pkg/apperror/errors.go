package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks failures an operator has to fix (unknown backend,
	// missing credential, unknown stage type). Not retryable.
	ErrConfiguration = errors.New("configuration error")

	// ErrStage marks a collaborator failure inside a pipeline stage.
	ErrStage = errors.New("stage error")
)

// ConfigError describes a configuration problem. Key names the offending
// setting or tag when one is known.
type ConfigError struct {
	Key    string
	Reason string
	Err    error
}

func NewConfigError(key, reason string) *ConfigError {
	return &ConfigError{Key: key, Reason: reason}
}

func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Key != "" {
		msg += fmt.Sprintf(" [%s]", e.Key)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

// StageError wraps the original cause of a failed stage run.
type StageError struct {
	Stage string
	Err   error
}

func NewStageError(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func (e *StageError) Is(target error) bool { return target == ErrStage }

// IsConfig reports whether err is (or wraps) a configuration error.
func IsConfig(err error) bool { return errors.Is(err, ErrConfiguration) }

// IsStage reports whether err is (or wraps) a stage error.
func IsStage(err error) bool { return errors.Is(err, ErrStage) }
