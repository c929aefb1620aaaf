package pipeline

import "fmt"

// ProcessingError marks a recoverable per-train failure: the train's
// contribution to the current step is dropped and the stream continues.
type ProcessingError struct {
	Msg string
}

func (e *ProcessingError) Error() string {
	return e.Msg
}

// Processingf builds a recoverable processing error.
func Processingf(format string, args ...any) error {
	return &ProcessingError{Msg: fmt.Sprintf(format, args...)}
}

// ParameterError marks a configuration mistake (unknown enum value, invalid
// projection axis). It is fatal to that processor's step for the train and is
// surfaced rather than swallowed.
type ParameterError struct {
	Msg string
	Err error
}

func (e *ParameterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ParameterError) Unwrap() error {
	return e.Err
}

// Parameterf builds a configuration error.
func Parameterf(format string, args ...any) error {
	return &ParameterError{Msg: fmt.Sprintf(format, args...)}
}

// Parameter wraps an underlying error as a configuration error.
func Parameter(msg string, err error) error {
	return &ParameterError{Msg: msg, Err: err}
}
