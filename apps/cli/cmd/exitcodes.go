package cmd

import "fmt"

// Exit codes for hitfake CLI
const (
	// ExitSuccess indicates the command completed
	ExitSuccess = 0

	// ExitFailure indicates a runtime failure
	ExitFailure = 1

	// ExitDecodeError indicates input that is not a valid HTTP request
	ExitDecodeError = 2

	// ExitConfigError indicates a configuration or routes file error
	ExitConfigError = 3

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExitCode(code int, format string, args ...any) error {
	return &exitError{code: code, err: fmt.Errorf(format, args...)}
}
