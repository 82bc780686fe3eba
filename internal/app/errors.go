package app

import "errors"

// Application errors.
var (
	// ErrUnknownGroup indicates the configured start group has no commands.
	ErrUnknownGroup = errors.New("unknown command group")

	// ErrShutDown indicates the application was already shut down.
	ErrShutDown = errors.New("application shut down")
)

// InitError reports a component that failed to start.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// CloseError reports a component that failed to release its resources
// during Shutdown.
type CloseError struct {
	Component string
	Err       error
}

func (e *CloseError) Error() string {
	return "close " + e.Component + ": " + e.Err.Error()
}

func (e *CloseError) Unwrap() error {
	return e.Err
}
