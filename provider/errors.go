package provider

import "errors"

// ErrAlreadyRunning is returned by Start when the provider is not stopped.
var ErrAlreadyRunning = errors.New("provider already running")

// ConnectError reports a failed Start. The provider stays stopped.
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string { return "device connect failed: " + e.Err.Error() }

func (e *ConnectError) Unwrap() error { return e.Err }
