package capture

import (
	"errors"
	"fmt"
)

// ErrAlreadyCapturing is returned by Start when the session is already
// starting or capturing. The running stream is left untouched.
var ErrAlreadyCapturing = errors.New("capture already in progress")

// DeviceError reports a device selector that matched no enumerable endpoint.
type DeviceError struct {
	Selector string
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device not found: %q", e.Selector)
}

// InitError reports a failed backend setup step. The session rolls back to
// Idle, so the caller may retry with different parameters.
type InitError struct {
	Step string
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("backend init failed at %s: %v", e.Step, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }
