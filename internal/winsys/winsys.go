// Package winsys wraps the small set of shell calls the daemon needs:
// locking the workstation, identifying the foreground application, and
// opening the settings page in the default browser.
package winsys

import "errors"

// ErrUnsupported is returned where the host platform lacks the Windows
// shell surface an operation requires.
var ErrUnsupported = errors.New("operation is not supported on this platform")
