//go:build !windows

package winsys

import (
	"fmt"
	"os/exec"
)

func LockWorkstation() error {
	return ErrUnsupported
}

func ForegroundProcess() (string, error) {
	return "", ErrUnsupported
}

func ForegroundWindowTitle() string {
	return ""
}

// OpenURL falls back to xdg-open so the settings page still opens during
// development on Linux.
func OpenURL(url string) error {
	if _, err := exec.LookPath("xdg-open"); err != nil {
		return fmt.Errorf("open %s: %w", url, ErrUnsupported)
	}
	return exec.Command("xdg-open", url).Start()
}
