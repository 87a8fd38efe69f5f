//go:build !windows

package procutil

import "fmt"

// ImageBaseName is implemented only for Windows in this project.
func ImageBaseName(pid uint32) (string, error) {
	return "", fmt.Errorf("process image lookup is not supported on this platform (pid %d)", pid)
}
