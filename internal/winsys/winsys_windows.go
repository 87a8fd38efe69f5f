//go:build windows

package winsys

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	"hotkeyd/internal/procutil"

	"golang.org/x/sys/windows"
)

var (
	user32 = syscall.NewLazyDLL("user32.dll")

	procLockWorkStation          = user32.NewProc("LockWorkStation")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
)

// LockWorkstation locks the interactive session, same as Win+L.
func LockWorkstation() error {
	res, _, err := procLockWorkStation.Call()
	if res != 0 {
		return nil
	}
	if err == nil || errors.Is(err, syscall.Errno(0)) {
		return errors.New("LockWorkStation failed")
	}
	return fmt.Errorf("LockWorkStation: %w", err)
}

// ForegroundProcess returns the executable base name of the process owning
// the foreground window.
func ForegroundProcess() (string, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		// No foreground window exists while the session is locked or
		// a window is mid-activation.
		return "", errors.New("no foreground window")
	}
	var pid uint32
	tid, _, err := procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	if tid == 0 || pid == 0 {
		if err == nil || errors.Is(err, syscall.Errno(0)) {
			return "", errors.New("GetWindowThreadProcessId failed")
		}
		return "", fmt.Errorf("GetWindowThreadProcessId: %w", err)
	}
	name, err := procutil.ImageBaseName(pid)
	if err != nil {
		return "", fmt.Errorf("resolve foreground process %d: %w", pid, err)
	}
	return name, nil
}

// ForegroundWindowTitle returns the foreground window's title, or "" when
// there is no foreground window or the title cannot be read.
func ForegroundWindowTitle() string {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return ""
	}
	var buf [512]uint16
	n, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}

// OpenURL opens url with the shell's default handler, typically the
// default browser.
func OpenURL(url string) error {
	verb, err := windows.UTF16PtrFromString("open")
	if err != nil {
		return fmt.Errorf("encode verb: %w", err)
	}
	target, err := windows.UTF16PtrFromString(url)
	if err != nil {
		return fmt.Errorf("encode url: %w", err)
	}
	if err := windows.ShellExecute(0, verb, target, nil, nil, windows.SW_SHOWNORMAL); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}
