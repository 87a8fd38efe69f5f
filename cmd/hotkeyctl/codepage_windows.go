//go:build windows

package main

import "syscall"

// setConsoleUTF8 switches the console code pages to UTF-8 so status output
// with non-ASCII window titles renders correctly.
func setConsoleUTF8() {
	kernel32 := syscall.NewLazyDLL("kernel32.dll")
	setOutputCP := kernel32.NewProc("SetConsoleOutputCP")
	setInputCP := kernel32.NewProc("SetConsoleCP")
	setOutputCP.Call(65001)
	setInputCP.Call(65001)
}
