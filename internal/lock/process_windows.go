//go:build windows

package lock

import (
	"golang.org/x/sys/windows"
)

// IsProcessRunning checks if a process with the given PID is still running.
// On Windows, we try to open the process handle to verify it exists.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	_ = windows.CloseHandle(handle)
	return true
}
