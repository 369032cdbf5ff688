//go:build !windows

package lock

import (
	"golang.org/x/sys/unix"
)

// IsProcessRunning sends signal 0, which checks existence without delivering
// anything. EPERM means the process exists but belongs to another user.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
