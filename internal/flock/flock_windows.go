//go:build windows

package flock

import "golang.org/x/sys/windows"

// LockFileEx parameters covering the first byte of the file, which is enough
// for an advisory lock that every sieve process agrees on.
const (
	lockReserved  = 0
	lockBytesLow  = 1
	lockBytesHigh = 0
)

// Exclusive tries once to take an exclusive lock on fd.
func Exclusive(fd uintptr) error {
	return windows.LockFileEx(
		windows.Handle(fd),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		lockReserved,
		lockBytesLow,
		lockBytesHigh,
		&windows.Overlapped{},
	)
}

// Unlock releases a lock taken by Exclusive.
func Unlock(fd uintptr) error {
	return windows.UnlockFileEx(windows.Handle(fd), lockReserved, lockBytesLow, lockBytesHigh, &windows.Overlapped{})
}
