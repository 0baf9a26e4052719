// Package flock provides cross-platform file locking utilities.
//
// The native backend uses it to serialize solc-select switches across sieve
// processes, since the active compiler version is host-wide state.
//
// Usage:
//
//	lock, err := flock.Acquire(ctx, filepath.Join(tmpDir, "solc-select.lock"))
//	if err != nil {
//	    return err
//	}
//	defer lock.Release()
package flock
