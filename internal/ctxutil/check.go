// Package ctxutil provides context utility functions.
package ctxutil

import "context"

// Canceled returns the context error once ctx is done, nil otherwise.
// Store writes and tool runs call it on entry so a canceled batch stops
// before touching disk or spawning a process.
func Canceled(ctx context.Context) error {
	return ctx.Err()
}
