// Package safego provides a panic-recovering goroutine launcher for background work.
package safego

import "log/slog"

// Go launches fn in a new goroutine. If fn panics, the panic is recovered and
// logged rather than crashing the process. Every fire-and-forget goroutine in
// the service goes through here: the audit shipper workers, the document
// reconciler, and the rate limiter cleanup loop must not take down the API
// on a panic, and must not die silently either.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("recovered panic in background goroutine", "panic", r)
			}
		}()
		fn()
	}()
}
