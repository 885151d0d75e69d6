// Package httputil fetches remote source payloads.
//
//   - [Client]: GET with status mapping to coded errors and a size limit
//   - [Backoff]: retry policy with doubling, capped waits
//
// # Retry
//
// Only errors marked with [Transient] are retried: transport failures, 429
// and 5xx responses. A Retry-After header in seconds replaces the backoff
// step for that wait. A 404 or any other status fails immediately.
//
//	b := httputil.Backoff{Attempts: 3, Delay: time.Second, MaxDelay: 8 * time.Second}
//	err := b.Do(ctx, func(attempt int) error {
//	    return fetch()
//	})
//
// # Defaults
//
//   - Per-attempt timeout: 30 seconds
//   - Attempts: 3
//   - Base backoff: 1 second, doubling, capped at 8 seconds
//   - Max body: 64 MiB
package httputil
