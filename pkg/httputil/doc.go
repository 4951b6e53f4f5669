// Package httputil provides retry helpers for index clients.
//
// # Retry
//
// [Retry] runs an operation with exponential backoff, but only retries
// errors wrapped in [RetryableError]. Index clients wrap network errors,
// 429 and 5xx responses; everything else (404, malformed pages, checksum
// mismatches) fails immediately:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// A server asking for a pause with Retry-After is honored through
// [RetryableError.After]; see [RetryAfter].
//
// Defaults used by [RetryWithBackoff]: 3 attempts, 1 second initial delay.
package httputil
