// Package httputil provides retry helpers for hosting-provider requests.
//
// # Retry
//
// [Retry] re-runs an operation only when it fails with a [RetryableError].
// The integration clients wrap transport failures and 5xx responses in
// [RetryableError]; not-found and rate-limit responses are returned as-is so
// they are never retried.
//
// Waits between attempts use a fixed delay and respect context
// cancellation:
//
//	err := httputil.Retry(ctx, 2, 2*time.Second, func() error {
//	    return client.RawFile(ctx, repo, ref, path)
//	})
//
// [RetryOnce] is the policy used for documentation fetches: one retry after
// [DefaultRetryDelay].
package httputil
