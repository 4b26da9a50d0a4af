// Package integrations provides HTTP clients for the services aidocs talks to.
//
// # Overview
//
// Each service has its own subpackage:
//
//   - [github]: tag lookup, repository metadata, and raw file content
//   - [crates]: crates.io metadata, used by `aidocs init` to find repositories
//
// # Shared Infrastructure
//
// The [Client] type provides the shared HTTP layer: default headers
// (User-Agent, Accept, Authorization), optional per-host pacing with
// golang.org/x/time/rate, and status classification:
//
//   - 2xx: success
//   - 404: [ErrNotFound]
//   - 429, or 403 with an exhausted X-RateLimit-Remaining: [errors.RateLimitedError]
//   - 5xx: [*StatusError] wrapped in [httputil.RetryableError]
//   - transport failure: [ErrNetwork] wrapped in [httputil.RetryableError]
//   - anything else: [*StatusError]
//
// Requests are reported to [observability.HTTP] hooks.
//
// [github]: github.com/matzehuels/aidocs/pkg/integrations/github
// [crates]: github.com/matzehuels/aidocs/pkg/integrations/crates
// [errors.RateLimitedError]: github.com/matzehuels/aidocs/pkg/errors.RateLimitedError
// [httputil.RetryableError]: github.com/matzehuels/aidocs/pkg/httputil.RetryableError
// [observability.HTTP]: github.com/matzehuels/aidocs/pkg/observability.HTTP
package integrations
