// Package mediawiki implements the connector for a MediaWiki Action API.
//
// The connector comprises the following components:
//
//   - Client: handles api.php communication with retries and rate limiting
//   - Limiter: enforces minimum request spacing and exponential backoff
//   - Pager: continuation-token-driven iteration over list endpoints
//   - ChangeReader: the recent-changes feed, producing typed change events
//   - RevisionReader: per-page revision history, oldest first
//   - ImageReader: the uploaded-file listing with checksums
//
// # Rate Limiting
//
// The client uses a dual-strategy approach: a token bucket caps burst
// behaviour, and the Limiter spaces consecutive requests at least
// 1/requestsPerSecond apart. Transient failures and 429 responses are
// retried with exponential backoff through the same Limiter, which resets
// its spacing clock after a backoff so the next request is not delayed
// twice.
//
// # Pagination
//
// MediaWiki list endpoints return batches with an opaque "continue" object
// that must be merged into the next request's parameters. Pager does this
// transparently and exposes a pull-based iterator. A continuation object
// that is not a flat key-value mapping is a hard error: a corrupted token
// must not cause infinite or truncated pagination.
//
// # Error Handling
//
//   - Network errors and 5xx responses: retried with exponential backoff
//   - 429 and API "ratelimited" errors: always retried via backoff
//   - Protocol errors (bad JSON, missing fields, bad continuation): never
//     retried; a single bad record is skipped, anything that prevents
//     determining how to continue aborts the operation
package mediawiki
