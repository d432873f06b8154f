// Package ratelimit provides a token bucket limiter used to pace timeline
// page fetches against the extraction backend. It is a politeness measure,
// not a retry mechanism; retriable backend failures surface to the caller.
package ratelimit
