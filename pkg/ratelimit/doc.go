// Package ratelimit provides rate limiting for outbound requests.
//
// Requests against the voyager API and the media CDN are throttled to
// avoid tripping LinkedIn's abuse detection.
//
// The TokenBucket implementation refills a fixed-capacity bucket after
// a configured period, which suits the bursty fetch-a-page,
// download-its-media traffic pattern. All limiters implement the
// Limiter interface:
//   - Allow() bool - check if a request is allowed
//   - Wait() - block until a request is allowed
//   - Reset() - reset the limiter state
//
// Usage:
//
//	limiter := ratelimit.PerMinute(30)
//	if !limiter.Allow() {
//	    limiter.Wait()
//	}
//	// perform request
package ratelimit
