// Package retry provides exponential backoff and retry logic for handling
// transient failures in network operations, particularly voyager API calls.
//
// Features:
//   - Exponential and constant backoff strategies
//   - Jitter to avoid thundering herd problems
//   - Context support for cancellation
//   - Configurable retry predicates
//   - Integration with the client error types
//
// Basic usage:
//
//	// Simple retry with defaults
//	err := retry.Do(func() error {
//		return client.FetchProfilePage(username)
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff: &retry.ExponentialBackoff{
//			BaseDelay:  2 * time.Second,
//			MaxDelay:   30 * time.Second,
//			Multiplier: 2.0,
//		},
//	}
//	err := retry.Do(operation, cfg)
//
// The default retry predicate consults the error types of pkg/errors:
// network, rate limit, and server errors are retried, auth and parsing
// errors are not.
package retry
