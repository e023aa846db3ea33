// Package connection provides broker reconnection support.
//
// A device that loses its broker connection retries with exponential
// backoff and jitter so a rebooting broker is not flooded by its whole
// fleet at once. Retry wraps a full service lifecycle attempt; Backoff
// paces the attempts and resets once a connection proves stable.
package connection
