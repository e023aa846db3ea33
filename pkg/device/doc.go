// Package device implements the latch endpoint service.
//
// A Service owns the full device lifecycle:
//
//   - Boot: open the config store, initialize the region on first use,
//     run provisioning if credentials are missing, and refuse to
//     continue on an incomplete store.
//   - Start: connect to the broker, subscribe to the command and
//     validation-response topics, and wire inbound messages into the
//     authorizer.
//   - Run: the poll loop. Each cycle dispatches at most one inbound
//     message and sweeps the challenge expiry.
//
// All protocol work happens on the Run goroutine; the Service never
// spawns workers of its own. Event callbacks are invoked inline from
// that goroutine and must not block.
package device
