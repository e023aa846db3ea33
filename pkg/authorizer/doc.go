// Package authorizer implements the challenge/response state machine that
// gates every remote latch command.
//
// # States
//
//   - IDLE: no challenge outstanding; commands are accepted, responses are
//     rejected with ErrNoOutstandingChallenge.
//   - AWAITING_RESPONSE: exactly one challenge outstanding; the next
//     validation response settles it, and a new command request replaces
//     it unconditionally.
//
// # Lifecycle
//
//  1. A command request arrives on the command topic.
//  2. The authorizer parses it, generates a nonce, computes the expected
//     digest, and publishes <user><nonce> on the validation request topic.
//  3. The remote verifier computes the digest of the nonce and responds
//     with <user><digest>.
//  4. On an exact user and digest match the actuator is invoked exactly
//     once, synchronously; on any mismatch nothing is actuated. Either
//     way the pending challenge is cleared.
//
// There is no queuing: a second command request before a response silently
// invalidates the first challenge, and the eventual response to the
// superseded challenge fails against the newer one. An optional expiry
// bounds how long a challenge stays answerable; it is checked from the
// device's poll loop (CheckExpiry), never from a separate timer goroutine.
//
// The authorizer is not safe for concurrent use. All entry points must be
// called from the single transport poll goroutine; the replace-on-new-
// request rule is the only conflict-resolution policy.
package authorizer
