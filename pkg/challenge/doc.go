// Package challenge generates single-use nonces and their checksum digests
// for the command-authorization protocol.
//
// A challenge is an 8-character nonce drawn from the uppercase alphabet.
// The device computes Digest(nonce) when it issues the challenge and the
// remote verifier, which shares the Seed/Prime constants out-of-band,
// computes the same digest from the broadcast nonce and echoes it back.
//
// # Security Properties
//
// Digest is a keyless integrity checksum, not a keyed MAC: any party able
// to observe the validation request topic can compute a matching response.
// It proves freshness (the response is bound to this nonce), not identity.
// KeyedDigester provides an opt-in HMAC-SHA256 alternative keyed with a
// per-device secret established during provisioning; both sides must agree
// on the mode out-of-band.
package challenge
