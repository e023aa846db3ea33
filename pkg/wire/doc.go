// Package wire defines the plain-text payload formats exchanged over the
// pub/sub transport.
//
// All payloads are bare text with no envelope:
//
//	Command request:     <user-digit><"lock"|"unlock">   e.g. "2unlock"
//	Validation request:  <user-digit><8-char-nonce>      e.g. "2KXQPLRZ"
//	Validation response: <user-digit><decimal-digest>    e.g. "28345"
//
// The user digit is a single ASCII digit identifying one of the fixed set
// of numbered users known out-of-band. Command words are case-sensitive:
// "lock" arms the latch (DISENGAGE the release mechanism), "unlock"
// releases it (ENGAGE).
//
// Topic names are configuration, not protocol; see pkg/device.
package wire
