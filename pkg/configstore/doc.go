// Package configstore persists the three connection credentials the device
// needs to reach the authorization transport: broker endpoint, username,
// and password.
//
// The store is a fixed-size region divided into three equal slots, each
// holding a NUL-terminated string within its bound, plus one trailing
// marker byte. The marker equals MarkerByte if and only if the region was
// zero-initialized at least once; this distinguishes freshly-erased media
// from never-initialized media and guards against reading garbage on
// first boot.
//
// Writes commit durably (Media.Sync) before returning. Atomicity with
// respect to power loss is per slot and best effort on file-backed media:
// a crash mid-write may corrupt that slot but not the marker or the other
// slots, since every write touches exactly one slot's byte range.
package configstore
