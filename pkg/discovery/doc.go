// Package discovery advertises and locates latch brokers on the local
// network over mDNS (DNS-SD).
//
// Brokers register the service type "_latchbroker._tcp" with a TXT
// record carrying the protocol revision and a human-readable name.
// Devices without a provisioned endpoint can browse for a broker and
// store the result, after which discovery is no longer consulted.
package discovery
