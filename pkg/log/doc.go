// Package log captures protocol events for debugging and audit.
//
// The capture is separate from operational logging (slog): it records
// every pub/sub message, authorizer state transition, and authorization
// decision in a machine-readable form, so a misbehaving device can be
// diagnosed from its capture file alone.
//
// A Logger implementation is handed to the device configuration:
//
//	// Binary capture file, analyzed later with latch-log.
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/latch/device.llog")
//
//	// Live console output during development.
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// Both at once.
//	cfg.ProtocolLogger = log.NewMultiLogger(fileLogger, consoleLogger)
//
// Events carry a layer (transport, wire, service) and a category
// (message, state, decision, error) plus one typed detail payload.
// Capture files are CBOR sequences with the .llog extension; Reader
// streams them back with optional filtering.
package log
