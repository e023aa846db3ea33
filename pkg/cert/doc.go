// Package cert provides TLS certificate material for brokers and
// devices.
//
// Deployments that terminate TLS at the broker either load an issued
// key pair from PEM files or generate a self-signed pair on startup.
// Devices verify the broker against a CA bundle loaded into the dial
// configuration.
package cert
