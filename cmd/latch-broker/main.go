// Command latch-broker runs a standalone pub/sub broker for latch
// devices and verifiers.
//
// Usage:
//
//	latch-broker [flags]
//
// Flags:
//
//	-listen string        Listen address (default ":4180")
//	-users string         Comma-separated user:password pairs; empty accepts all
//	-advertise            Advertise the broker over mDNS
//	-name string          Human-readable broker name for mDNS (default "Latch Broker")
//	-tls-cert string      TLS certificate PEM file
//	-tls-key string       TLS private key PEM file
//	-tls-self-signed      Generate a self-signed TLS certificate on startup
//	-tls-cert-out string  Write the generated certificate here for device -tls-ca
//	-tls-key-out string   Write the generated private key here to reuse the identity
//	-log-level string     Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Open broker on the default port
//	latch-broker
//
//	# Authenticated broker, discoverable on the LAN
//	latch-broker -users door:s3cret,app:hunter2 -advertise
//
//	# TLS with a generated certificate
//	latch-broker -tls-self-signed -tls-cert-out broker.crt
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/latch-protocol/latch-go/pkg/cert"
	"github.com/latch-protocol/latch-go/pkg/discovery"
	"github.com/latch-protocol/latch-go/pkg/transport"
)

var flags struct {
	listen        string
	users         string
	advertise     bool
	name          string
	tlsCert       string
	tlsKey        string
	tlsSelfSigned bool
	tlsCertOut    string
	tlsKeyOut     string
	logLevel      string
}

func init() {
	flag.StringVar(&flags.listen, "listen", ":4180", "Listen address")
	flag.StringVar(&flags.users, "users", "", "Comma-separated user:password pairs; empty accepts all")
	flag.BoolVar(&flags.advertise, "advertise", false, "Advertise the broker over mDNS")
	flag.StringVar(&flags.name, "name", "Latch Broker", "Human-readable broker name for mDNS")
	flag.StringVar(&flags.tlsCert, "tls-cert", "", "TLS certificate PEM file")
	flag.StringVar(&flags.tlsKey, "tls-key", "", "TLS private key PEM file")
	flag.BoolVar(&flags.tlsSelfSigned, "tls-self-signed", false, "Generate a self-signed TLS certificate on startup")
	flag.StringVar(&flags.tlsCertOut, "tls-cert-out", "", "Write the generated certificate here for device -tls-ca")
	flag.StringVar(&flags.tlsKeyOut, "tls-key-out", "", "Write the generated private key here to reuse the identity")
	flag.StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()

	logger := newLogger(flags.logLevel)

	tlsConfig, err := newTLSConfig()
	if err != nil {
		logger.Error("TLS setup failed", "error", err)
		os.Exit(1)
	}

	broker := transport.NewBroker(transport.BrokerConfig{
		Address:      flags.listen,
		TLSConfig:    tlsConfig,
		Authenticate: newAuthenticator(flags.users),
		Logger:       logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := broker.Start(ctx); err != nil {
		logger.Error("broker start failed", "error", err)
		os.Exit(1)
	}
	logger.Info("broker listening", "address", broker.Addr().String())

	if flags.advertise {
		advertiser := &discovery.Advertiser{}
		defer advertiser.Stop()

		port, err := listenPort(broker.Addr())
		if err != nil {
			logger.Error("cannot advertise", "error", err)
			os.Exit(1)
		}
		if err := advertiser.Advertise(discovery.BrokerInfo{Port: port, Name: flags.name}); err != nil {
			logger.Error("mDNS advertising failed", "error", err)
			os.Exit(1)
		}
		logger.Info("advertising over mDNS", "name", flags.name, "port", port)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("shutting down", "signal", sig.String())
	if err := broker.Stop(); err != nil {
		logger.Error("stopping broker", "error", err)
	}
}

// newTLSConfig builds the listener TLS configuration from the flags.
// Returns nil when TLS is disabled.
func newTLSConfig() (*tls.Config, error) {
	switch {
	case flags.tlsSelfSigned:
		hosts := []string{"localhost", "127.0.0.1"}
		if host, _, err := net.SplitHostPort(flags.listen); err == nil && host != "" {
			hosts = append(hosts, host)
		}
		pair, parsed, err := cert.GenerateSelfSigned(hosts, 0)
		if err != nil {
			return nil, err
		}
		switch {
		case flags.tlsCertOut != "" && flags.tlsKeyOut != "":
			if err := cert.SaveKeyPair(flags.tlsCertOut, flags.tlsKeyOut, pair); err != nil {
				return nil, err
			}
		case flags.tlsCertOut != "":
			if err := cert.WriteCertFile(flags.tlsCertOut, parsed); err != nil {
				return nil, err
			}
		}
		return cert.ServerConfig(pair), nil

	case flags.tlsCert != "" || flags.tlsKey != "":
		if flags.tlsCert == "" || flags.tlsKey == "" {
			return nil, errors.New("-tls-cert and -tls-key must both be set")
		}
		pair, err := cert.LoadKeyPair(flags.tlsCert, flags.tlsKey)
		if err != nil {
			return nil, err
		}
		return cert.ServerConfig(pair), nil
	}
	return nil, nil
}

// newAuthenticator parses "user:password,user:password" into a check
// function. An empty spec accepts every client.
func newAuthenticator(spec string) func(username, password string) bool {
	if spec == "" {
		return nil
	}
	users := make(map[string]string)
	for _, pair := range strings.Split(spec, ",") {
		username, password, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || username == "" {
			continue
		}
		users[username] = password
	}
	return func(username, password string) bool {
		expected, ok := users[username]
		return ok && expected == password
	}
}

func listenPort(addr net.Addr) (int, error) {
	_, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(portStr)
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
