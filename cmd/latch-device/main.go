// Command latch-device runs a latch endpoint.
//
// The device boots from its config store, connects to the broker named
// there, and processes lock/unlock commands through the challenge and
// response exchange. A store missing any credential fails the boot
// unless provisioning is enabled.
//
// Usage:
//
//	latch-device [flags]
//
// Flags:
//
//	-store string         Config store file path (default "latch-store.bin")
//	-config string        Optional YAML configuration file
//	-endpoint string      Broker endpoint used to provision an empty store
//	-username string      Broker username used to provision an empty store
//	-password string      Broker password used to provision an empty store
//	-discover             Provision the endpoint via mDNS broker discovery
//	-expiry duration      Challenge expiry, 0 disables (default 0)
//	-tls-ca string        CA bundle for a TLS broker connection
//	-reconnect            Reconnect with backoff when the broker drops
//	-interactive          Prompt for missing credentials and open a console
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  Write protocol events to this .llog file
//	-protocol-echo        Mirror protocol events onto the console at debug level
//
// Examples:
//
//	# First boot: provision and run
//	latch-device -endpoint 192.168.1.10:4180 -username door -password s3cret
//
//	# Subsequent boots reuse the store
//	latch-device -store /var/lib/latch/store.bin -reconnect
//
//	# Interactive provisioning and console
//	latch-device -interactive
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/latch-protocol/latch-go/cmd/latch-device/interactive"
	"github.com/latch-protocol/latch-go/pkg/actuator"
	"github.com/latch-protocol/latch-go/pkg/cert"
	"github.com/latch-protocol/latch-go/pkg/connection"
	"github.com/latch-protocol/latch-go/pkg/device"
	latchlog "github.com/latch-protocol/latch-go/pkg/log"
)

var flags struct {
	store        string
	config       string
	endpoint     string
	username     string
	password     string
	discover     bool
	expiry       time.Duration
	tlsCA        string
	reconnect    bool
	interactive  bool
	logLevel     string
	protocolLog  string
	protocolEcho bool
}

func init() {
	flag.StringVar(&flags.store, "store", "latch-store.bin", "Config store file path")
	flag.StringVar(&flags.config, "config", "", "Optional YAML configuration file")
	flag.StringVar(&flags.endpoint, "endpoint", "", "Broker endpoint used to provision an empty store")
	flag.StringVar(&flags.username, "username", "", "Broker username used to provision an empty store")
	flag.StringVar(&flags.password, "password", "", "Broker password used to provision an empty store")
	flag.BoolVar(&flags.discover, "discover", false, "Provision the endpoint via mDNS broker discovery")
	flag.DurationVar(&flags.expiry, "expiry", 0, "Challenge expiry, 0 disables")
	flag.StringVar(&flags.tlsCA, "tls-ca", "", "CA bundle for a TLS broker connection")
	flag.BoolVar(&flags.reconnect, "reconnect", false, "Reconnect with backoff when the broker drops")
	flag.BoolVar(&flags.interactive, "interactive", false, "Prompt for missing credentials and open a console")
	flag.StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&flags.protocolLog, "protocol-log", "", "Write protocol events to this .llog file")
	flag.BoolVar(&flags.protocolEcho, "protocol-echo", false, "Mirror protocol events onto the console at debug level")
}

func main() {
	flag.Parse()

	logger := newLogger(flags.logLevel)

	if flags.reconnect && flags.interactive {
		logger.Error("-reconnect and -interactive cannot be combined")
		os.Exit(1)
	}

	config, err := loadConfig()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	config.Logger = logger

	var sinks []latchlog.Logger
	if flags.protocolLog != "" {
		fileLogger, err := latchlog.NewFileLogger(flags.protocolLog)
		if err != nil {
			logger.Error("opening protocol log", "error", err)
			os.Exit(1)
		}
		defer fileLogger.Close()
		sinks = append(sinks, fileLogger)
	}
	if flags.protocolEcho {
		sinks = append(sinks, latchlog.NewSlogAdapter(logger))
	}
	switch len(sinks) {
	case 0:
	case 1:
		config.ProtocolLogger = sinks[0]
	default:
		config.ProtocolLogger = latchlog.NewMultiLogger(sinks...)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", "signal", sig.String())
		cancel()
	}()

	run := func(ctx context.Context) error {
		return runDevice(ctx, cancel, config, logger)
	}

	if flags.reconnect {
		err = connection.Retry(ctx, connection.RetryConfig{Logger: logger}, run)
	} else {
		err = run(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("device stopped", "error", err)
		os.Exit(1)
	}
}

// runDevice performs one full service lifecycle: boot, start, poll
// until ctx ends or the transport fails.
func runDevice(ctx context.Context, cancel context.CancelFunc, config device.Config, logger *slog.Logger) error {
	svc := device.New(config)
	latch := actuator.NewSimulated(logger)
	svc.SetActuator(latch)
	svc.SetProvisioner(newProvisioner())

	if err := svc.Boot(ctx); err != nil {
		if errors.Is(err, device.ErrIncompleteConfiguration) {
			logger.Error("config store incomplete; provision with -endpoint/-username/-password or -interactive")
			os.Exit(1)
		}
		return err
	}

	if err := svc.Start(); err != nil {
		return err
	}
	logger.Info("device running", "state", svc.State().String())

	// The console registers its event handler, so it must exist before
	// polling starts.
	if flags.interactive {
		console, err := interactive.New(svc, latch)
		if err != nil {
			return err
		}
		go console.Run(ctx, cancel)
	}

	return svc.Run(ctx)
}

// loadConfig merges the optional YAML file with command-line flags.
// Flags win over file values.
func loadConfig() (device.Config, error) {
	config := device.DefaultConfig()
	if flags.config != "" {
		fileConfig, err := LoadConfigFile(flags.config)
		if err != nil {
			return device.Config{}, err
		}
		config = fileConfig.apply(config)
	}
	if config.StorePath == "" || flags.store != "latch-store.bin" {
		config.StorePath = flags.store
	}
	if flags.expiry > 0 {
		config.ChallengeExpiry = flags.expiry
	}
	if flags.tlsCA != "" {
		tlsConfig, err := cert.ClientConfig(flags.tlsCA)
		if err != nil {
			return device.Config{}, err
		}
		config.TLSConfig = tlsConfig
	}
	return config, nil
}

// newProvisioner builds the provisioning chain for missing credentials:
// explicit flags first, mDNS discovery for the endpoint, then the
// interactive prompt when enabled.
func newProvisioner() device.Provisioner {
	var chain provisionerChain
	if flags.endpoint != "" || flags.username != "" || flags.password != "" {
		chain = append(chain, device.StaticProvisioner{
			Endpoint: flags.endpoint,
			Username: flags.username,
			Password: flags.password,
		})
	}
	if flags.discover {
		chain = append(chain, discoveryProvisioner{})
	}
	if flags.interactive {
		chain = append(chain, interactive.Provisioner{})
	}
	return chain
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
