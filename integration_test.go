package latch_test

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latch-protocol/latch-go/pkg/actuator"
	"github.com/latch-protocol/latch-go/pkg/cert"
	"github.com/latch-protocol/latch-go/pkg/challenge"
	"github.com/latch-protocol/latch-go/pkg/device"
	"github.com/latch-protocol/latch-go/pkg/transport"
	"github.com/latch-protocol/latch-go/pkg/wire"
)

const (
	testUsername = "frontdoor"
	testPassword = "s3cret"
)

// startBroker runs an authenticated broker on an ephemeral port.
func startBroker(t *testing.T) *transport.Broker {
	t.Helper()

	broker := transport.NewBroker(transport.BrokerConfig{
		Address: "127.0.0.1:0",
		Authenticate: func(username, password string) bool {
			return username == testUsername && password == testPassword
		},
	})
	require.NoError(t, broker.Start(context.Background()))
	t.Cleanup(func() { broker.Stop() })
	return broker
}

// startDevice boots and runs a device against the broker, provisioning
// its store on first boot. Returns the simulated latch and an event
// stream.
func startDevice(t *testing.T, endpoint string, expiry time.Duration) (*actuator.Simulated, <-chan device.Event) {
	t.Helper()

	config := device.DefaultConfig()
	config.StorePath = filepath.Join(t.TempDir(), "store.bin")
	config.ChallengeExpiry = expiry
	config.PollInterval = time.Millisecond

	latch := actuator.NewSimulated(nil)
	events := make(chan device.Event, 16)

	svc := device.New(config)
	svc.SetActuator(latch)
	svc.SetProvisioner(device.StaticProvisioner{
		Endpoint: endpoint,
		Username: testUsername,
		Password: testPassword,
	})
	svc.OnEvent(func(ev device.Event) {
		select {
		case events <- ev:
		default:
		}
	})

	require.NoError(t, svc.Boot(context.Background()))
	require.NoError(t, svc.Start())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return latch, events
}

// verifier is the remote side of the exchange: it receives challenges
// and answers them.
type verifier struct {
	client *transport.Client

	mu         sync.Mutex
	challenges []string
}

func startVerifier(t *testing.T, endpoint string) *verifier {
	t.Helper()

	client, err := transport.Dial(transport.ClientConfig{
		Address:  endpoint,
		Username: testUsername,
		Password: testPassword,
	})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	v := &verifier{client: client}
	client.SetHandler(func(_, payload string) {
		v.mu.Lock()
		v.challenges = append(v.challenges, payload)
		v.mu.Unlock()
	})
	require.NoError(t, client.Subscribe(device.DefaultValidationRequestTopic))
	return v
}

// awaitChallenge polls until a new challenge arrives and returns it.
func (v *verifier) awaitChallenge(t *testing.T) string {
	t.Helper()

	seen := len(v.pending())
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		require.NoError(t, v.client.Poll())
		if challenges := v.pending(); len(challenges) > seen {
			return challenges[len(challenges)-1]
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no challenge received")
	return ""
}

func (v *verifier) pending() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.challenges...)
}

// answer computes the digest for a challenge payload and publishes the
// response as the given user.
func (v *verifier) answer(t *testing.T, payload string, user int) {
	t.Helper()

	require.GreaterOrEqual(t, len(payload), 2)
	nonce := challenge.Nonce(payload[1:])
	response := fmt.Sprintf("%d%s", user, challenge.Digest(nonce))
	require.NoError(t, v.client.Publish(device.DefaultValidationResponseTopic, response))
}

// awaitEvent drains the event stream until the wanted type shows up.
func awaitEvent(t *testing.T, events <-chan device.Event, want device.EventType) device.Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %s event", want)
		}
	}
}

func TestE2E_LockCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	broker := startBroker(t)
	endpoint := broker.Addr().String()

	latch, events := startDevice(t, endpoint, 0)
	v := startVerifier(t, endpoint)

	require.NoError(t, v.client.Publish(device.DefaultCommandTopic, "1lock"))
	awaitEvent(t, events, device.EventChallengeIssued)

	payload := v.awaitChallenge(t)
	require.Len(t, payload, 1+challenge.NonceLength)
	assert.Equal(t, byte('1'), payload[0])

	v.answer(t, payload, 1)
	ev := awaitEvent(t, events, device.EventCommandExecuted)
	assert.Equal(t, wire.CommandDisengage, ev.Command)
	assert.True(t, latch.Locked())
}

func TestE2E_UnlockAfterLock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	broker := startBroker(t)
	endpoint := broker.Addr().String()

	latch, events := startDevice(t, endpoint, 0)
	v := startVerifier(t, endpoint)

	require.NoError(t, v.client.Publish(device.DefaultCommandTopic, "3lock"))
	v.answer(t, v.awaitChallenge(t), 3)
	awaitEvent(t, events, device.EventCommandExecuted)
	require.True(t, latch.Locked())

	require.NoError(t, v.client.Publish(device.DefaultCommandTopic, "3unlock"))
	v.answer(t, v.awaitChallenge(t), 3)
	ev := awaitEvent(t, events, device.EventCommandExecuted)
	assert.Equal(t, wire.CommandEngage, ev.Command)
	assert.False(t, latch.Locked())
}

func TestE2E_WrongDigestRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	broker := startBroker(t)
	endpoint := broker.Addr().String()

	latch, events := startDevice(t, endpoint, 0)
	v := startVerifier(t, endpoint)

	require.NoError(t, v.client.Publish(device.DefaultCommandTopic, "2unlock"))
	v.awaitChallenge(t)

	require.NoError(t, v.client.Publish(device.DefaultValidationResponseTopic, "20000"))
	ev := awaitEvent(t, events, device.EventCommandRejected)
	assert.Equal(t, 2, ev.User)
	assert.Error(t, ev.Err)
	assert.Empty(t, latch.History())

	// The challenge was consumed; a now-correct answer is also refused.
	v.answer(t, v.pending()[len(v.pending())-1], 2)
	awaitEvent(t, events, device.EventCommandRejected)
	assert.Empty(t, latch.History())
}

func TestE2E_NewCommandSupersedesChallenge(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	broker := startBroker(t)
	endpoint := broker.Addr().String()

	latch, events := startDevice(t, endpoint, 0)
	v := startVerifier(t, endpoint)

	require.NoError(t, v.client.Publish(device.DefaultCommandTopic, "1lock"))
	first := v.awaitChallenge(t)

	require.NoError(t, v.client.Publish(device.DefaultCommandTopic, "2unlock"))
	second := v.awaitChallenge(t)
	require.NotEqual(t, first, second)

	// Answering the superseded challenge is a mismatch.
	v.answer(t, first, 1)
	awaitEvent(t, events, device.EventCommandRejected)
	assert.Empty(t, latch.History())
}

func TestE2E_TLSBroker(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pair, parsed, err := cert.GenerateSelfSigned([]string{"127.0.0.1"}, time.Hour)
	require.NoError(t, err)

	broker := transport.NewBroker(transport.BrokerConfig{
		Address:   "127.0.0.1:0",
		TLSConfig: cert.ServerConfig(pair),
	})
	require.NoError(t, broker.Start(context.Background()))
	t.Cleanup(func() { broker.Stop() })

	pool := x509.NewCertPool()
	pool.AddCert(parsed)

	client, err := transport.Dial(transport.ClientConfig{
		Address:   broker.Addr().String(),
		TLSConfig: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12},
	})
	require.NoError(t, err)
	defer client.Close()

	var got string
	client.SetHandler(func(_, payload string) { got = payload })
	require.NoError(t, client.Subscribe("latch/commands"))
	require.NoError(t, client.Publish("latch/commands", "1lock"))

	deadline := time.Now().Add(2 * time.Second)
	for got == "" && time.Now().Before(deadline) {
		require.NoError(t, client.Poll())
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, "1lock", got)
}

func TestE2E_ChallengeExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	broker := startBroker(t)
	endpoint := broker.Addr().String()

	latch, events := startDevice(t, endpoint, 20*time.Millisecond)
	v := startVerifier(t, endpoint)

	require.NoError(t, v.client.Publish(device.DefaultCommandTopic, "1lock"))
	payload := v.awaitChallenge(t)

	awaitEvent(t, events, device.EventChallengeExpired)

	v.answer(t, payload, 1)
	awaitEvent(t, events, device.EventCommandRejected)
	assert.Empty(t, latch.History())
}
