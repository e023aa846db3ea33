package transport

import (
	"errors"
	"testing"
)

func TestMemoryBusDelivery(t *testing.T) {
	bus := NewMemoryBus()
	device := bus.Endpoint()
	verifier := bus.Endpoint()

	if err := device.Subscribe("latch/commands"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	var got []string
	device.SetHandler(func(topic, payload string) {
		got = append(got, topic+"|"+payload)
	})

	if err := verifier.Publish("latch/commands", "1lock"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := verifier.Publish("latch/commands", "2unlock"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	// One message per poll, in delivery order.
	if err := device.Poll(); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if len(got) != 1 || got[0] != "latch/commands|1lock" {
		t.Fatalf("after first poll got = %v", got)
	}

	device.Poll()
	if len(got) != 2 || got[1] != "latch/commands|2unlock" {
		t.Fatalf("after second poll got = %v", got)
	}

	// Quiet channel: poll is a no-op.
	device.Poll()
	if len(got) != 2 {
		t.Errorf("poll on empty queue dispatched a message")
	}
}

func TestMemoryEndpointIgnoresUnsubscribedTopics(t *testing.T) {
	bus := NewMemoryBus()
	device := bus.Endpoint()
	verifier := bus.Endpoint()

	device.Subscribe("latch/commands")
	device.SetHandler(func(string, string) { t.Error("handler invoked for unsubscribed topic") })

	verifier.Publish("latch/validation/requests", "1KXQPLRZA")
	device.Poll()
}

func TestMemoryEndpointClose(t *testing.T) {
	bus := NewMemoryBus()
	ep := bus.Endpoint()

	if err := ep.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := ep.Poll(); !errors.Is(err, ErrClosed) {
		t.Errorf("Poll() after close error = %v, want ErrClosed", err)
	}
	if err := ep.Publish("latch/commands", "1lock"); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish() after close error = %v, want ErrClosed", err)
	}
	if err := ep.Subscribe("latch/commands"); !errors.Is(err, ErrClosed) {
		t.Errorf("Subscribe() after close error = %v, want ErrClosed", err)
	}
}

func TestMemoryBadTopic(t *testing.T) {
	bus := NewMemoryBus()
	ep := bus.Endpoint()

	if err := ep.Subscribe("bad topic"); !errors.Is(err, ErrBadTopic) {
		t.Errorf("Subscribe() error = %v, want ErrBadTopic", err)
	}
	if err := ep.Publish("", "x"); !errors.Is(err, ErrBadTopic) {
		t.Errorf("Publish() error = %v, want ErrBadTopic", err)
	}
}
