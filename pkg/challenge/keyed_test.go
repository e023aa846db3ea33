package challenge

import "testing"

func TestKeyedDigestDeterministic(t *testing.T) {
	a := NewKeyedDigester([]byte("door-secret"), []byte("device-0001"))
	b := NewKeyedDigester([]byte("door-secret"), []byte("device-0001"))

	n := Nonce("KXQPLRZA")
	if a.Digest(n) != b.Digest(n) {
		t.Error("identical secret/salt produced different digests")
	}
}

func TestKeyedDigestDependsOnSecret(t *testing.T) {
	a := NewKeyedDigester([]byte("door-secret"), []byte("device-0001"))
	b := NewKeyedDigester([]byte("other-secret"), []byte("device-0001"))

	n := Nonce("KXQPLRZA")
	if a.Digest(n) == b.Digest(n) {
		t.Error("different secrets produced the same digest")
	}
}

func TestKeyedDigestDependsOnNonce(t *testing.T) {
	d := NewKeyedDigester([]byte("door-secret"), []byte("device-0001"))

	if d.Digest("AAAAAAAA") == d.Digest("AAAAAAAB") {
		t.Error("different nonces produced the same digest")
	}
}
