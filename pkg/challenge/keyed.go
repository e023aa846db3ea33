package challenge

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

// Key derivation parameters for KeyedDigester.
const (
	keyIterations = 4096
	keyLength     = 32
)

// KeyedDigester computes HMAC-SHA256 digests of nonces using a key derived
// from a per-device secret. Unlike Digest, a matching response proves
// possession of the secret, not just observation of the broadcast nonce.
//
// The deployment must opt in on both sides: the verifier needs the same
// secret and salt to reproduce the key.
type KeyedDigester struct {
	key []byte
}

// NewKeyedDigester derives an HMAC key from secret and salt via PBKDF2.
// The secret is typically established during provisioning and never
// transmitted; the salt only needs to be unique per device.
func NewKeyedDigester(secret, salt []byte) *KeyedDigester {
	return &KeyedDigester{
		key: pbkdf2.Key(secret, salt, keyIterations, keyLength, sha256.New),
	}
}

// Digest returns the hex-encoded HMAC-SHA256 of the nonce.
func (d *KeyedDigester) Digest(n Nonce) string {
	mac := hmac.New(sha256.New, d.key)
	mac.Write([]byte(n))
	return hex.EncodeToString(mac.Sum(nil))
}
