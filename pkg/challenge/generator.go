package challenge

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"strconv"
	"sync"
	"time"
)

// Nonce constants.
const (
	// NonceLength is the number of characters in a nonce.
	NonceLength = 8

	// nonceAlphabet is the 26-symbol alphabet nonces are drawn from.
	nonceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Digest constants, shared out-of-band with the remote verifier.
// Changing either invalidates all outstanding challenges and requires
// coordinated redeployment of the verifier.
const (
	// Seed is the initial digest accumulator value.
	Seed = 5381

	// Prime is the digest modulus; digests lie in [0, Prime).
	Prime = 65521
)

// Nonce is a single-use random token generated per challenge.
type Nonce string

// String returns the nonce characters.
func (n Nonce) String() string {
	return string(n)
}

// Generator produces unpredictable nonces. It is seeded once per boot so
// challenge sequences differ across restarts. The generator is not
// cryptographically secure; see the package documentation.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a generator seeded from the operating system's
// entropy source, falling back to the wall clock if entropy is unavailable.
func NewGenerator() *Generator {
	var buf [8]byte
	seed := time.Now().UnixNano()
	if _, err := cryptorand.Read(buf[:]); err == nil {
		seed ^= int64(binary.BigEndian.Uint64(buf[:]))
	}
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// NewSeededGenerator creates a generator with a fixed seed.
// Only useful for reproducing nonce sequences in tests.
func NewSeededGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// NextNonce returns a fresh nonce of NonceLength characters drawn
// uniformly from A-Z.
func (g *Generator) NextNonce() Nonce {
	g.mu.Lock()
	defer g.mu.Unlock()

	var buf [NonceLength]byte
	for i := range buf {
		buf[i] = nonceAlphabet[g.rng.Intn(len(nonceAlphabet))]
	}
	return Nonce(buf[:])
}

// Digest computes the keyless checksum of a nonce as a decimal string.
// Starting from Seed, each nonce byte is folded in as h = h*33 + b,
// reduced mod Prime every step. Deterministic given fixed Seed/Prime;
// the result is always in [0, Prime).
func Digest(n Nonce) string {
	h := uint32(Seed)
	for i := 0; i < len(n); i++ {
		h = h*33 + uint32(n[i])
		h %= Prime
	}
	return strconv.FormatUint(uint64(h), 10)
}
