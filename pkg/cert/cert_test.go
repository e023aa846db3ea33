package cert

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSelfSigned(t *testing.T) {
	pair, parsed, err := GenerateSelfSigned([]string{"hub.local", "192.168.1.10"}, 0)
	require.NoError(t, err)

	assert.Equal(t, "latch-broker", parsed.Subject.CommonName)
	assert.Contains(t, parsed.DNSNames, "hub.local")
	require.Len(t, parsed.IPAddresses, 1)
	assert.Equal(t, "192.168.1.10", parsed.IPAddresses[0].String())
	assert.True(t, parsed.NotAfter.After(time.Now().Add(300*24*time.Hour)))

	// The pair must verify against itself, as a device trusting the
	// broker's own certificate would.
	pool := x509.NewCertPool()
	pool.AddCert(parsed)
	_, err = parsed.Verify(x509.VerifyOptions{Roots: pool, DNSName: "hub.local"})
	require.NoError(t, err)

	assert.NotNil(t, pair.PrivateKey)
}

func TestPEMRoundTrip(t *testing.T) {
	_, parsed, err := GenerateSelfSigned([]string{"hub.local"}, time.Hour)
	require.NoError(t, err)

	decoded, err := DecodeCertPEM(EncodeCertPEM(parsed))
	require.NoError(t, err)
	assert.True(t, decoded.Equal(parsed))

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	data, err := EncodeKeyPEM(key)
	require.NoError(t, err)
	decodedKey, err := DecodeKeyPEM(data)
	require.NoError(t, err)
	assert.True(t, key.Equal(decodedKey))
}

func TestDecodeErrors(t *testing.T) {
	_, err := DecodeCertPEM([]byte("not pem"))
	assert.ErrorIs(t, err, ErrInvalidPEM)

	_, err = DecodeKeyPEM([]byte("not pem"))
	assert.ErrorIs(t, err, ErrInvalidPEM)
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "broker.crt")
	keyFile := filepath.Join(dir, "broker.key")

	pair, _, err := GenerateSelfSigned([]string{"127.0.0.1"}, time.Hour)
	require.NoError(t, err)

	require.NoError(t, SaveKeyPair(certFile, keyFile, pair))

	loaded, err := LoadKeyPair(certFile, keyFile)
	require.NoError(t, err)
	assert.NotEmpty(t, loaded.Certificate)

	config, err := ClientConfig(certFile)
	require.NoError(t, err)
	assert.NotNil(t, config.RootCAs)
}
