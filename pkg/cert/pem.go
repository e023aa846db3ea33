package cert

import (
	"crypto/ecdsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// ErrInvalidPEM reports PEM data without the expected block.
var ErrInvalidPEM = errors.New("invalid PEM data")

// PEM block types used by broker identities.
const (
	blockCert = "CERTIFICATE"
	blockKey  = "EC PRIVATE KEY"
)

// decodeBlock extracts the DER bytes of a single PEM block of the
// given type.
func decodeBlock(data []byte, blockType string) ([]byte, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != blockType {
		return nil, fmt.Errorf("%w: expected a %s block", ErrInvalidPEM, blockType)
	}
	return block.Bytes, nil
}

// EncodeCertPEM renders a certificate as a PEM block.
func EncodeCertPEM(c *x509.Certificate) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: blockCert, Bytes: c.Raw})
}

// DecodeCertPEM parses a PEM-encoded certificate.
func DecodeCertPEM(data []byte) (*x509.Certificate, error) {
	der, err := decodeBlock(data, blockCert)
	if err != nil {
		return nil, err
	}
	return x509.ParseCertificate(der)
}

// EncodeKeyPEM renders an ECDSA private key as a PEM block.
func EncodeKeyPEM(key *ecdsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshaling key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: blockKey, Bytes: der}), nil
}

// DecodeKeyPEM parses a PEM-encoded ECDSA private key.
func DecodeKeyPEM(data []byte) (*ecdsa.PrivateKey, error) {
	der, err := decodeBlock(data, blockKey)
	if err != nil {
		return nil, err
	}
	return x509.ParseECPrivateKey(der)
}

// WriteCertFile writes a certificate to a PEM file. Devices point
// their CA bundle flag at this file to trust a self-signed broker.
func WriteCertFile(path string, c *x509.Certificate) error {
	return os.WriteFile(path, EncodeCertPEM(c), 0644)
}

// SaveKeyPair persists a generated server pair so the broker can
// present the same identity across restarts. The key file is written
// with restricted permissions.
func SaveKeyPair(certFile, keyFile string, pair tls.Certificate) error {
	if pair.Leaf == nil {
		return errors.New("key pair has no parsed leaf certificate")
	}
	key, ok := pair.PrivateKey.(*ecdsa.PrivateKey)
	if !ok {
		return errors.New("key pair does not hold an ECDSA key")
	}

	if err := WriteCertFile(certFile, pair.Leaf); err != nil {
		return err
	}
	keyPEM, err := EncodeKeyPEM(key)
	if err != nil {
		return err
	}
	return os.WriteFile(keyFile, keyPEM, 0600)
}
