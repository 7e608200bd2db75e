package lease

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// LoadEd25519PrivateKey reads a PKCS#8 PEM private key file.
func LoadEd25519PrivateKey(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // paths come from validated config, not user input
	if err != nil {
		return nil, fmt.Errorf("lease: read private key: %w", err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("lease: decode private key PEM")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("lease: parse private key: %w", err)
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("lease: private key is not Ed25519")
	}
	return priv, nil
}

// LoadEd25519PublicKey reads a PKIX PEM public key file.
func LoadEd25519PublicKey(path string) (ed25519.PublicKey, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // paths come from validated config, not user input
	if err != nil {
		return nil, fmt.Errorf("lease: read public key: %w", err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("lease: decode public key PEM")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("lease: parse public key: %w", err)
	}
	pub, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("lease: public key is not Ed25519")
	}
	return pub, nil
}

// LoadEd25519KeyPair loads both halves and verifies they belong together,
// catching a private key deployed with the wrong public key.
func LoadEd25519KeyPair(privatePath, publicPath string) (ed25519.PrivateKey, ed25519.PublicKey, error) {
	priv, err := LoadEd25519PrivateKey(privatePath)
	if err != nil {
		return nil, nil, err
	}
	pub, err := LoadEd25519PublicKey(publicPath)
	if err != nil {
		return nil, nil, err
	}
	derived := priv.Public().(ed25519.PublicKey)
	if !bytes.Equal(derived, pub) {
		return nil, nil, fmt.Errorf("lease: public key does not match private key")
	}
	return priv, pub, nil
}

// GenerateEphemeralKeyPair creates a throwaway Ed25519 pair for development
// deployments with no key files configured. Never for production.
func GenerateEphemeralKeyPair() (ed25519.PrivateKey, ed25519.PublicKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("lease: generate key pair: %w", err)
	}
	return priv, pub, nil
}
