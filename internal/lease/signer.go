package lease

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/ssbking/personal-digital-authority/internal/canonical"
)

// Signer produces lease signatures. Identical inputs yield identical
// signatures: no nonces, no randomness.
type Signer interface {
	Sign(message []byte) []byte
}

// Verifier checks lease signatures. Executors in a separate trust domain
// hold only a Verifier, never the kernel's signing material.
type Verifier interface {
	Verify(message, signature []byte) bool
}

// Message is the fixed, length-prefixed binary encoding of the signed lease
// fields. Both signing schemes sign exactly these bytes.
func Message(taskID string, issuedAt, expiresAt int64) []byte {
	return canonical.NewMessage().String(taskID).Int64(issuedAt).Int64(expiresAt).Bytes()
}

// hkdfInfo domain-separates the lease key from other keys derived from the
// same master secret.
const hkdfInfo = "pda/lease-hmac/v1"

// HMACSigner signs and verifies with HMAC-SHA256. Suitable for
// self-contained deployments where the kernel also invokes the executor.
type HMACSigner struct {
	key []byte
}

// NewHMACSigner derives the lease key from the deployment master secret via
// HKDF-SHA256.
func NewHMACSigner(masterSecret []byte) (*HMACSigner, error) {
	if len(masterSecret) == 0 {
		return nil, fmt.Errorf("lease: master secret is empty")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, masterSecret, nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("lease: derive key: %w", err)
	}
	return &HMACSigner{key: key}, nil
}

// Sign returns the HMAC-SHA256 tag over message.
func (s *HMACSigner) Sign(message []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(message)
	return mac.Sum(nil)
}

// Verify recomputes the tag and compares in constant time.
func (s *HMACSigner) Verify(message, signature []byte) bool {
	return hmac.Equal(s.Sign(message), signature)
}

// Ed25519Signer signs with the kernel's private key. Preferred when the
// executor runs in a separate trust domain: the executor verifies with the
// public key and never holds signing material.
type Ed25519Signer struct {
	priv ed25519.PrivateKey
}

// NewEd25519Signer wraps an Ed25519 private key.
func NewEd25519Signer(priv ed25519.PrivateKey) *Ed25519Signer {
	return &Ed25519Signer{priv: priv}
}

// Sign returns the Ed25519 signature over message. Ed25519 is
// deterministic: identical inputs yield identical signatures.
func (s *Ed25519Signer) Sign(message []byte) []byte {
	return ed25519.Sign(s.priv, message)
}

// Ed25519Verifier verifies lease signatures with the kernel public key.
type Ed25519Verifier struct {
	pub ed25519.PublicKey
}

// NewEd25519Verifier wraps an Ed25519 public key.
func NewEd25519Verifier(pub ed25519.PublicKey) *Ed25519Verifier {
	return &Ed25519Verifier{pub: pub}
}

// Verify reports whether signature is valid over message.
func (v *Ed25519Verifier) Verify(message, signature []byte) bool {
	return ed25519.Verify(v.pub, message, signature)
}
