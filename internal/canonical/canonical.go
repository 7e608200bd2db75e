// Package canonical provides the single canonical JSON encoding used for
// every hash and signature input in the kernel: RFC 8785 (JCS) bytes — UTF-8,
// no whitespace, keys sorted by code point, minimal number form. All
// functions are pure and deterministic.
package canonical

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gowebpki/jcs"
)

// Marshal returns the canonical JSON bytes for v. Identical values yield
// byte-identical output across runs and platforms.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical: marshal: %w", err)
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonical: transform: %w", err)
	}
	return out, nil
}

// Hash returns the lower-case hex SHA-256 digest of the canonical JSON
// bytes of v.
func Hash(v any) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return HashBytes(b), nil
}

// HashBytes returns the lower-case hex SHA-256 digest of raw bytes.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Message builds the fixed binary encoding used for signature inputs. Each
// field is a 4-byte big-endian length prefix followed by the field bytes,
// which avoids delimiter collisions between fields.
type Message struct {
	buf []byte
}

// NewMessage returns an empty signature message.
func NewMessage() *Message {
	return &Message{}
}

// String appends a string field.
func (m *Message) String(s string) *Message {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	m.buf = append(m.buf, lenBuf[:]...)
	m.buf = append(m.buf, s...)
	return m
}

// Int64 appends an integer field in minimal decimal form.
func (m *Message) Int64(n int64) *Message {
	return m.String(strconv.FormatInt(n, 10))
}

// Bytes returns the accumulated message bytes.
func (m *Message) Bytes() []byte {
	return m.buf
}
