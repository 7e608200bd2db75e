package hrc

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := Issue(priv, "task-1", true, at)
	require.NoError(t, err)

	got, err := NewVerifier(pub).Parse(token, "task-1")
	require.NoError(t, err)
	assert.True(t, got.Confirmed)
	assert.Equal(t, at.UnixMilli(), got.ConfirmedAt)
}

func TestParse_DeclinedConfirmation(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	token, err := Issue(priv, "task-1", false, time.Unix(100, 0))
	require.NoError(t, err)

	got, err := NewVerifier(pub).Parse(token, "task-1")
	require.NoError(t, err)
	assert.False(t, got.Confirmed, "a declined confirmation parses but stays unconfirmed")
}

func TestParse_WrongTask(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	token, err := Issue(priv, "task-1", true, time.Unix(100, 0))
	require.NoError(t, err)

	_, err = NewVerifier(pub).Parse(token, "task-2")
	assert.Error(t, err, "a confirmation must bind to exactly one task")
}

func TestParse_WrongKey(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	token, err := Issue(priv, "task-1", true, time.Unix(100, 0))
	require.NoError(t, err)

	_, err = NewVerifier(otherPub).Parse(token, "task-1")
	assert.Error(t, err)
}
