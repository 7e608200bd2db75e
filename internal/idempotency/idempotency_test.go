package idempotency

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssbking/personal-digital-authority/internal/model"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func result(taskID string) model.ExecutionResult {
	return model.ExecutionResult{
		Status: model.StatusSuccess,
		Output: &model.ExecutionOutput{
			TaskID:       taskID,
			CapabilityID: "FILE_COPY",
			Summary:      map[string]string{"operation": "copy"},
		},
		Signature: []byte{0x01, 0x02, 0x03},
	}
}

func TestGet_Miss(t *testing.T) {
	s := openStore(t)
	_, ok, err := s.Get("unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutGet_RoundTrip(t *testing.T) {
	s := openStore(t)
	want := result("task-1")
	require.NoError(t, s.Put("task-1", want))

	got, ok, err := s.Get("task-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestPut_FirstRecordingWins(t *testing.T) {
	s := openStore(t)
	first := result("task-1")
	require.NoError(t, s.Put("task-1", first))

	second := result("task-1")
	second.Output.Summary["operation"] = "move"
	require.NoError(t, s.Put("task-1", second))

	got, ok, err := s.Get("task-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "copy", got.Output.Summary["operation"])
}

func TestStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put("task-1", result("task-1")))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	_, ok, err := s.Get("task-1")
	require.NoError(t, err)
	assert.True(t, ok)
}
