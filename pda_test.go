package pda

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKernel(t *testing.T, base string) *Kernel {
	t.Helper()
	t.Setenv("PDA_ALLOWED_BASE_DIRS", base)
	t.Setenv("PDA_RECOVERY_DIR", filepath.Join(base, ".recovery"))
	t.Setenv("PDA_FILE_SCOPES", "docs="+filepath.Join(base, "docs"))

	k, err := New(
		WithTrust(TrustSnapshot{TrustScore: 0.8, MinimumRequired: 0.5}),
		WithRevocations(nil),
		WithClock(func() int64 { return 1_700_000_000_000 }),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = k.Close() })
	return k
}

func TestSubmit_FileMoveThroughPublicSurface(t *testing.T) {
	base := t.TempDir()
	source := filepath.Join(base, "a.txt")
	dest := filepath.Join(base, "b.txt")
	require.NoError(t, os.WriteFile(source, []byte("payload"), 0o600))

	k := newTestKernel(t, base)
	outcome := k.Submit(context.Background(), SubmitRequest{
		Text:        fmt.Sprintf("SUBJECT(USER,alice) VERB(MUTATE,MOVE) OBJECT(FILE,%s) META(home,true,LOW,false)", source),
		Supplements: map[string]string{"destination_path": dest},
	})

	require.Nil(t, outcome.Rejection)
	require.NotNil(t, outcome.Result)
	assert.Equal(t, "FILE_MOVE", outcome.CapabilityID)
	assert.Equal(t, "SUCCESS", outcome.Result.Status)
	assert.Equal(t, source, outcome.Result.UndoMetadata["original_path"])
	assert.NotEmpty(t, outcome.Result.Signature)
	require.NotNil(t, outcome.Lease)
	assert.Equal(t, outcome.TaskID, outcome.Lease.TaskID)
}

func TestSubmit_RejectionsCarryStageAndCode(t *testing.T) {
	base := t.TempDir()
	k := newTestKernel(t, base)

	outcome := k.Submit(context.Background(), SubmitRequest{Text: "not a statement"})
	require.NotNil(t, outcome.Rejection)
	assert.Equal(t, StageValidate, outcome.Rejection.Stage)
	assert.Equal(t, "SYNTAX_ERROR", outcome.Rejection.Code)
	assert.Nil(t, outcome.Result)
}

func TestSubmit_RevocationThroughOptions(t *testing.T) {
	base := t.TempDir()
	source := filepath.Join(base, "a.txt")
	require.NoError(t, os.WriteFile(source, []byte("x"), 0o600))

	probe := newTestKernel(t, base)
	text := fmt.Sprintf("SUBJECT(USER,alice) VERB(MUTATE,MOVE) OBJECT(FILE,%s) META(home,true,LOW,false)", source)
	supplements := map[string]string{"destination_path": filepath.Join(base, "b.txt")}

	first := probe.Submit(context.Background(), SubmitRequest{Text: text, Supplements: supplements})
	require.Nil(t, first.Rejection)

	t.Setenv("PDA_ALLOWED_BASE_DIRS", base)
	revoked, err := New(
		WithTrust(TrustSnapshot{TrustScore: 0.8, MinimumRequired: 0.5}),
		WithRevocations([]string{first.TaskID}),
	)
	require.NoError(t, err)
	defer func() { _ = revoked.Close() }()

	second := revoked.Submit(context.Background(), SubmitRequest{Text: text, Supplements: supplements})
	require.NotNil(t, second.Rejection)
	assert.Equal(t, StageLease, second.Rejection.Stage)
	assert.Equal(t, "LEASE_REVOKED", second.Rejection.Code)
}

// recordingStore is a ResultStore embedders might supply: an in-memory
// byte store that remembers what was written.
type recordingStore struct {
	blobs map[string][]byte
	puts  int
}

func newRecordingStore() *recordingStore {
	return &recordingStore{blobs: make(map[string][]byte)}
}

func (s *recordingStore) Get(taskID string) ([]byte, bool, error) {
	raw, ok := s.blobs[taskID]
	return raw, ok, nil
}

func (s *recordingStore) Put(taskID string, result []byte) error {
	if _, exists := s.blobs[taskID]; !exists {
		s.blobs[taskID] = result
		s.puts++
	}
	return nil
}

// staticEmails is a minimal external EmailSource.
type staticEmails []EmailRecord

func (s staticEmails) Emails() ([]EmailRecord, error) { return s, nil }

func TestSubmit_CustomResultStore(t *testing.T) {
	base := t.TempDir()
	source := filepath.Join(base, "a.txt")
	dest := filepath.Join(base, "copy.txt")
	require.NoError(t, os.WriteFile(source, []byte("payload"), 0o600))

	t.Setenv("PDA_ALLOWED_BASE_DIRS", base)
	store := newRecordingStore()
	k, err := New(
		WithTrust(TrustSnapshot{TrustScore: 0.8, MinimumRequired: 0.5}),
		WithClock(func() int64 { return 1_700_000_000_000 }),
		WithResultStore(store),
	)
	require.NoError(t, err)
	defer func() { _ = k.Close() }()

	req := SubmitRequest{
		Text:        fmt.Sprintf("SUBJECT(USER,alice) VERB(DISSEMINATE,COPY) OBJECT(FILE,%s) META(home,true,LOW,false)", source),
		Supplements: map[string]string{"destination_path": dest},
	}

	first := k.Submit(context.Background(), req)
	require.Nil(t, first.Rejection)
	assert.Equal(t, 1, store.puts, "the signed result lands in the supplied store")

	second := k.Submit(context.Background(), req)
	require.Nil(t, second.Rejection)
	assert.Equal(t, 1, store.puts, "replay reads the store instead of re-copying")
	assert.Equal(t, first.Result, second.Result)
}

func TestSubmit_CustomEmailSource(t *testing.T) {
	base := t.TempDir()
	t.Setenv("PDA_ALLOWED_BASE_DIRS", base)

	ts := int64(1000)
	k, err := New(
		WithTrust(TrustSnapshot{TrustScore: 0.8, MinimumRequired: 0.5}),
		WithEmailSource("inbox", staticEmails{
			{ID: "m1", From: "a@x", Subject: "invoice january", ReceivedAt: &ts},
		}),
	)
	require.NoError(t, err)
	defer func() { _ = k.Close() }()

	outcome := k.Submit(context.Background(), SubmitRequest{
		Text:        "SUBJECT(USER,alice) VERB(TRANSFORM,SEARCH) OBJECT(EMAIL,inbox) META(mail,true,LOW,false)",
		Supplements: map[string]string{"query": "invoice", "max_results": "5"},
	})

	require.Nil(t, outcome.Rejection)
	require.NotNil(t, outcome.Result.Search)
	require.Equal(t, 1, outcome.Result.Search.Count)
	assert.Equal(t, "m1", outcome.Result.Search.Results[0].ID)
}

func TestSubmit_SearchThroughPublicSurface(t *testing.T) {
	base := t.TempDir()
	docs := filepath.Join(base, "docs")
	require.NoError(t, os.MkdirAll(docs, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "notes.md"), []byte("x"), 0o600))

	k := newTestKernel(t, base)
	outcome := k.Submit(context.Background(), SubmitRequest{
		Text:        "SUBJECT(USER,alice) VERB(TRANSFORM,SEARCH) OBJECT(FOLDER,docs) META(home,true,LOW,false)",
		Supplements: map[string]string{"query": "notes", "max_results": "5"},
	})

	require.Nil(t, outcome.Rejection)
	require.NotNil(t, outcome.Result.Search)
	assert.Equal(t, 1, outcome.Result.Search.Count)
	assert.False(t, outcome.Result.Search.Truncated)
}
