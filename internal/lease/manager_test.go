package lease

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssbking/personal-digital-authority/internal/model"
)

const ttl = int64(60_000)

func testManager(t *testing.T) (*Manager, *HMACSigner) {
	t.Helper()
	signer, err := NewHMACSigner([]byte("test-master-secret"))
	require.NoError(t, err)
	m, err := NewManager(signer, ttl)
	require.NoError(t, err)
	return m, signer
}

func manifest() model.TaskManifest {
	return model.TaskManifest{
		TaskID:       "4ac1b2d3",
		CapabilityID: "FILE_MOVE",
		Inputs:       map[string]string{"source_path": "/a", "destination_path": "/b"},
		Constraints:  model.Constraints{Scope: "home", Reversible: true, Sensitivity: model.SensitivityLow},
		Provenance:   model.Provenance{ASTHash: "deadbeef"},
	}
}

func request() Request {
	return Request{
		Manifest:    manifest(),
		Trust:       model.TrustSnapshot{TrustScore: 0.8, MinimumRequired: 0.5},
		Now:         1_000_000,
		Revocations: model.RevocationSet{},
	}
}

func TestEvaluate_Grant(t *testing.T) {
	m, signer := testManager(t)

	lease, lerr := m.Evaluate(request())
	require.Nil(t, lerr)

	assert.Equal(t, "4ac1b2d3", lease.TaskID)
	assert.Equal(t, int64(1_000_000), lease.IssuedAt)
	assert.Equal(t, int64(1_000_000)+ttl, lease.ExpiresAt)
	assert.True(t, Verify(signer, lease, 1_000_001))
}

func TestEvaluate_DeterministicSignature(t *testing.T) {
	m, _ := testManager(t)

	l1, e1 := m.Evaluate(request())
	l2, e2 := m.Evaluate(request())
	require.Nil(t, e1)
	require.Nil(t, e2)
	assert.Equal(t, l1.Signature, l2.Signature, "identical inputs must yield identical signatures")
	assert.Equal(t, l1, l2)
}

func TestEvaluate_InvalidManifest(t *testing.T) {
	m, _ := testManager(t)

	for name, mutate := range map[string]func(*model.TaskManifest){
		"empty task_id":       func(tm *model.TaskManifest) { tm.TaskID = "" },
		"empty capability_id": func(tm *model.TaskManifest) { tm.CapabilityID = "" },
		"no inputs":           func(tm *model.TaskManifest) { tm.Inputs = nil },
		"no ast_hash":         func(tm *model.TaskManifest) { tm.Provenance.ASTHash = "" },
	} {
		t.Run(name, func(t *testing.T) {
			req := request()
			mutate(&req.Manifest)
			_, lerr := m.Evaluate(req)
			require.NotNil(t, lerr)
			assert.Equal(t, model.CodeInvalidManifest, lerr.Code)
		})
	}
}

func TestEvaluate_InsufficientTrust(t *testing.T) {
	m, _ := testManager(t)
	req := request()
	req.Trust = model.TrustSnapshot{TrustScore: 0.4, MinimumRequired: 0.5}
	_, lerr := m.Evaluate(req)
	require.NotNil(t, lerr)
	assert.Equal(t, model.CodeInsufficientTrust, lerr.Code)
}

func TestEvaluate_TrustExactlyAtThreshold(t *testing.T) {
	m, _ := testManager(t)
	req := request()
	req.Trust = model.TrustSnapshot{TrustScore: 0.5, MinimumRequired: 0.5}
	_, lerr := m.Evaluate(req)
	assert.Nil(t, lerr)
}

func TestEvaluate_HRCGate(t *testing.T) {
	m, _ := testManager(t)

	req := request()
	req.Manifest.Constraints.HRCRequired = true

	_, lerr := m.Evaluate(req)
	require.NotNil(t, lerr)
	assert.Equal(t, model.CodeHRCRequired, lerr.Code)

	req.HRC = &model.HRCToken{Confirmed: false, ConfirmedAt: 999_000}
	_, lerr = m.Evaluate(req)
	require.NotNil(t, lerr)
	assert.Equal(t, model.CodeHRCRequired, lerr.Code)

	req.HRC = &model.HRCToken{Confirmed: true, ConfirmedAt: 999_000}
	_, lerr = m.Evaluate(req)
	assert.Nil(t, lerr)
}

func TestEvaluate_Revoked(t *testing.T) {
	m, _ := testManager(t)

	req := request()
	req.Revocations = model.RevocationSet{"4ac1b2d3": {}}
	_, lerr := m.Evaluate(req)
	require.NotNil(t, lerr)
	assert.Equal(t, model.CodeLeaseRevoked, lerr.Code)
}

func TestEvaluate_NoRevocationViewFailsClosed(t *testing.T) {
	m, _ := testManager(t)

	req := request()
	req.Revocations = nil
	_, lerr := m.Evaluate(req)
	require.NotNil(t, lerr)
	assert.Equal(t, model.CodeLeaseRevoked, lerr.Code)
}

func TestEvaluate_ExpectedExpiryBound(t *testing.T) {
	m, _ := testManager(t)

	req := request()
	req.NotAfter = req.Now // already at the bound
	_, lerr := m.Evaluate(req)
	require.NotNil(t, lerr)
	assert.Equal(t, model.CodeLeaseExpired, lerr.Code)
}

func TestVerify_WindowAndSignature(t *testing.T) {
	m, signer := testManager(t)
	lease, lerr := m.Evaluate(request())
	require.Nil(t, lerr)

	assert.True(t, Verify(signer, lease, lease.IssuedAt))
	assert.True(t, Verify(signer, lease, lease.ExpiresAt-1))
	assert.False(t, Verify(signer, lease, lease.ExpiresAt), "lease is inert at expiry")
	assert.False(t, Verify(signer, lease, lease.IssuedAt-1), "lease is inert before issue")

	tampered := lease
	tampered.ExpiresAt += 1_000_000
	assert.False(t, Verify(signer, tampered, lease.IssuedAt), "extending the window breaks the signature")
}

func TestEd25519Scheme(t *testing.T) {
	priv, pub, err := GenerateEphemeralKeyPair()
	require.NoError(t, err)

	m, err := NewManager(NewEd25519Signer(priv), ttl)
	require.NoError(t, err)

	lease, lerr := m.Evaluate(request())
	require.Nil(t, lerr)

	v := NewEd25519Verifier(pub)
	assert.True(t, Verify(v, lease, lease.IssuedAt))

	// Ed25519 is deterministic under a fixed key: re-evaluating yields the
	// same signature bytes.
	lease2, lerr := m.Evaluate(request())
	require.Nil(t, lerr)
	assert.Equal(t, lease.Signature, lease2.Signature)
}

func TestHMACSigner_KeyDerivationIsStable(t *testing.T) {
	s1, err := NewHMACSigner([]byte("secret"))
	require.NoError(t, err)
	s2, err := NewHMACSigner([]byte("secret"))
	require.NoError(t, err)

	msg := Message("t", 1, 2)
	assert.Equal(t, s1.Sign(msg), s2.Sign(msg))

	s3, err := NewHMACSigner([]byte("other-secret"))
	require.NoError(t, err)
	assert.NotEqual(t, s1.Sign(msg), s3.Sign(msg))
}
