package executor

import (
	"crypto/ed25519"
	"fmt"

	"github.com/ssbking/personal-digital-authority/internal/canonical"
	"github.com/ssbking/personal-digital-authority/internal/model"
)

// resultMessage is the signed binding of a result: task_id, capability_id,
// status, and the canonical encoding of whichever payload is present.
func resultMessage(taskID, capabilityID string, status model.Status, payload any) ([]byte, error) {
	body, err := canonical.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("executor: canonicalize payload: %w", err)
	}
	return canonical.NewMessage().
		String(taskID).
		String(capabilityID).
		String(string(status)).
		String(string(body)).
		Bytes(), nil
}

// ResultSigner signs execution results with the executor's own private key.
// The kernel holds only the matching public key.
type ResultSigner struct {
	priv ed25519.PrivateKey
}

// NewResultSigner wraps an executor Ed25519 private key.
func NewResultSigner(priv ed25519.PrivateKey) *ResultSigner {
	return &ResultSigner{priv: priv}
}

func (s *ResultSigner) sign(taskID, capabilityID string, status model.Status, payload any) ([]byte, error) {
	msg, err := resultMessage(taskID, capabilityID, status, payload)
	if err != nil {
		return nil, err
	}
	return ed25519.Sign(s.priv, msg), nil
}

// VerifyResult checks a result signature against the executor's public key.
// The capability and task identifiers come from the manifest the caller
// holds, not from the (attacker-controllable) result body.
func VerifyResult(pub ed25519.PublicKey, taskID, capabilityID string, result model.ExecutionResult) bool {
	if !result.Disjoint() {
		return false
	}
	var payload any
	if result.Status == model.StatusSuccess {
		payload = result.Output
	} else {
		payload = result.Error
	}
	msg, err := resultMessage(taskID, capabilityID, result.Status, payload)
	if err != nil {
		return false
	}
	return ed25519.Verify(pub, msg, result.Signature)
}
