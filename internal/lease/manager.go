// Package lease issues cryptographically verifiable, time-bounded execution
// authority for compiled task manifests. Evaluation is a pure function of
// its arguments: the trust matrix and revocation list arrive as read-only
// snapshots and are never written back.
package lease

import (
	"fmt"

	"github.com/ssbking/personal-digital-authority/internal/model"
)

// Error is a typed lease denial.
type Error struct {
	Code    model.ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Request carries everything a single lease evaluation sees. Now and
// NotAfter are milliseconds since the Unix epoch; NotAfter is an optional
// caller-supplied expiry upper bound (zero means none).
type Request struct {
	Manifest    model.TaskManifest
	Trust       model.TrustSnapshot
	Now         int64
	NotAfter    int64
	HRC         *model.HRCToken
	Revocations model.RevocationView
}

// Manager evaluates lease requests and issues signed tokens. The lease
// duration is a deployment constant, not a per-call choice.
type Manager struct {
	signer    Signer
	ttlMillis int64
}

// NewManager creates a Manager issuing leases of the given duration.
func NewManager(signer Signer, ttlMillis int64) (*Manager, error) {
	if signer == nil {
		return nil, fmt.Errorf("lease: signer is required")
	}
	if ttlMillis <= 0 {
		return nil, fmt.Errorf("lease: ttl must be positive, got %d", ttlMillis)
	}
	return &Manager{signer: signer, ttlMillis: ttlMillis}, nil
}

// Evaluate runs the decision pipeline in strict order: manifest integrity,
// time window, trust threshold, HRC gate, revocation. The first failure
// denies; a grant issues a token valid for [now, now+D).
func (m *Manager) Evaluate(req Request) (model.LeaseToken, *Error) {
	if lerr := checkManifest(req.Manifest); lerr != nil {
		return model.LeaseToken{}, lerr
	}

	if req.Now < 0 {
		return model.LeaseToken{}, &Error{Code: model.CodeLeaseExpired, Message: "evaluation time is negative"}
	}
	if req.NotAfter > 0 && req.Now >= req.NotAfter {
		return model.LeaseToken{}, &Error{Code: model.CodeLeaseExpired, Message: "evaluation time past expected expiry"}
	}

	if req.Trust.TrustScore < req.Trust.MinimumRequired {
		return model.LeaseToken{}, &Error{
			Code:    model.CodeInsufficientTrust,
			Message: fmt.Sprintf("trust score %g below minimum %g", req.Trust.TrustScore, req.Trust.MinimumRequired),
		}
	}

	if req.Manifest.Constraints.HRCRequired {
		if req.HRC == nil {
			return model.LeaseToken{}, &Error{Code: model.CodeHRCRequired, Message: "hardware confirmation required but not provided"}
		}
		if !req.HRC.Confirmed {
			return model.LeaseToken{}, &Error{Code: model.CodeHRCRequired, Message: "hardware confirmation not confirmed"}
		}
	}

	// Fail closed: no revocation view means validity cannot be established.
	if req.Revocations == nil {
		return model.LeaseToken{}, &Error{Code: model.CodeLeaseRevoked, Message: "no revocation view available"}
	}
	if req.Revocations.IsRevoked(req.Manifest.TaskID) {
		return model.LeaseToken{}, &Error{Code: model.CodeLeaseRevoked, Message: "task is revoked"}
	}

	issuedAt := req.Now
	expiresAt := req.Now + m.ttlMillis
	return model.LeaseToken{
		TaskID:    req.Manifest.TaskID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
		Signature: m.signer.Sign(Message(req.Manifest.TaskID, issuedAt, expiresAt)),
	}, nil
}

// Verify checks a lease token against verification material at a point in
// time: signature validity, window membership, and issue-before-use.
func Verify(v Verifier, lease model.LeaseToken, now int64) bool {
	if !v.Verify(Message(lease.TaskID, lease.IssuedAt, lease.ExpiresAt), lease.Signature) {
		return false
	}
	if now >= lease.ExpiresAt {
		return false
	}
	return lease.IssuedAt <= now
}

func checkManifest(m model.TaskManifest) *Error {
	if m.TaskID == "" {
		return &Error{Code: model.CodeInvalidManifest, Message: "task_id is empty"}
	}
	if m.CapabilityID == "" {
		return &Error{Code: model.CodeInvalidManifest, Message: "capability_id is empty"}
	}
	if len(m.Inputs) == 0 {
		return &Error{Code: model.CodeInvalidManifest, Message: "inputs are empty"}
	}
	if m.Provenance.ASTHash == "" {
		return &Error{Code: model.CodeInvalidManifest, Message: "provenance ast_hash is empty"}
	}
	return nil
}
