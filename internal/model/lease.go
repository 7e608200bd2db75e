package model

// All timestamps in lease and HRC tokens are integer milliseconds since the
// Unix epoch, UTC. The choice is fixed for the deployment and carried through
// every comparison.

// LeaseToken is a time-bounded execution authorization for exactly one task.
// It is inert outside [IssuedAt, ExpiresAt) regardless of signature validity.
type LeaseToken struct {
	TaskID    string `json:"task_id"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
	Signature []byte `json:"signature"`
}

// TrustSnapshot is the read-only trust view consumed at the instant of lease
// evaluation. The lease manager never writes back.
type TrustSnapshot struct {
	TrustScore      float64 `json:"trust_score"`
	MinimumRequired float64 `json:"minimum_required"`
}

// HRCToken is a hardware-rooted confirmation: a physical-device
// acknowledgment required for high-sensitivity actions.
type HRCToken struct {
	Confirmed   bool  `json:"confirmed"`
	ConfirmedAt int64 `json:"confirmed_at"`
}

// RevocationView answers "is this task revoked right now" from a read-only
// snapshot. Implementations must fail closed: any doubt means revoked.
type RevocationView interface {
	IsRevoked(taskID string) bool
}

// RevocationSet is a static RevocationView over a fixed set of task IDs.
type RevocationSet map[string]struct{}

// IsRevoked reports whether taskID is in the set.
func (r RevocationSet) IsRevoked(taskID string) bool {
	_, ok := r[taskID]
	return ok
}
