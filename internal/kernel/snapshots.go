package kernel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ssbking/personal-digital-authority/internal/model"
)

// readSecretFile loads the deployment master secret, trimming a trailing
// newline so `openssl rand -hex 32 > secret` works as-is.
func readSecretFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // path comes from validated config, not user input
	if err != nil {
		return nil, fmt.Errorf("kernel: read master secret: %w", err)
	}
	secret := bytes.TrimRight(raw, "\r\n")
	if len(secret) == 0 {
		return nil, fmt.Errorf("kernel: master secret file %q is empty", path)
	}
	return secret, nil
}

// loadTrustSnapshot reads the read-only trust view the lease manager
// consumes. The kernel never writes trust state back.
func loadTrustSnapshot(path string) (model.TrustSnapshot, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // path comes from validated config, not user input
	if err != nil {
		return model.TrustSnapshot{}, fmt.Errorf("kernel: read trust snapshot: %w", err)
	}
	var snapshot model.TrustSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return model.TrustSnapshot{}, fmt.Errorf("kernel: decode trust snapshot: %w", err)
	}
	return snapshot, nil
}

// loadRevocations reads the revocation snapshot: a JSON array of revoked
// task IDs. A missing path yields an empty (but present) view; an
// unreadable file is an error, never an open gate.
func loadRevocations(path string) (model.RevocationSet, error) {
	if path == "" {
		return model.RevocationSet{}, nil
	}
	raw, err := os.ReadFile(path) //nolint:gosec // path comes from validated config, not user input
	if err != nil {
		return nil, fmt.Errorf("kernel: read revocation list: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("kernel: decode revocation list: %w", err)
	}
	set := make(model.RevocationSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
