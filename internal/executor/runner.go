// Package executor implements the executor contract shared by every
// capability family: the ordered pre-execution gate, task_id idempotency,
// and signed-result discipline. Concrete families plug in as Effectors.
package executor

import (
	"fmt"

	"github.com/ssbking/personal-digital-authority/internal/lease"
	"github.com/ssbking/personal-digital-authority/internal/model"
)

// Effector performs the side effects of one capability family. Run is
// called only after the gate has passed; it validates its own per-capability
// input schema and reports capability-specific failures.
type Effector interface {
	// Capabilities returns the closed capability set of this family.
	Capabilities() []string
	// Run performs the effect described by the manifest.
	Run(manifest model.TaskManifest) (*model.ExecutionOutput, *model.ExecutionError)
}

// Clock supplies the executor's notion of now in milliseconds since the
// Unix epoch. Injected so gate decisions are reproducible under test.
type Clock func() int64

// Runner wires an Effector into the executor contract. One Runner, one
// family; the host may run several Runners over disjoint task_ids.
type Runner struct {
	effector Effector
	verifier lease.Verifier
	signer   *ResultSigner
	store    ResultStore
	clock    Clock
	caps     map[string]bool
}

// NewRunner assembles a conforming executor. verifier is the kernel's
// verification material (never its signing key); signer is the executor's
// own identity.
func NewRunner(effector Effector, verifier lease.Verifier, signer *ResultSigner, store ResultStore, clock Clock) (*Runner, error) {
	if effector == nil || verifier == nil || signer == nil || store == nil || clock == nil {
		return nil, fmt.Errorf("executor: all runner components are required")
	}
	caps := make(map[string]bool)
	for _, c := range effector.Capabilities() {
		caps[c] = true
	}
	return &Runner{effector: effector, verifier: verifier, signer: signer, store: store, clock: clock, caps: caps}, nil
}

// Execute runs the pre-execution gate, replays a recorded result when the
// task already completed, and otherwise performs the effect and returns the
// signed result. Gate failures are signed FAILURE results and are never
// recorded: a later execution under a fresh lease must not replay them.
func (r *Runner) Execute(manifest model.TaskManifest, lt model.LeaseToken) model.ExecutionResult {
	now := r.clock()

	if !r.verifier.Verify(lease.Message(lt.TaskID, lt.IssuedAt, lt.ExpiresAt), lt.Signature) {
		return r.failure(manifest, model.CodeInvalidLease, "lease signature verification failed")
	}
	if lt.TaskID != manifest.TaskID {
		return r.failure(manifest, model.CodeInvalidLease, "lease is bound to a different task")
	}
	if now >= lt.ExpiresAt {
		return r.failure(manifest, model.CodeLeaseExpired, "lease has expired")
	}
	if !r.caps[manifest.CapabilityID] {
		return r.failure(manifest, model.CodeUnsupportedCapability,
			fmt.Sprintf("capability %s is outside this executor's set", manifest.CapabilityID))
	}

	// Fail closed on a broken store: re-running the effect blind could
	// repeat an irreversible side effect.
	prior, ok, err := r.store.Get(manifest.TaskID)
	if err != nil {
		return r.failure(manifest, model.CodeExecutionFailed, "idempotency store unavailable")
	}
	if ok {
		return prior
	}

	output, eerr := r.effector.Run(manifest)
	if eerr != nil {
		return r.failure(manifest, eerr.Code, eerr.Message)
	}

	result := model.ExecutionResult{Status: model.StatusSuccess, Output: output}
	sig, err := r.signer.sign(manifest.TaskID, manifest.CapabilityID, model.StatusSuccess, output)
	if err != nil {
		return r.failure(manifest, model.CodeExecutionFailed, err.Error())
	}
	result.Signature = sig

	// Best effort: a store failure must not turn a completed side effect
	// into a reported failure.
	_ = r.store.Put(manifest.TaskID, result)

	return result
}

func (r *Runner) failure(manifest model.TaskManifest, code model.ErrorCode, message string) model.ExecutionResult {
	return Failure(r.signer, manifest.TaskID, manifest.CapabilityID, code, message)
}

// Failure builds a signed FAILURE result. Exported so hosts can record
// sandbox terminations (RESOURCE_EXHAUSTED) under the same signing
// discipline.
func Failure(signer *ResultSigner, taskID, capabilityID string, code model.ErrorCode, message string) model.ExecutionResult {
	eerr := &model.ExecutionError{Code: code, Message: message}
	sig, err := signer.sign(taskID, capabilityID, model.StatusFailure, eerr)
	if err != nil {
		// Canonicalizing a two-field struct cannot fail; keep the result
		// well-formed regardless.
		sig = nil
	}
	return model.ExecutionResult{Status: model.StatusFailure, Error: eerr, Signature: sig}
}
