// Package kernel assembles the deterministic pipeline — validate, compile,
// lease, execute — behind a single Submit call. The stages themselves stay
// pure; the kernel is the host-side seam where configuration, key material,
// executors, logging, and telemetry meet.
package kernel

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ssbking/personal-digital-authority/internal/compiler"
	"github.com/ssbking/personal-digital-authority/internal/config"
	"github.com/ssbking/personal-digital-authority/internal/dsl"
	"github.com/ssbking/personal-digital-authority/internal/executor"
	"github.com/ssbking/personal-digital-authority/internal/executor/appexec"
	"github.com/ssbking/personal-digital-authority/internal/executor/fileexec"
	"github.com/ssbking/personal-digital-authority/internal/executor/mediaexec"
	"github.com/ssbking/personal-digital-authority/internal/executor/navexec"
	"github.com/ssbking/personal-digital-authority/internal/executor/searchexec"
	"github.com/ssbking/personal-digital-authority/internal/hostadapter"
	"github.com/ssbking/personal-digital-authority/internal/hrc"
	"github.com/ssbking/personal-digital-authority/internal/idempotency"
	"github.com/ssbking/personal-digital-authority/internal/lease"
	"github.com/ssbking/personal-digital-authority/internal/model"
	"github.com/ssbking/personal-digital-authority/internal/telemetry"
)

// Stage names a pipeline stage for outcome reporting.
type Stage string

const (
	StageValidate Stage = "validate"
	StageCompile  Stage = "compile"
	StageLease    Stage = "lease"
	StageExecute  Stage = "execute"
)

// Rejection is a typed refusal from one stage.
type Rejection struct {
	Stage   Stage
	Code    model.ErrorCode
	Message string
	Line    int
	Column  int
}

// Outcome reports how far a statement travelled and what it produced.
// Exactly one of Reject and Result is set.
type Outcome struct {
	TaskID       string
	CapabilityID string
	Reject       *Rejection
	Manifest     *model.TaskManifest
	Lease        *model.LeaseToken
	Result       *model.ExecutionResult
}

// Request is one statement submission. Supplements carry capability inputs
// the statement itself cannot express; HRCToken is an optional signed
// confirmation from the confirmer device; Now overrides the clock (zero
// means the kernel's clock: Options.Clock, or wall time when unset).
type Request struct {
	Text        string
	Supplements map[string]string
	HRCToken    string
	Now         int64
}

// Options are the injection points for hosts and tests. Zero values fall
// back to configuration-driven defaults.
type Options struct {
	Logger         *slog.Logger
	Clock          func() int64
	Adapter        hostadapter.Adapter
	Store          executor.ResultStore
	EmailSources   map[string]searchexec.EmailSource
	DatasetSources map[string]searchexec.DatasetSource
	Trust          *model.TrustSnapshot
	Revocations    model.RevocationView
}

// Kernel is a fully wired pipeline instance.
type Kernel struct {
	cfg         config.Config
	logger      *slog.Logger
	clock       func() int64
	manager     *lease.Manager
	verifier    lease.Verifier
	hrcVerifier *hrc.Verifier
	runners     map[string]*executor.Runner
	executorPub ed25519.PublicKey
	trust       model.TrustSnapshot
	revocations model.RevocationView
	closers     []func() error
}

// New wires a kernel from static configuration. Key material is loaded
// once; missing paths fall back to ephemeral development keys with a
// warning, matching a self-contained deployment.
func New(cfg config.Config, opts Options) (*Kernel, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = func() int64 { return time.Now().UTC().UnixMilli() }
	}

	k := &Kernel{cfg: cfg, logger: logger, clock: clock}

	signer, verifier, err := buildLeaseScheme(cfg, logger)
	if err != nil {
		return nil, err
	}
	k.verifier = verifier
	k.manager, err = lease.NewManager(signer, cfg.LeaseTTL.Milliseconds())
	if err != nil {
		return nil, err
	}

	resultSigner, executorPub, err := buildExecutorIdentity(cfg, logger)
	if err != nil {
		return nil, err
	}
	k.executorPub = executorPub

	if cfg.HRCPublicKeyPath != "" {
		pub, err := lease.LoadEd25519PublicKey(cfg.HRCPublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("kernel: hrc key: %w", err)
		}
		k.hrcVerifier = hrc.NewVerifier(pub)
	}

	store := opts.Store
	if store == nil {
		if cfg.IdempotencyDBPath != "" {
			dbStore, err := idempotency.Open(cfg.IdempotencyDBPath)
			if err != nil {
				return nil, err
			}
			k.closers = append(k.closers, dbStore.Close)
			store = dbStore
		} else {
			store = executor.NewMemoryStore()
		}
	}

	adapter := opts.Adapter
	if adapter == nil {
		adapter = hostadapter.NewLocal(hostadapter.LocalConfig{
			Devices:    cfg.DeviceAllowlist,
			Apps:       cfg.AppAllowlist,
			URLSchemes: cfg.URLSchemes,
		})
	}

	scopes, err := k.buildScopes(opts)
	if err != nil {
		return nil, err
	}

	if err := k.buildRunners(cfg, adapter, scopes, resultSigner, store); err != nil {
		return nil, err
	}

	k.trust = model.TrustSnapshot{}
	if opts.Trust != nil {
		k.trust = *opts.Trust
	} else if cfg.TrustSnapshotFile != "" {
		snapshot, err := loadTrustSnapshot(cfg.TrustSnapshotFile)
		if err != nil {
			return nil, err
		}
		k.trust = snapshot
	}

	k.revocations = opts.Revocations
	if k.revocations == nil {
		set, err := loadRevocations(cfg.RevocationFile)
		if err != nil {
			return nil, err
		}
		k.revocations = set
	}

	logger.Info("kernel ready",
		"scheme", cfg.SigningScheme,
		"lease_ttl", cfg.LeaseTTL,
		"capabilities", len(k.runners))
	return k, nil
}

// Close releases stores held by the kernel.
func (k *Kernel) Close() error {
	var firstErr error
	for _, c := range k.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Trust returns the snapshot the kernel evaluates against.
func (k *Kernel) Trust() model.TrustSnapshot {
	return k.trust
}

// ExecutorPublicKey returns the verification material for executor results.
func (k *Kernel) ExecutorPublicKey() ed25519.PublicKey {
	return k.executorPub
}

// Submit runs one statement through the full pipeline. The sequence
// validate→compile→lease→execute is strictly serial per task.
func (k *Kernel) Submit(ctx context.Context, req Request) Outcome {
	ctx, span := telemetry.Tracer("pda/kernel").Start(ctx, "kernel.submit")
	defer span.End()

	now := req.Now
	if now == 0 {
		now = k.clock()
	}

	ast, verr := dsl.Validate(req.Text)
	if verr != nil {
		return Outcome{Reject: &Rejection{
			Stage: StageValidate, Code: verr.Code, Message: verr.Message, Line: verr.Line, Column: verr.Column,
		}}
	}

	manifest, cerr := compiler.Compile(ast, req.Supplements)
	if cerr != nil {
		return Outcome{Reject: &Rejection{Stage: StageCompile, Code: cerr.Code, Message: cerr.Message}}
	}
	span.SetAttributes(
		attribute.String("pda.task_id", manifest.TaskID),
		attribute.String("pda.capability_id", manifest.CapabilityID),
	)

	var hrcToken *model.HRCToken
	if req.HRCToken != "" && k.hrcVerifier != nil {
		token, err := k.hrcVerifier.Parse(req.HRCToken, manifest.TaskID)
		if err != nil {
			// Fail closed: an unverifiable confirmation is no confirmation.
			k.logger.Warn("hrc token rejected", "task_id", manifest.TaskID, "error", err)
		} else {
			hrcToken = &token
		}
	}

	leaseToken, lerr := k.manager.Evaluate(lease.Request{
		Manifest:    manifest,
		Trust:       k.trust,
		Now:         now,
		HRC:         hrcToken,
		Revocations: k.revocations,
	})
	if lerr != nil {
		return Outcome{
			TaskID:       manifest.TaskID,
			CapabilityID: manifest.CapabilityID,
			Manifest:     &manifest,
			Reject:       &Rejection{Stage: StageLease, Code: lerr.Code, Message: lerr.Message},
		}
	}

	runner, ok := k.runners[manifest.CapabilityID]
	if !ok {
		return Outcome{
			TaskID:       manifest.TaskID,
			CapabilityID: manifest.CapabilityID,
			Manifest:     &manifest,
			Lease:        &leaseToken,
			Reject: &Rejection{
				Stage:   StageExecute,
				Code:    model.CodeUnsupportedCapability,
				Message: fmt.Sprintf("no executor is configured for %s", manifest.CapabilityID),
			},
		}
	}

	result := runner.Execute(manifest, leaseToken)
	if !executor.VerifyResult(k.executorPub, manifest.TaskID, manifest.CapabilityID, result) {
		return Outcome{
			TaskID:       manifest.TaskID,
			CapabilityID: manifest.CapabilityID,
			Manifest:     &manifest,
			Lease:        &leaseToken,
			Reject: &Rejection{
				Stage:   StageExecute,
				Code:    model.CodeExecutionFailed,
				Message: "executor result failed signature verification",
			},
		}
	}

	k.logger.Debug("statement executed",
		"task_id", manifest.TaskID,
		"capability_id", manifest.CapabilityID,
		"status", result.Status)

	return Outcome{
		TaskID:       manifest.TaskID,
		CapabilityID: manifest.CapabilityID,
		Manifest:     &manifest,
		Lease:        &leaseToken,
		Result:       &result,
	}
}

func buildLeaseScheme(cfg config.Config, logger *slog.Logger) (lease.Signer, lease.Verifier, error) {
	switch cfg.SigningScheme {
	case config.SchemeEd25519:
		if cfg.KernelPrivateKeyPath == "" || cfg.KernelPublicKeyPath == "" {
			logger.Warn("kernel: no lease key files configured, generating ephemeral pair (not for production)")
			priv, pub, err := lease.GenerateEphemeralKeyPair()
			if err != nil {
				return nil, nil, err
			}
			return lease.NewEd25519Signer(priv), lease.NewEd25519Verifier(pub), nil
		}
		priv, pub, err := lease.LoadEd25519KeyPair(cfg.KernelPrivateKeyPath, cfg.KernelPublicKeyPath)
		if err != nil {
			return nil, nil, err
		}
		return lease.NewEd25519Signer(priv), lease.NewEd25519Verifier(pub), nil
	default:
		secret, err := loadMasterSecret(cfg.MasterSecretFile, logger)
		if err != nil {
			return nil, nil, err
		}
		signer, err := lease.NewHMACSigner(secret)
		if err != nil {
			return nil, nil, err
		}
		return signer, signer, nil
	}
}

func buildExecutorIdentity(cfg config.Config, logger *slog.Logger) (*executor.ResultSigner, ed25519.PublicKey, error) {
	if cfg.ExecutorPrivateKeyPath == "" || cfg.ExecutorPublicKeyPath == "" {
		logger.Warn("kernel: no executor key files configured, generating ephemeral pair (not for production)")
		priv, pub, err := lease.GenerateEphemeralKeyPair()
		if err != nil {
			return nil, nil, err
		}
		return executor.NewResultSigner(priv), pub, nil
	}
	priv, pub, err := lease.LoadEd25519KeyPair(cfg.ExecutorPrivateKeyPath, cfg.ExecutorPublicKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("kernel: executor keys: %w", err)
	}
	return executor.NewResultSigner(priv), pub, nil
}

func loadMasterSecret(path string, logger *slog.Logger) ([]byte, error) {
	if path == "" {
		logger.Warn("kernel: no master secret configured, generating ephemeral secret (not for production)")
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("kernel: generate secret: %w", err)
		}
		return secret, nil
	}
	secret, err := readSecretFile(path)
	if err != nil {
		return nil, err
	}
	return secret, nil
}

func (k *Kernel) buildScopes(opts Options) (searchexec.Scopes, error) {
	scopes := searchexec.Scopes{
		FileRoots: k.cfg.FileScopes,
		Emails:    map[string]searchexec.EmailSource{},
		Datasets:  map[string]searchexec.DatasetSource{},
	}

	if k.cfg.ScopeDBPath != "" && (len(k.cfg.EmailScopes) > 0 || len(k.cfg.DatasetScopes) > 0) {
		store, err := searchexec.OpenSQLite(k.cfg.ScopeDBPath)
		if err != nil {
			return searchexec.Scopes{}, err
		}
		k.closers = append(k.closers, store.Close)
		for scope, table := range k.cfg.EmailScopes {
			scopes.Emails[scope] = store.EmailSource(table)
		}
		for scope, table := range k.cfg.DatasetScopes {
			scopes.Datasets[scope] = store.DatasetSource(table)
		}
	}

	for scope, source := range opts.EmailSources {
		scopes.Emails[scope] = source
	}
	for scope, source := range opts.DatasetSources {
		scopes.Datasets[scope] = source
	}
	return scopes, nil
}

func (k *Kernel) buildRunners(
	cfg config.Config,
	adapter hostadapter.Adapter,
	scopes searchexec.Scopes,
	signer *executor.ResultSigner,
	store executor.ResultStore,
) error {
	k.runners = make(map[string]*executor.Runner)

	effectors := []executor.Effector{
		searchexec.New(scopes),
	}

	if len(cfg.AllowedBaseDirs) > 0 {
		fileEffector, err := fileexec.New(cfg.AllowedBaseDirs, cfg.RecoveryDir)
		if err != nil {
			return err
		}
		effectors = append(effectors, fileEffector)
	}
	mediaEffector, err := mediaexec.New(adapter, cfg.DeviceAllowlist)
	if err != nil {
		return err
	}
	appEffector, err := appexec.New(adapter, cfg.AppAllowlist)
	if err != nil {
		return err
	}
	navEffector, err := navexec.New(adapter)
	if err != nil {
		return err
	}
	effectors = append(effectors, mediaEffector, appEffector, navEffector)

	for _, eff := range effectors {
		runner, err := executor.NewRunner(eff, k.verifier, signer, store, k.clock)
		if err != nil {
			return err
		}
		for _, capability := range eff.Capabilities() {
			k.runners[capability] = runner
		}
	}
	return nil
}
