// Package pda is the public API for embedding the Personal Digital
// Authority kernel: a deterministic pipeline that validates typed DSL
// statements, compiles them into task manifests, issues time-bounded
// signed leases, and executes discrete side effects through sandboxed,
// capability-scoped executors.
//
//	authority, err := pda.New(pda.WithTrust(pda.TrustSnapshot{TrustScore: 0.8, MinimumRequired: 0.5}))
//	if err != nil { ... }
//	defer authority.Close()
//	outcome := authority.Submit(ctx, pda.SubmitRequest{Text: statement})
//
// The import graph enforces a strict no-cycle rule: pda (root) imports
// internal/*, but internal/* never imports pda (root). The public types in
// types.go are standalone structs; the conversion helpers live here because
// this is the only file that sees both sides of the boundary.
package pda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"

	"github.com/ssbking/personal-digital-authority/internal/config"
	"github.com/ssbking/personal-digital-authority/internal/executor/searchexec"
	"github.com/ssbking/personal-digital-authority/internal/hostadapter"
	"github.com/ssbking/personal-digital-authority/internal/kernel"
	"github.com/ssbking/personal-digital-authority/internal/model"
)

// Kernel is the embeddable authority. Construct with New, submit one
// statement at a time, Close when done.
type Kernel struct {
	inner  *kernel.Kernel
	logger *slog.Logger
}

// New loads configuration from the environment, wires the pipeline, and
// returns a ready kernel. It starts no goroutines.
func New(opts ...Option) (*Kernel, error) {
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Load .env if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	version := o.version
	if version == "" {
		version = "dev"
	}
	logger.Info("pda starting", "version", version)

	kernelOpts := kernel.Options{Logger: logger, Clock: o.clock}
	if o.adapter != nil {
		kernelOpts.Adapter = hostAdapterShim{adapter: o.adapter}
	}
	if o.store != nil {
		kernelOpts.Store = resultStoreShim{store: o.store}
	}
	if len(o.emailSources) > 0 {
		kernelOpts.EmailSources = make(map[string]searchexec.EmailSource, len(o.emailSources))
		for scope, source := range o.emailSources {
			kernelOpts.EmailSources[scope] = emailSourceShim{source: source}
		}
	}
	if len(o.datasetSources) > 0 {
		kernelOpts.DatasetSources = make(map[string]searchexec.DatasetSource, len(o.datasetSources))
		for scope, source := range o.datasetSources {
			kernelOpts.DatasetSources[scope] = datasetSourceShim{source: source}
		}
	}
	if o.trust != nil {
		kernelOpts.Trust = &model.TrustSnapshot{
			TrustScore:      o.trust.TrustScore,
			MinimumRequired: o.trust.MinimumRequired,
		}
	}
	if o.revocations != nil {
		set := make(model.RevocationSet, len(o.revocations))
		for _, id := range o.revocations {
			set[id] = struct{}{}
		}
		kernelOpts.Revocations = set
	}

	inner, err := kernel.New(cfg, kernelOpts)
	if err != nil {
		return nil, fmt.Errorf("kernel: %w", err)
	}
	return &Kernel{inner: inner, logger: logger}, nil
}

// Submit runs one statement through validate→compile→lease→execute and
// reports the typed outcome. It never panics across this boundary; every
// failure is a structured rejection.
func (k *Kernel) Submit(ctx context.Context, req SubmitRequest) Outcome {
	outcome := k.inner.Submit(ctx, kernel.Request{
		Text:        req.Text,
		Supplements: req.Supplements,
		HRCToken:    req.HRCToken,
		Now:         req.Now,
	})
	return toPublicOutcome(outcome)
}

// Close releases kernel-held resources.
func (k *Kernel) Close() error {
	return k.inner.Close()
}

// hostAdapterShim bridges a public HostAdapter onto the internal contract.
// The status vocabularies are identical by construction, so the bridge is a
// string cast per call.
type hostAdapterShim struct {
	adapter HostAdapter
}

func (s hostAdapterShim) ResolveTarget(targetType, targetID string) hostadapter.ResolveStatus {
	return hostadapter.ResolveStatus(s.adapter.ResolveTarget(targetType, targetID))
}

func (s hostAdapterShim) MediaApply(action, targetDevice, mediaURI string, positionSeconds float64) hostadapter.EffectStatus {
	return hostadapter.EffectStatus(s.adapter.MediaApply(action, targetDevice, mediaURI, positionSeconds))
}

func (s hostAdapterShim) AppLaunch(appID, environment string) hostadapter.EffectStatus {
	return hostadapter.EffectStatus(s.adapter.AppLaunch(appID, environment))
}

func (s hostAdapterShim) AppFocus(appID, environment string) hostadapter.EffectStatus {
	return hostadapter.EffectStatus(s.adapter.AppFocus(appID, environment))
}

func (s hostAdapterShim) AppClose(appID, environment string) hostadapter.EffectStatus {
	return hostadapter.EffectStatus(s.adapter.AppClose(appID, environment))
}

func (s hostAdapterShim) Navigate(targetType, targetID, navigationMode, focusPolicy string) hostadapter.EffectStatus {
	return hostadapter.EffectStatus(s.adapter.Navigate(targetType, targetID, navigationMode, focusPolicy))
}

func (s hostAdapterShim) GetCapabilities() hostadapter.Capabilities {
	caps := s.adapter.GetCapabilities()
	return hostadapter.Capabilities{
		AdapterVersion: caps.AdapterVersion,
		Devices:        caps.Devices,
		Apps:           caps.Apps,
		URLSchemes:     caps.URLSchemes,
	}
}

// resultStoreShim bridges a public byte-oriented ResultStore onto the
// executor contract. Results cross the boundary as their JSON encoding; a
// stored blob that no longer decodes is surfaced as a store error, which
// the executor treats as fail-closed.
type resultStoreShim struct {
	store ResultStore
}

func (s resultStoreShim) Get(taskID string) (model.ExecutionResult, bool, error) {
	raw, ok, err := s.store.Get(taskID)
	if err != nil {
		return model.ExecutionResult{}, false, err
	}
	if !ok {
		return model.ExecutionResult{}, false, nil
	}
	var result model.ExecutionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return model.ExecutionResult{}, false, fmt.Errorf("result store: decode %s: %w", taskID, err)
	}
	return result, true, nil
}

func (s resultStoreShim) Put(taskID string, result model.ExecutionResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("result store: encode %s: %w", taskID, err)
	}
	return s.store.Put(taskID, raw)
}

// emailSourceShim bridges a public EmailSource onto the search executor.
type emailSourceShim struct {
	source EmailSource
}

func (s emailSourceShim) Emails() ([]searchexec.EmailRecord, error) {
	records, err := s.source.Emails()
	if err != nil {
		return nil, err
	}
	out := make([]searchexec.EmailRecord, 0, len(records))
	for _, r := range records {
		out = append(out, searchexec.EmailRecord{
			ID:         r.ID,
			From:       r.From,
			To:         r.To,
			Subject:    r.Subject,
			Body:       r.Body,
			ReceivedAt: r.ReceivedAt,
		})
	}
	return out, nil
}

// datasetSourceShim bridges a public DatasetSource onto the search executor.
type datasetSourceShim struct {
	source DatasetSource
}

func (s datasetSourceShim) Records() ([]searchexec.DatasetRecord, error) {
	records, err := s.source.Records()
	if err != nil {
		return nil, err
	}
	out := make([]searchexec.DatasetRecord, 0, len(records))
	for _, r := range records {
		out = append(out, searchexec.DatasetRecord{Key: r.Key, Fields: r.Fields})
	}
	return out, nil
}

func toPublicOutcome(o kernel.Outcome) Outcome {
	out := Outcome{TaskID: o.TaskID, CapabilityID: o.CapabilityID}
	if o.Lease != nil {
		out.Lease = &Lease{
			TaskID:    o.Lease.TaskID,
			IssuedAt:  o.Lease.IssuedAt,
			ExpiresAt: o.Lease.ExpiresAt,
			Signature: o.Lease.Signature,
		}
	}
	if o.Reject != nil {
		out.Rejection = &Rejection{
			Stage:   Stage(o.Reject.Stage),
			Code:    string(o.Reject.Code),
			Message: o.Reject.Message,
			Line:    o.Reject.Line,
			Column:  o.Reject.Column,
		}
	}
	if o.Result != nil {
		out.Result = toPublicResult(*o.Result)
	}
	return out
}

func toPublicResult(r model.ExecutionResult) *Result {
	result := &Result{Status: string(r.Status), Signature: r.Signature}
	if r.Output != nil {
		result.Summary = r.Output.Summary
		result.UndoMetadata = r.Output.UndoMetadata
		if r.Output.Search != nil {
			search := &SearchResult{
				Count:     r.Output.Search.Count,
				Truncated: r.Output.Search.Truncated,
				Results:   make([]SearchMatch, 0, len(r.Output.Search.Results)),
			}
			for _, m := range r.Output.Search.Results {
				search.Results = append(search.Results, SearchMatch{
					ID:         m.ID,
					MatchField: m.MatchField,
					Snippet:    m.Snippet,
				})
			}
			result.Search = search
		}
	}
	if r.Error != nil {
		result.Error = &ResultError{Code: string(r.Error.Code), Message: r.Error.Message}
	}
	return result
}
