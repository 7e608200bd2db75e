package pda

import "log/slog"

// Option configures a Kernel.
type Option func(*resolvedOptions)

// resolvedOptions holds all extension points after applying defaults.
// Unexported — callers use the With* functions.
type resolvedOptions struct {
	logger         *slog.Logger
	clock          func() int64
	trust          *TrustSnapshot
	revocations    []string
	version        string
	adapter        HostAdapter
	store          ResultStore
	emailSources   map[string]EmailSource
	datasetSources map[string]DatasetSource
}

// WithLogger sets the structured logger. If not set, the default slog
// logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithClock overrides the kernel's clock (milliseconds since the Unix
// epoch). Intended for hosts that need reproducible lease windows.
func WithClock(clock func() int64) Option {
	return func(o *resolvedOptions) { o.clock = clock }
}

// WithTrust replaces the trust snapshot loaded from PDA_TRUST_SNAPSHOT_FILE.
func WithTrust(trust TrustSnapshot) Option {
	return func(o *resolvedOptions) { o.trust = &trust }
}

// WithRevocations replaces the revocation snapshot loaded from
// PDA_REVOCATION_FILE.
func WithRevocations(taskIDs []string) Option {
	return func(o *resolvedOptions) { o.revocations = taskIDs }
}

// WithVersion sets the version string reported in logs.
func WithVersion(version string) Option {
	return func(o *resolvedOptions) { o.version = version }
}

// WithHostAdapter replaces the built-in deterministic local adapter with a
// platform adapter. The provided implementation must satisfy the
// HostAdapter contract: synchronous, exception-free, deterministic given
// identical host state.
func WithHostAdapter(adapter HostAdapter) Option {
	return func(o *resolvedOptions) { o.adapter = adapter }
}

// WithResultStore replaces the built-in idempotency cache (sqlite when
// PDA_IDEMPOTENCY_DB is set, in-memory otherwise). The store holds signed
// results as opaque bytes keyed by task_id.
func WithResultStore(store ResultStore) Option {
	return func(o *resolvedOptions) { o.store = store }
}

// WithEmailSource registers an email scope backed by the given source,
// overriding any scope of the same name from PDA_EMAIL_SCOPES. Multiple
// scopes may be registered.
func WithEmailSource(scope string, source EmailSource) Option {
	return func(o *resolvedOptions) {
		if o.emailSources == nil {
			o.emailSources = make(map[string]EmailSource)
		}
		o.emailSources[scope] = source
	}
}

// WithDatasetSource registers a dataset scope backed by the given source,
// overriding any scope of the same name from PDA_DATASET_SCOPES. Multiple
// scopes may be registered.
func WithDatasetSource(scope string, source DatasetSource) Option {
	return func(o *resolvedOptions) {
		if o.datasetSources == nil {
			o.datasetSources = make(map[string]DatasetSource)
		}
		o.datasetSources[scope] = source
	}
}
