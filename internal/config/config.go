// Package config loads and validates the static deployment configuration
// from environment variables. Everything here is read at startup and
// immutable for the lifetime of the process; runtime mutation is forbidden.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Signing scheme selectors for lease tokens.
const (
	SchemeHMAC    = "hmac"
	SchemeEd25519 = "ed25519"
)

// Config holds all static deployment configuration.
type Config struct {
	// Lease settings. LeaseTTL is the deployment constant D: every lease
	// expires exactly D after issue.
	LeaseTTL      time.Duration
	SigningScheme string // "hmac" (self-contained) or "ed25519" (separate trust domain)

	// Key material. The master secret feeds HMAC key derivation; the
	// Ed25519 pairs are PEM files. Empty paths mean ephemeral development
	// keys.
	MasterSecretFile       string
	KernelPrivateKeyPath   string
	KernelPublicKeyPath    string
	ExecutorPrivateKeyPath string
	ExecutorPublicKeyPath  string
	HRCPublicKeyPath       string

	// FILE executor confinement.
	AllowedBaseDirs []string
	RecoveryDir     string

	// Static allowlists.
	DeviceAllowlist []string
	AppAllowlist    []string
	URLSchemes      []string

	// Search scopes. FileScopes maps scope name to directory root;
	// EmailScopes and DatasetScopes map scope name to a table in the scope
	// database.
	FileScopes    map[string]string
	EmailScopes   map[string]string
	DatasetScopes map[string]string
	ScopeDBPath   string

	// Executor idempotency cache; empty means in-memory only.
	IdempotencyDBPath string

	// Read-only snapshot inputs.
	TrustSnapshotFile string
	RevocationFile    string

	// OTEL settings (host-side observability only).
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Operational settings.
	LogLevel string
}

// Load reads configuration from environment variables with development
// defaults.
func Load() (Config, error) {
	cfg := Config{
		LeaseTTL:               envDuration("PDA_LEASE_TTL", 60*time.Second),
		SigningScheme:          envStr("PDA_SIGNING_SCHEME", SchemeHMAC),
		MasterSecretFile:       envStr("PDA_MASTER_SECRET_FILE", ""),
		KernelPrivateKeyPath:   envStr("PDA_KERNEL_PRIVATE_KEY", ""),
		KernelPublicKeyPath:    envStr("PDA_KERNEL_PUBLIC_KEY", ""),
		ExecutorPrivateKeyPath: envStr("PDA_EXECUTOR_PRIVATE_KEY", ""),
		ExecutorPublicKeyPath:  envStr("PDA_EXECUTOR_PUBLIC_KEY", ""),
		HRCPublicKeyPath:       envStr("PDA_HRC_PUBLIC_KEY", ""),
		AllowedBaseDirs:        envPathList("PDA_ALLOWED_BASE_DIRS", nil),
		RecoveryDir:            envStr("PDA_RECOVERY_DIR", ""),
		DeviceAllowlist:        envList("PDA_DEVICE_ALLOWLIST", nil),
		AppAllowlist:           envList("PDA_APP_ALLOWLIST", nil),
		URLSchemes:             envList("PDA_URL_SCHEMES", []string{"https"}),
		FileScopes:             envMap("PDA_FILE_SCOPES"),
		EmailScopes:            envMap("PDA_EMAIL_SCOPES"),
		DatasetScopes:          envMap("PDA_DATASET_SCOPES"),
		ScopeDBPath:            envStr("PDA_SCOPE_DB", ""),
		IdempotencyDBPath:      envStr("PDA_IDEMPOTENCY_DB", ""),
		TrustSnapshotFile:      envStr("PDA_TRUST_SNAPSHOT_FILE", ""),
		RevocationFile:         envStr("PDA_REVOCATION_FILE", ""),
		OTELEndpoint:           envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:           envStr("OTEL_EXPORTER_OTLP_INSECURE", "") == "true",
		ServiceName:            envStr("OTEL_SERVICE_NAME", "pda"),
		LogLevel:               envStr("PDA_LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	if c.LeaseTTL <= 0 {
		return fmt.Errorf("config: PDA_LEASE_TTL must be positive")
	}
	if c.SigningScheme != SchemeHMAC && c.SigningScheme != SchemeEd25519 {
		return fmt.Errorf("config: PDA_SIGNING_SCHEME must be %q or %q", SchemeHMAC, SchemeEd25519)
	}
	for _, d := range c.AllowedBaseDirs {
		if !filepath.IsAbs(d) {
			return fmt.Errorf("config: base directory %q is not absolute", d)
		}
	}
	for scope, root := range c.FileScopes {
		if !filepath.IsAbs(root) {
			return fmt.Errorf("config: file scope %q root %q is not absolute", scope, root)
		}
	}
	if (len(c.EmailScopes) > 0 || len(c.DatasetScopes) > 0) && c.ScopeDBPath == "" {
		return fmt.Errorf("config: PDA_SCOPE_DB is required when email or dataset scopes are configured")
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

// envList parses a comma-separated list.
func envList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// envPathList parses a colon-separated path list.
func envPathList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(v, ":") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// envMap parses a comma-separated key=value list.
func envMap(key string) map[string]string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(v, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok && k != "" && val != "" {
			out[k] = val
		}
	}
	return out
}
