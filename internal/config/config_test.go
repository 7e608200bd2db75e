package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.LeaseTTL)
	assert.Equal(t, SchemeHMAC, cfg.SigningScheme)
	assert.Equal(t, []string{"https"}, cfg.URLSchemes)
	assert.Equal(t, "pda", cfg.ServiceName)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PDA_LEASE_TTL", "90s")
	t.Setenv("PDA_SIGNING_SCHEME", "ed25519")
	t.Setenv("PDA_ALLOWED_BASE_DIRS", "/srv/files:/home/alice")
	t.Setenv("PDA_DEVICE_ALLOWLIST", "living-room-tv, kitchen-speaker")
	t.Setenv("PDA_FILE_SCOPES", "docs=/home/alice/docs,music=/home/alice/music")
	t.Setenv("PDA_EMAIL_SCOPES", "inbox=emails")
	t.Setenv("PDA_SCOPE_DB", "/var/lib/pda/scopes.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.LeaseTTL)
	assert.Equal(t, SchemeEd25519, cfg.SigningScheme)
	assert.Equal(t, []string{"/srv/files", "/home/alice"}, cfg.AllowedBaseDirs)
	assert.Equal(t, []string{"living-room-tv", "kitchen-speaker"}, cfg.DeviceAllowlist)
	assert.Equal(t, "/home/alice/docs", cfg.FileScopes["docs"])
	assert.Equal(t, "/home/alice/music", cfg.FileScopes["music"])
	assert.Equal(t, "emails", cfg.EmailScopes["inbox"])
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad scheme", map[string]string{"PDA_SIGNING_SCHEME": "rsa"}},
		{"relative base dir", map[string]string{"PDA_ALLOWED_BASE_DIRS": "files"}},
		{"relative scope root", map[string]string{"PDA_FILE_SCOPES": "docs=relative/docs"}},
		{"email scope without db", map[string]string{"PDA_EMAIL_SCOPES": "inbox=emails"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate_UnparsableTTLFallsBackToDefault(t *testing.T) {
	// An unparsable duration silently falls back to the default rather than
	// configuring a zero-lifetime lease.
	t.Setenv("PDA_LEASE_TTL", "not-a-duration")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.LeaseTTL)
}
