package navexec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssbking/personal-digital-authority/internal/hostadapter"
	"github.com/ssbking/personal-digital-authority/internal/model"
)

func newExecutor(t *testing.T) *Executor {
	t.Helper()
	adapter := hostadapter.NewLocal(hostadapter.LocalConfig{
		Apps:         []string{"org.mozilla.firefox"},
		Windows:      []string{"main-editor"},
		Files:        []string{"/home/alice/notes.md"},
		Inaccessible: []string{"root-console"},
		URLSchemes:   []string{"https"},
	})
	e, err := New(adapter)
	require.NoError(t, err)
	return e
}

func navManifest(capability string, inputs map[string]string) model.TaskManifest {
	return model.TaskManifest{
		TaskID:       "task-nav-1",
		CapabilityID: capability,
		Inputs:       inputs,
		Constraints:  model.Constraints{Scope: "desktop", Reversible: true, Sensitivity: model.SensitivityLow},
		Provenance:   model.Provenance{ASTHash: "deadbeef"},
	}
}

func inputs(targetType, targetID string) map[string]string {
	return map[string]string{
		"target_type":     targetType,
		"target_id":       targetID,
		"navigation_mode": "foreground",
		"focus_policy":    "request",
	}
}

func TestNavigateApp(t *testing.T) {
	e := newExecutor(t)
	out, eerr := e.Run(navManifest("NAVIGATE_APP", inputs("app", "org.mozilla.firefox")))
	require.Nil(t, eerr)
	assert.Equal(t, "navigated", out.Summary["outcome"])
}

func TestTargetTypeMustAgreeWithCapability(t *testing.T) {
	e := newExecutor(t)
	_, eerr := e.Run(navManifest("NAVIGATE_APP", inputs("url", "https://example.com")))
	require.NotNil(t, eerr)
	assert.Equal(t, model.CodeExecutionFailed, eerr.Code)
}

func TestTargetNotFound(t *testing.T) {
	e := newExecutor(t)
	_, eerr := e.Run(navManifest("NAVIGATE_WINDOW", inputs("window", "ghost-window")))
	require.NotNil(t, eerr)
	assert.Equal(t, model.CodeTargetNotFound, eerr.Code)
}

func TestTargetNotAccessible(t *testing.T) {
	e := newExecutor(t)
	_, eerr := e.Run(navManifest("NAVIGATE_WINDOW", inputs("window", "root-console")))
	require.NotNil(t, eerr)
	assert.Equal(t, model.CodeTargetNotAccessible, eerr.Code)
}

func TestUnsupportedURLSchemeBlocked(t *testing.T) {
	e := newExecutor(t)
	_, eerr := e.Run(navManifest("NAVIGATE_URL", inputs("url", "ftp://example.com/files")))
	require.NotNil(t, eerr)
	assert.Equal(t, model.CodeNavigationBlocked, eerr.Code)

	out, eerr := e.Run(navManifest("NAVIGATE_URL", inputs("url", "https://example.com")))
	require.Nil(t, eerr)
	assert.Equal(t, "navigated", out.Summary["outcome"])
}

func TestModeAndPolicyValidation(t *testing.T) {
	e := newExecutor(t)

	in := inputs("file", "/home/alice/notes.md")
	in["navigation_mode"] = "sideways"
	_, eerr := e.Run(navManifest("NAVIGATE_FILE", in))
	require.NotNil(t, eerr)
	assert.Equal(t, model.CodeExecutionFailed, eerr.Code)

	in = inputs("file", "/home/alice/notes.md")
	in["focus_policy"] = "grab"
	_, eerr = e.Run(navManifest("NAVIGATE_FILE", in))
	require.NotNil(t, eerr)
	assert.Equal(t, model.CodeExecutionFailed, eerr.Code)
}
