package appexec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssbking/personal-digital-authority/internal/hostadapter"
	"github.com/ssbking/personal-digital-authority/internal/model"
)

func newExecutor(t *testing.T, running ...string) *Executor {
	t.Helper()
	adapter := hostadapter.NewLocal(hostadapter.LocalConfig{
		Apps:        []string{"org.mozilla.firefox", "org.gnome.Calculator"},
		RunningApps: running,
	})
	e, err := New(adapter, []string{"org.mozilla.firefox", "org.gnome.Calculator"})
	require.NoError(t, err)
	return e
}

func appManifest(capability, appID, env string) model.TaskManifest {
	return model.TaskManifest{
		TaskID:       "task-app-1",
		CapabilityID: capability,
		Inputs:       map[string]string{"app_id": appID, "target_environment": env},
		Constraints:  model.Constraints{Scope: "apps", Reversible: true, Sensitivity: model.SensitivityLow},
		Provenance:   model.Provenance{ASTHash: "deadbeef"},
	}
}

func TestLaunch(t *testing.T) {
	e := newExecutor(t)
	out, eerr := e.Run(appManifest("APP_LAUNCH", "org.mozilla.firefox", "desktop"))
	require.Nil(t, eerr)
	assert.Equal(t, "applied", out.Summary["outcome"])
}

func TestLaunch_AlreadyRunningBringsToFront(t *testing.T) {
	e := newExecutor(t, "org.mozilla.firefox")
	out, eerr := e.Run(appManifest("APP_LAUNCH", "org.mozilla.firefox", "desktop"))
	require.Nil(t, eerr)
	assert.Equal(t, "applied", out.Summary["outcome"], "fixed policy: bring-to-front, not a failure")
}

func TestFocus_NotRunningFails(t *testing.T) {
	e := newExecutor(t)
	_, eerr := e.Run(appManifest("APP_FOCUS", "org.mozilla.firefox", "desktop"))
	require.NotNil(t, eerr)
	assert.Equal(t, model.CodeExecutionFailed, eerr.Code)
}

func TestClose_GracefulAndNoOp(t *testing.T) {
	e := newExecutor(t, "org.gnome.Calculator")

	out, eerr := e.Run(appManifest("APP_CLOSE", "org.gnome.Calculator", "desktop"))
	require.Nil(t, eerr)
	assert.Equal(t, "applied", out.Summary["outcome"])

	e = newExecutor(t) // nothing running
	out, eerr = e.Run(appManifest("APP_CLOSE", "org.gnome.Calculator", "desktop"))
	require.Nil(t, eerr)
	assert.Equal(t, "no_op", out.Summary["outcome"])
}

func TestAllowlistAndEnvironment(t *testing.T) {
	e := newExecutor(t)

	_, eerr := e.Run(appManifest("APP_LAUNCH", "com.malware.app", "desktop"))
	require.NotNil(t, eerr)
	assert.Equal(t, model.CodeExecutionFailed, eerr.Code)

	_, eerr = e.Run(appManifest("APP_LAUNCH", "org.mozilla.firefox", "toaster"))
	require.NotNil(t, eerr)
	assert.Equal(t, model.CodeExecutionFailed, eerr.Code)
}
