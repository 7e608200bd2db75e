// Package appexec is the reference APP_LAUNCH executor: APP_LAUNCH,
// APP_FOCUS, APP_CLOSE against a static app allowlist. Launching an app
// that is already running brings it to the front (fixed policy); closes are
// graceful only.
package appexec

import (
	"fmt"

	"github.com/ssbking/personal-digital-authority/internal/hostadapter"
	"github.com/ssbking/personal-digital-authority/internal/model"
)

var environments = map[string]bool{
	"desktop": true,
	"mobile":  true,
	"tv":      true,
}

// Executor manages application lifecycle through the host adapter.
type Executor struct {
	adapter hostadapter.Adapter
	apps    map[string]bool
}

// New creates an APP_LAUNCH executor with a static app allowlist.
func New(adapter hostadapter.Adapter, appAllowlist []string) (*Executor, error) {
	if adapter == nil {
		return nil, fmt.Errorf("appexec: host adapter is required")
	}
	apps := make(map[string]bool, len(appAllowlist))
	for _, a := range appAllowlist {
		apps[a] = true
	}
	return &Executor{adapter: adapter, apps: apps}, nil
}

// Capabilities implements executor.Effector.
func (e *Executor) Capabilities() []string {
	return []string{"APP_LAUNCH", "APP_FOCUS", "APP_CLOSE"}
}

// Run implements executor.Effector.
func (e *Executor) Run(m model.TaskManifest) (*model.ExecutionOutput, *model.ExecutionError) {
	appID := m.Inputs["app_id"]
	if appID == "" {
		return nil, fail("app_id input is required")
	}
	if !e.apps[appID] {
		return nil, fail("app %q is not on the allowlist", appID)
	}

	env := m.Inputs["target_environment"]
	if !environments[env] {
		return nil, fail("target_environment must be desktop, mobile, or tv")
	}

	var status hostadapter.EffectStatus
	switch m.CapabilityID {
	case "APP_LAUNCH":
		status = e.adapter.AppLaunch(appID, env)
	case "APP_FOCUS":
		status = e.adapter.AppFocus(appID, env)
	case "APP_CLOSE":
		status = e.adapter.AppClose(appID, env)
	default:
		return nil, fail("capability %s is not an app operation", m.CapabilityID)
	}

	var outcome string
	switch status {
	case hostadapter.EffectSuccess:
		outcome = "applied"
	case hostadapter.EffectNoOp:
		outcome = "no_op"
	default:
		return nil, fail("host rejected %s for %q", m.CapabilityID, appID)
	}

	return &model.ExecutionOutput{
		TaskID:       m.TaskID,
		CapabilityID: m.CapabilityID,
		Summary: map[string]string{
			"app_id":             appID,
			"target_environment": env,
			"outcome":            outcome,
		},
	}, nil
}

func fail(format string, args ...any) *model.ExecutionError {
	return &model.ExecutionError{Code: model.CodeExecutionFailed, Message: fmt.Sprintf(format, args...)}
}
