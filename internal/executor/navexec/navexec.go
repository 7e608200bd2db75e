// Package navexec is the reference NAVIGATION executor. Target resolution
// is delegated entirely to the host adapter; the executor only enforces the
// input schema, the capability/target-type agreement, and the mapping of
// adapter result codes onto the closed error set.
package navexec

import (
	"fmt"

	"github.com/ssbking/personal-digital-authority/internal/hostadapter"
	"github.com/ssbking/personal-digital-authority/internal/model"
)

// requiredTargetType binds each capability to the one target type it may
// navigate.
var requiredTargetType = map[string]string{
	"NAVIGATE_APP":    "app",
	"NAVIGATE_WINDOW": "window",
	"NAVIGATE_URL":    "url",
	"NAVIGATE_FILE":   "file",
}

var navigationModes = map[string]bool{
	"foreground": true,
	"background": true,
}

var focusPolicies = map[string]bool{
	"steal":   true,
	"request": true,
	"none":    true,
}

// Executor routes navigation requests through the host adapter.
type Executor struct {
	adapter hostadapter.Adapter
}

// New creates a NAVIGATION executor.
func New(adapter hostadapter.Adapter) (*Executor, error) {
	if adapter == nil {
		return nil, fmt.Errorf("navexec: host adapter is required")
	}
	return &Executor{adapter: adapter}, nil
}

// Capabilities implements executor.Effector.
func (e *Executor) Capabilities() []string {
	return []string{"NAVIGATE_APP", "NAVIGATE_WINDOW", "NAVIGATE_URL", "NAVIGATE_FILE"}
}

// Run implements executor.Effector.
func (e *Executor) Run(m model.TaskManifest) (*model.ExecutionOutput, *model.ExecutionError) {
	targetType := m.Inputs["target_type"]
	if want := requiredTargetType[m.CapabilityID]; targetType != want {
		return nil, fail("target_type must be %q for %s", want, m.CapabilityID)
	}

	targetID := m.Inputs["target_id"]
	if targetID == "" {
		return nil, fail("target_id input is required")
	}
	mode := m.Inputs["navigation_mode"]
	if !navigationModes[mode] {
		return nil, fail("navigation_mode must be foreground or background")
	}
	policy := m.Inputs["focus_policy"]
	if !focusPolicies[policy] {
		return nil, fail("focus_policy must be steal, request, or none")
	}

	switch e.adapter.ResolveTarget(targetType, targetID) {
	case hostadapter.Resolved:
	case hostadapter.TargetNotFound:
		return nil, &model.ExecutionError{Code: model.CodeTargetNotFound, Message: fmt.Sprintf("target %q not found", targetID)}
	case hostadapter.TargetNotAccessible:
		return nil, &model.ExecutionError{Code: model.CodeTargetNotAccessible, Message: fmt.Sprintf("target %q not accessible", targetID)}
	default:
		return nil, fail("target %q has an invalid format", targetID)
	}

	var outcome string
	switch e.adapter.Navigate(targetType, targetID, mode, policy) {
	case hostadapter.EffectSuccess:
		outcome = "navigated"
	case hostadapter.EffectNoOp:
		outcome = "no_op"
	case hostadapter.NavigationBlocked:
		return nil, &model.ExecutionError{Code: model.CodeNavigationBlocked, Message: "navigation blocked by host policy"}
	default:
		return nil, fail("host rejected navigation to %q", targetID)
	}

	return &model.ExecutionOutput{
		TaskID:       m.TaskID,
		CapabilityID: m.CapabilityID,
		Summary: map[string]string{
			"target_type":     targetType,
			"target_id":       targetID,
			"navigation_mode": mode,
			"focus_policy":    policy,
			"outcome":         outcome,
		},
	}, nil
}

func fail(format string, args ...any) *model.ExecutionError {
	return &model.ExecutionError{Code: model.CodeExecutionFailed, Message: fmt.Sprintf(format, args...)}
}
