// Package mediaexec is the reference MEDIA executor: playback control
// against an explicit media URI and a device from the static allowlist.
// There is no content discovery, no download, no inference.
package mediaexec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ssbking/personal-digital-authority/internal/hostadapter"
	"github.com/ssbking/personal-digital-authority/internal/model"
)

var actions = map[string]string{
	"MEDIA_PLAY":  "play",
	"MEDIA_PAUSE": "pause",
	"MEDIA_STOP":  "stop",
	"MEDIA_SEEK":  "seek",
}

// Executor controls playback through the host adapter.
type Executor struct {
	adapter hostadapter.Adapter
	devices map[string]bool
}

// New creates a MEDIA executor with a static device allowlist.
func New(adapter hostadapter.Adapter, deviceAllowlist []string) (*Executor, error) {
	if adapter == nil {
		return nil, fmt.Errorf("mediaexec: host adapter is required")
	}
	devices := make(map[string]bool, len(deviceAllowlist))
	for _, d := range deviceAllowlist {
		devices[d] = true
	}
	return &Executor{adapter: adapter, devices: devices}, nil
}

// Capabilities implements executor.Effector.
func (e *Executor) Capabilities() []string {
	return []string{"MEDIA_PLAY", "MEDIA_PAUSE", "MEDIA_STOP", "MEDIA_SEEK"}
}

// Run implements executor.Effector.
func (e *Executor) Run(m model.TaskManifest) (*model.ExecutionOutput, *model.ExecutionError) {
	action := actions[m.CapabilityID]

	uri := m.Inputs["media_uri"]
	if uri == "" {
		return nil, fail("media_uri input is required")
	}
	if strings.Contains(uri, "?") {
		return nil, fail("media_uri must be explicit, queries are not allowed")
	}

	device := m.Inputs["target_device"]
	if device == "" {
		return nil, fail("target_device input is required")
	}
	if !e.devices[device] {
		return nil, fail("device %q is not on the allowlist", device)
	}

	var position float64
	if m.CapabilityID == "MEDIA_SEEK" {
		raw := m.Inputs["position_seconds"]
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil || p < 0 {
			return nil, fail("position_seconds must be a non-negative number")
		}
		position = p
	}

	switch e.adapter.MediaApply(action, device, uri, position) {
	case hostadapter.EffectSuccess, hostadapter.EffectNoOp:
	default:
		return nil, fail("device rejected %s", action)
	}

	summary := map[string]string{
		"operation": action,
		"device":    device,
		"media_uri": uri,
	}
	if m.CapabilityID == "MEDIA_SEEK" {
		summary["position_seconds"] = m.Inputs["position_seconds"]
	}
	return &model.ExecutionOutput{
		TaskID:       m.TaskID,
		CapabilityID: m.CapabilityID,
		Summary:      summary,
	}, nil
}

func fail(format string, args ...any) *model.ExecutionError {
	return &model.ExecutionError{Code: model.CodeExecutionFailed, Message: fmt.Sprintf(format, args...)}
}
