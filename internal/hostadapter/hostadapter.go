// Package hostadapter fixes the boundary between executors and the
// platform. Every call is synchronous, stateless from the executor's point
// of view, returns an explicit result code instead of failing non-locally,
// and is deterministic given identical host state.
package hostadapter

// ResolveStatus is the outcome of a target resolution.
type ResolveStatus string

const (
	Resolved            ResolveStatus = "RESOLVED"
	TargetNotFound      ResolveStatus = "TARGET_NOT_FOUND"
	TargetNotAccessible ResolveStatus = "TARGET_NOT_ACCESSIBLE"
	InvalidTargetFormat ResolveStatus = "INVALID_TARGET_FORMAT"
)

// EffectStatus is the outcome of a capability effect call.
type EffectStatus string

const (
	EffectSuccess     EffectStatus = "SUCCESS"
	EffectNoOp        EffectStatus = "NO_OP"
	NavigationBlocked EffectStatus = "NAVIGATION_BLOCKED"
	EffectFailed      EffectStatus = "EXECUTION_FAILED"
)

// Capabilities is the static host description returned by GetCapabilities.
type Capabilities struct {
	AdapterVersion string   `json:"adapter_version"`
	Devices        []string `json:"devices"`
	Apps           []string `json:"apps"`
	URLSchemes     []string `json:"url_schemes"`
}

// Adapter is the narrow surface executors may touch. Implementations must
// not panic across this boundary and must not block beyond the host's
// resource caps.
type Adapter interface {
	// ResolveTarget maps a (type, id) pair to a concrete host target.
	ResolveTarget(targetType, targetID string) ResolveStatus

	// MediaApply applies a playback action on a device. positionSeconds is
	// meaningful for seek only.
	MediaApply(action, targetDevice, mediaURI string, positionSeconds float64) EffectStatus

	// AppLaunch starts an app in an environment. Launching an app that is
	// already running brings it to the front; the choice is fixed at build
	// time and never varies.
	AppLaunch(appID, environment string) EffectStatus

	// AppFocus brings a running app to the front.
	AppFocus(appID, environment string) EffectStatus

	// AppClose terminates an app gracefully. Force-kill is not part of the
	// contract.
	AppClose(appID, environment string) EffectStatus

	// Navigate moves user attention to a resolved target.
	Navigate(targetType, targetID, navigationMode, focusPolicy string) EffectStatus

	// GetCapabilities returns the static host description.
	GetCapabilities() Capabilities
}
