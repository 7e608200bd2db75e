package hostadapter

import (
	"net/url"
	"sort"
)

// LocalConfig describes the static world a Local adapter exposes. All
// fields are fixed at construction; the adapter never discovers targets at
// runtime.
type LocalConfig struct {
	Devices      []string
	Apps         []string
	RunningApps  []string
	Windows      []string
	Files        []string
	Inaccessible []string // targets that resolve but may not be touched
	URLSchemes   []string // url schemes navigation may open
}

// Local is the reference adapter: an in-memory host model with fully
// deterministic behavior, used by self-contained deployments and tests.
// Platform-specific adapters (desktop focus, real media devices) implement
// the same interface out of tree.
type Local struct {
	devices      map[string]bool
	apps         map[string]bool
	running      map[string]bool
	windows      map[string]bool
	files        map[string]bool
	inaccessible map[string]bool
	urlSchemes   map[string]bool
}

// NewLocal builds a Local adapter from a static configuration.
func NewLocal(cfg LocalConfig) *Local {
	return &Local{
		devices:      toSet(cfg.Devices),
		apps:         toSet(cfg.Apps),
		running:      toSet(cfg.RunningApps),
		windows:      toSet(cfg.Windows),
		files:        toSet(cfg.Files),
		inaccessible: toSet(cfg.Inaccessible),
		urlSchemes:   toSet(cfg.URLSchemes),
	}
}

func toSet(items []string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, it := range items {
		s[it] = true
	}
	return s
}

// ResolveTarget resolves against the static registries.
func (l *Local) ResolveTarget(targetType, targetID string) ResolveStatus {
	if l.inaccessible[targetID] {
		return TargetNotAccessible
	}
	switch targetType {
	case "app":
		if l.apps[targetID] {
			return Resolved
		}
		return TargetNotFound
	case "window":
		if l.windows[targetID] {
			return Resolved
		}
		return TargetNotFound
	case "url":
		u, err := url.Parse(targetID)
		if err != nil || u.Scheme == "" {
			return InvalidTargetFormat
		}
		return Resolved
	case "file":
		if l.files[targetID] {
			return Resolved
		}
		return TargetNotFound
	}
	return InvalidTargetFormat
}

// MediaApply applies a playback action against a known device.
func (l *Local) MediaApply(action, targetDevice, mediaURI string, positionSeconds float64) EffectStatus {
	if !l.devices[targetDevice] {
		return EffectFailed
	}
	switch action {
	case "play", "pause", "stop", "seek":
		return EffectSuccess
	}
	return EffectFailed
}

// AppLaunch starts an app; an already-running app is brought to the front
// (fixed policy), reported as SUCCESS, never NO_OP.
func (l *Local) AppLaunch(appID, environment string) EffectStatus {
	if !l.apps[appID] {
		return EffectFailed
	}
	if l.running[appID] {
		return l.AppFocus(appID, environment)
	}
	return EffectSuccess
}

// AppFocus brings a running app to the front; focusing an app that is not
// running fails.
func (l *Local) AppFocus(appID, environment string) EffectStatus {
	if !l.apps[appID] {
		return EffectFailed
	}
	if !l.running[appID] {
		return EffectFailed
	}
	return EffectSuccess
}

// AppClose gracefully terminates a running app; closing a stopped app is a
// no-op.
func (l *Local) AppClose(appID, environment string) EffectStatus {
	if !l.apps[appID] {
		return EffectFailed
	}
	if !l.running[appID] {
		return EffectNoOp
	}
	return EffectSuccess
}

// Navigate moves attention to a previously resolved target. URL schemes
// outside the allowlist are blocked.
func (l *Local) Navigate(targetType, targetID, navigationMode, focusPolicy string) EffectStatus {
	if targetType == "url" {
		u, err := url.Parse(targetID)
		if err != nil {
			return EffectFailed
		}
		if !l.urlSchemes[u.Scheme] {
			return NavigationBlocked
		}
	}
	return EffectSuccess
}

// GetCapabilities returns the static host description, sorted for
// reproducible output.
func (l *Local) GetCapabilities() Capabilities {
	return Capabilities{
		AdapterVersion: "local/1",
		Devices:        sortedKeys(l.devices),
		Apps:           sortedKeys(l.apps),
		URLSchemes:     sortedKeys(l.urlSchemes),
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
