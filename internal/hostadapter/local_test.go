package hostadapter

import "testing"

func newLocal() *Local {
	return NewLocal(LocalConfig{
		Devices:      []string{"tv"},
		Apps:         []string{"browser", "editor"},
		RunningApps:  []string{"editor"},
		Windows:      []string{"main"},
		Files:        []string{"/home/alice/notes.md"},
		Inaccessible: []string{"vault-window"},
		URLSchemes:   []string{"https"},
	})
}

func TestResolveTarget(t *testing.T) {
	l := newLocal()

	tests := []struct {
		targetType string
		targetID   string
		want       ResolveStatus
	}{
		{"app", "browser", Resolved},
		{"app", "ghost", TargetNotFound},
		{"window", "main", Resolved},
		{"window", "vault-window", TargetNotAccessible},
		{"url", "https://example.com", Resolved},
		{"url", "not a url at all \x00", InvalidTargetFormat},
		{"file", "/home/alice/notes.md", Resolved},
		{"file", "/etc/shadow", TargetNotFound},
		{"gadget", "x", InvalidTargetFormat},
	}
	for _, tt := range tests {
		if got := l.ResolveTarget(tt.targetType, tt.targetID); got != tt.want {
			t.Errorf("ResolveTarget(%q, %q) = %s, want %s", tt.targetType, tt.targetID, got, tt.want)
		}
	}
}

func TestAppLifecycle(t *testing.T) {
	l := newLocal()

	if got := l.AppLaunch("browser", "desktop"); got != EffectSuccess {
		t.Fatalf("launch stopped app: %s", got)
	}
	// Already running: fixed bring-to-front policy, still a success.
	if got := l.AppLaunch("editor", "desktop"); got != EffectSuccess {
		t.Fatalf("launch running app: %s", got)
	}
	if got := l.AppFocus("browser", "desktop"); got != EffectFailed {
		t.Fatalf("focus stopped app should fail: %s", got)
	}
	if got := l.AppClose("editor", "desktop"); got != EffectSuccess {
		t.Fatalf("close running app: %s", got)
	}
	if got := l.AppClose("browser", "desktop"); got != EffectNoOp {
		t.Fatalf("close stopped app should be a no-op: %s", got)
	}
}

func TestNavigateURLSchemes(t *testing.T) {
	l := newLocal()

	if got := l.Navigate("url", "https://example.com", "foreground", "none"); got != EffectSuccess {
		t.Fatalf("https navigation: %s", got)
	}
	if got := l.Navigate("url", "ftp://example.com", "foreground", "none"); got != NavigationBlocked {
		t.Fatalf("ftp navigation should be blocked: %s", got)
	}
}

func TestGetCapabilities_Sorted(t *testing.T) {
	caps := newLocal().GetCapabilities()
	if len(caps.Apps) != 2 || caps.Apps[0] != "browser" || caps.Apps[1] != "editor" {
		t.Fatalf("apps not sorted: %v", caps.Apps)
	}
	if caps.AdapterVersion == "" {
		t.Fatal("adapter version must be static and non-empty")
	}
}
