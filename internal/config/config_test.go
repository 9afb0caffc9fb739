package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies that DefaultConfig returns sensible defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Verify endpoint defaults
	if cfg.Hostname != "localhost" {
		t.Errorf("expected hostname localhost, got %s", cfg.Hostname)
	}
	if cfg.Port != 9222 {
		t.Errorf("expected port 9222, got %d", cfg.Port)
	}
	if cfg.UseHTTPS {
		t.Error("expected UseHTTPS false by default")
	}
	if cfg.DefaultURL != "about:blank" {
		t.Errorf("expected default URL about:blank, got %s", cfg.DefaultURL)
	}
	if cfg.TimeoutMS != 10000 {
		t.Errorf("expected timeout 10000ms, got %d", cfg.TimeoutMS)
	}

	// Verify path resolution defaults
	if !cfg.SourceMaps {
		t.Error("expected SourceMaps true by default")
	}
	if cfg.PathMapping["/"] != "${workspaceFolder}" {
		t.Errorf("expected default path mapping for /, got %s", cfg.PathMapping["/"])
	}

	overrides := cfg.SourceMapPathOverrides
	wantOverrides := map[string]string{
		"meteor://💻app/*": "${webRoot}/*",
		"webpack:///./~/*": "${webRoot}/node_modules/*",
		"webpack:///./*":   "${webRoot}/*",
		"webpack:///src/*": "${webRoot}/*",
		"webpack:///*":     "*",
	}
	if len(overrides) != len(wantOverrides) {
		t.Errorf("expected %d override entries, got %d", len(wantOverrides), len(overrides))
	}
	for k, v := range wantOverrides {
		if overrides[k] != v {
			t.Errorf("override %q: expected %q, got %q", k, v, overrides[k])
		}
	}

	// Verify safety limits
	if cfg.MaxSessions != 10 {
		t.Errorf("expected MaxSessions 10, got %d", cfg.MaxSessions)
	}
	if cfg.SessionTimeout != 30*time.Minute {
		t.Errorf("expected SessionTimeout 30m, got %v", cfg.SessionTimeout)
	}
}

// TestLoadConfig verifies that a config file overlays the defaults field by
// field rather than replacing the whole object.
func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	configJSON := `{
		"port": 9333,
		"webRoot": "/srv/app",
		"sourceMaps": false
	}`
	if err := os.WriteFile(configPath, []byte(configJSON), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Port != 9333 {
		t.Errorf("expected port 9333, got %d", cfg.Port)
	}
	if cfg.WebRoot != "/srv/app" {
		t.Errorf("expected webRoot /srv/app, got %s", cfg.WebRoot)
	}
	if cfg.SourceMaps {
		t.Error("expected sourceMaps false")
	}

	// Untouched fields keep their defaults.
	if cfg.Hostname != "localhost" {
		t.Errorf("expected default hostname preserved, got %s", cfg.Hostname)
	}
	if len(cfg.SourceMapPathOverrides) == 0 {
		t.Error("expected default override table preserved")
	}
}

// TestLoadConfig_SessionTimeoutForms verifies sessionTimeout parses from both
// a duration string, as the help text shows, and raw nanoseconds.
func TestLoadConfig_SessionTimeoutForms(t *testing.T) {
	tmpDir := t.TempDir()

	stringForm := filepath.Join(tmpDir, "string.json")
	if err := os.WriteFile(stringForm, []byte(`{"sessionTimeout": "45m"}`), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	cfg, err := LoadConfig(stringForm)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.SessionTimeout != 45*time.Minute {
		t.Errorf("expected 45m, got %v", cfg.SessionTimeout)
	}

	numericForm := filepath.Join(tmpDir, "numeric.json")
	if err := os.WriteFile(numericForm, []byte(`{"sessionTimeout": 60000000000}`), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	cfg, err = LoadConfig(numericForm)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.SessionTimeout != time.Minute {
		t.Errorf("expected 1m, got %v", cfg.SessionTimeout)
	}

	// Other fields still overlay the defaults when sessionTimeout is absent.
	badForm := filepath.Join(tmpDir, "bad.json")
	if err := os.WriteFile(badForm, []byte(`{"sessionTimeout": "not-a-duration"}`), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadConfig(badForm); err == nil {
		t.Error("expected error for unparseable sessionTimeout")
	}
}

// TestLoadConfig_EmptyPath verifies that no path means pure defaults.
func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Port != 9222 {
		t.Errorf("expected default port, got %d", cfg.Port)
	}
}

// TestLoadConfig_MissingFile verifies an explicit path that does not exist is
// an error.
func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.json"); err == nil {
		t.Error("expected error for missing config file")
	}
}

// TestResolveSettings verifies per-field layering: explicit overrides beat the
// persisted config, and unset override fields fall through.
func TestResolveSettings(t *testing.T) {
	persisted := DefaultConfig()
	persisted.Port = 9333
	persisted.WebRoot = "/persisted"

	useHTTPS := true
	sourceMaps := false
	explicit := &Overrides{
		Hostname:   "devbox",
		UseHTTPS:   &useHTTPS,
		SourceMaps: &sourceMaps,
		TimeoutMS:  2500,
	}

	rs := ResolveSettings(explicit, persisted)

	// Explicit layer wins where set.
	if rs.Hostname != "devbox" {
		t.Errorf("expected explicit hostname, got %s", rs.Hostname)
	}
	if !rs.UseHTTPS {
		t.Error("expected explicit useHttps true")
	}
	if rs.SourceMaps {
		t.Error("expected explicit sourceMaps false to win over the default true")
	}
	if rs.Timeout != 2500*time.Millisecond {
		t.Errorf("expected explicit timeout, got %v", rs.Timeout)
	}

	// Unset explicit fields fall through to the persisted layer.
	if rs.Port != 9333 {
		t.Errorf("expected persisted port, got %d", rs.Port)
	}
	if rs.WebRoot != "/persisted" {
		t.Errorf("expected persisted webRoot, got %s", rs.WebRoot)
	}

	// Fields persisted never touched fall through to the defaults.
	if rs.DefaultURL != "about:blank" {
		t.Errorf("expected default URL, got %s", rs.DefaultURL)
	}
}

// TestResolveSettings_NilLayers verifies nil layers resolve to the built-in
// defaults.
func TestResolveSettings_NilLayers(t *testing.T) {
	rs := ResolveSettings(nil, nil)

	if rs.Hostname != "localhost" || rs.Port != 9222 {
		t.Errorf("expected default endpoint, got %s:%d", rs.Hostname, rs.Port)
	}
	if rs.Timeout != 10*time.Second {
		t.Errorf("expected default timeout, got %v", rs.Timeout)
	}
	if !rs.SourceMaps {
		t.Error("expected sourceMaps true by default")
	}
}

// TestBrowserPathTable_Flavors verifies the flavor list and that Lookup does
// not invent paths for machines without a browser installed.
func TestBrowserPathTable_Flavors(t *testing.T) {
	table := NewBrowserPathTable()

	flavors := table.Flavors()
	if len(flavors) == 0 {
		t.Fatal("expected at least one flavor")
	}

	seen := map[BrowserFlavor]bool{}
	for _, f := range flavors {
		seen[f] = true
	}
	// Canary is not packaged on every platform; the rest always have entries.
	for _, want := range []BrowserFlavor{FlavorStable, FlavorBeta, FlavorDev} {
		if !seen[want] {
			t.Errorf("expected flavor %s in list", want)
		}
	}

	// Lookup must return either an existing path or empty, never a guess.
	if path := table.Lookup(FlavorStable); path != "" {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Lookup returned a path that does not exist: %s", path)
		}
	}
}
