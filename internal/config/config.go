// Package config provides configuration management for the CDP-MCP server.
//
// Configuration controls:
//   - The default remote debugging endpoint (hostname, port, https)
//   - Path mapping and source-map override tables for path resolution
//   - Browser flavor selection and executable lookup
//   - Safety limits: maximum sessions and idle session timeout
//
// Settings are layered: an explicit per-session override (tool arguments or a
// launch.json attach configuration) wins over the persisted JSON config file,
// which wins over built-in defaults. Each field falls back independently;
// there is no whole-object fallback.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config holds the persisted server configuration
type Config struct {
	// Remote debugging endpoint defaults
	Hostname    string `json:"hostname"`
	Port        int    `json:"port"`
	UseHTTPS    bool   `json:"useHttps"`
	DefaultURL  string `json:"defaultUrl"`
	UserDataDir string `json:"userDataDir"`
	TimeoutMS   int    `json:"timeout"`

	// Browser selection (informational; this server never launches a browser)
	BrowserFlavor string `json:"browserFlavor"`
	Headless      bool   `json:"headless"`

	// Path resolution
	SourceMaps             bool              `json:"sourceMaps"`
	WebRoot                string            `json:"webRoot"`
	PathMapping            map[string]string `json:"pathMapping"`
	SourceMapPathOverrides map[string]string `json:"sourceMapPathOverrides"`

	// Limits for safety
	MaxSessions    int           `json:"maxSessions"`
	SessionTimeout time.Duration `json:"sessionTimeout"`
}

// DefaultPathMapping is the built-in workspace path mapping table.
func DefaultPathMapping() map[string]string {
	return map[string]string{
		"/": "${workspaceFolder}",
	}
}

// DefaultSourceMapPathOverrides is the built-in source-map override table,
// covering the common bundler URL schemes.
func DefaultSourceMapPathOverrides() map[string]string {
	return map[string]string{
		"meteor://💻app/*": "${webRoot}/*",
		"webpack:///./~/*": "${webRoot}/node_modules/*",
		"webpack:///./*":   "${webRoot}/*",
		"webpack:///src/*": "${webRoot}/*",
		"webpack:///*":     "*",
	}
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Hostname:               "localhost",
		Port:                   9222,
		UseHTTPS:               false,
		DefaultURL:             "about:blank",
		TimeoutMS:              10000,
		BrowserFlavor:          string(FlavorDefault),
		SourceMaps:             true,
		PathMapping:            DefaultPathMapping(),
		SourceMapPathOverrides: DefaultSourceMapPathOverrides(),
		MaxSessions:            10,
		SessionTimeout:         30 * time.Minute,
	}
}

// UnmarshalJSON accepts sessionTimeout either as a duration string like "30m"
// or as a number of nanoseconds. Config files use the readable form.
func (c *Config) UnmarshalJSON(data []byte) error {
	type alias Config
	aux := struct {
		*alias
		SessionTimeout json.RawMessage `json:"sessionTimeout"`
	}{alias: (*alias)(c)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if len(aux.SessionTimeout) == 0 || string(aux.SessionTimeout) == "null" {
		return nil
	}
	if aux.SessionTimeout[0] == '"' {
		var s string
		if err := json.Unmarshal(aux.SessionTimeout, &s); err != nil {
			return err
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid sessionTimeout %q: %w", s, err)
		}
		c.SessionTimeout = d
		return nil
	}

	var ns int64
	if err := json.Unmarshal(aux.SessionTimeout, &ns); err != nil {
		return fmt.Errorf("invalid sessionTimeout: %w", err)
	}
	c.SessionTimeout = time.Duration(ns)
	return nil
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Overrides carries an explicit per-session configuration layer. Zero values
// mean "not set"; boolean fields use pointers so false can be expressed
// explicitly.
type Overrides struct {
	Hostname               string
	Port                   int
	UseHTTPS               *bool
	DefaultURL             string
	UserDataDir            string
	TimeoutMS              int
	BrowserFlavor          string
	Headless               *bool
	SourceMaps             *bool
	WebRoot                string
	PathMapping            map[string]string
	SourceMapPathOverrides map[string]string
}

// RuntimeSettings is the immutable per-session settings shape the attach
// pipeline consumes. Resolved once per session and never mutated after.
type RuntimeSettings struct {
	Hostname               string
	Port                   int
	UseHTTPS               bool
	DefaultURL             string
	UserDataDir            string
	Timeout                time.Duration
	BrowserFlavor          BrowserFlavor
	Headless               bool
	SourceMaps             bool
	WebRoot                string
	PathMapping            map[string]string
	SourceMapPathOverrides map[string]string
}

// ResolveSettings derives RuntimeSettings from the explicit overrides and the
// persisted config. The persisted config has already absorbed the built-in
// defaults field by field (LoadConfig unmarshals over DefaultConfig), so each
// field here only needs to prefer a set override.
func ResolveSettings(explicit *Overrides, persisted *Config) RuntimeSettings {
	if explicit == nil {
		explicit = &Overrides{}
	}
	if persisted == nil {
		persisted = DefaultConfig()
	}

	rs := RuntimeSettings{
		Hostname:               persisted.Hostname,
		Port:                   persisted.Port,
		UseHTTPS:               persisted.UseHTTPS,
		DefaultURL:             persisted.DefaultURL,
		UserDataDir:            persisted.UserDataDir,
		Timeout:                time.Duration(persisted.TimeoutMS) * time.Millisecond,
		BrowserFlavor:          BrowserFlavor(persisted.BrowserFlavor),
		Headless:               persisted.Headless,
		SourceMaps:             persisted.SourceMaps,
		WebRoot:                persisted.WebRoot,
		PathMapping:            persisted.PathMapping,
		SourceMapPathOverrides: persisted.SourceMapPathOverrides,
	}

	if explicit.Hostname != "" {
		rs.Hostname = explicit.Hostname
	}
	if explicit.Port != 0 {
		rs.Port = explicit.Port
	}
	if explicit.UseHTTPS != nil {
		rs.UseHTTPS = *explicit.UseHTTPS
	}
	if explicit.DefaultURL != "" {
		rs.DefaultURL = explicit.DefaultURL
	}
	if explicit.UserDataDir != "" {
		rs.UserDataDir = explicit.UserDataDir
	}
	if explicit.TimeoutMS != 0 {
		rs.Timeout = time.Duration(explicit.TimeoutMS) * time.Millisecond
	}
	if explicit.BrowserFlavor != "" {
		rs.BrowserFlavor = BrowserFlavor(explicit.BrowserFlavor)
	}
	if explicit.Headless != nil {
		rs.Headless = *explicit.Headless
	}
	if explicit.SourceMaps != nil {
		rs.SourceMaps = *explicit.SourceMaps
	}
	if explicit.WebRoot != "" {
		rs.WebRoot = explicit.WebRoot
	}
	if len(explicit.PathMapping) != 0 {
		rs.PathMapping = explicit.PathMapping
	}
	if len(explicit.SourceMapPathOverrides) != 0 {
		rs.SourceMapPathOverrides = explicit.SourceMapPathOverrides
	}

	return rs
}
