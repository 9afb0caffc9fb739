// Package launchconfig provides support for VS Code launch.json attach
// configurations. A named configuration supplies the explicit layer of the
// session settings resolution.
package launchconfig

import (
	"github.com/cdpkit/cdp-mcp/internal/config"
)

// LaunchJSON represents a VS Code launch.json file structure.
type LaunchJSON struct {
	Version        string                `json:"version"`
	Configurations []AttachConfiguration `json:"configurations"`
}

// AttachConfiguration represents a single browser attach configuration in
// launch.json. Only the fields the attach surface consumes are modeled;
// unknown fields are ignored on load.
type AttachConfiguration struct {
	// Required fields
	Type    string `json:"type"`    // e.g., "msedge", "chrome"
	Request string `json:"request"` // "launch" or "attach"
	Name    string `json:"name"`    // Human-readable name

	// Endpoint fields
	Hostname string `json:"hostname,omitempty"`
	Port     int    `json:"port,omitempty"`
	UseHTTPS *bool  `json:"useHttps,omitempty"`
	Timeout  int    `json:"timeout,omitempty"`

	// Browser fields (informational; this tool never launches)
	URL           string `json:"url,omitempty"`
	UserDataDir   string `json:"userDataDir,omitempty"`
	BrowserFlavor string `json:"browserFlavor,omitempty"`
	Headless      *bool  `json:"headless,omitempty"`

	// Path resolution fields
	WebRoot                string            `json:"webRoot,omitempty"`
	PathMapping            map[string]string `json:"pathMapping,omitempty"`
	SourceMaps             *bool             `json:"sourceMaps,omitempty"`
	SourceMapPathOverrides map[string]string `json:"sourceMapPathOverrides,omitempty"`
}

// ToOverrides converts the configuration into the explicit settings layer.
func (c *AttachConfiguration) ToOverrides() *config.Overrides {
	return &config.Overrides{
		Hostname:               c.Hostname,
		Port:                   c.Port,
		UseHTTPS:               c.UseHTTPS,
		DefaultURL:             c.URL,
		UserDataDir:            c.UserDataDir,
		TimeoutMS:              c.Timeout,
		BrowserFlavor:          c.BrowserFlavor,
		Headless:               c.Headless,
		SourceMaps:             c.SourceMaps,
		WebRoot:                c.WebRoot,
		PathMapping:            c.PathMapping,
		SourceMapPathOverrides: c.SourceMapPathOverrides,
	}
}
