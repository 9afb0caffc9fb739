package config

import (
	"os"
	"runtime"
)

// BrowserFlavor identifies which release channel of the browser a session
// refers to.
type BrowserFlavor string

const (
	FlavorDefault BrowserFlavor = "Default"
	FlavorStable  BrowserFlavor = "Stable"
	FlavorBeta    BrowserFlavor = "Beta"
	FlavorDev     BrowserFlavor = "Dev"
	FlavorCanary  BrowserFlavor = "Canary"
)

// BrowserPathTable maps browser flavors to known executable install
// locations. It is constructed once at startup and read-only afterwards;
// consumers share it by reference and need no locking.
type BrowserPathTable struct {
	locations map[BrowserFlavor][]string
}

// NewBrowserPathTable builds the flavor table for the current platform.
func NewBrowserPathTable() *BrowserPathTable {
	t := &BrowserPathTable{locations: make(map[BrowserFlavor][]string)}

	switch runtime.GOOS {
	case "darwin":
		t.locations[FlavorStable] = []string{
			"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
		}
		t.locations[FlavorBeta] = []string{
			"/Applications/Microsoft Edge Beta.app/Contents/MacOS/Microsoft Edge Beta",
		}
		t.locations[FlavorDev] = []string{
			"/Applications/Microsoft Edge Dev.app/Contents/MacOS/Microsoft Edge Dev",
		}
		t.locations[FlavorCanary] = []string{
			"/Applications/Microsoft Edge Canary.app/Contents/MacOS/Microsoft Edge Canary",
		}
	case "windows":
		programFiles := os.Getenv("ProgramFiles(x86)")
		if programFiles == "" {
			programFiles = `C:\Program Files (x86)`
		}
		localAppData := os.Getenv("LOCALAPPDATA")
		t.locations[FlavorStable] = []string{
			programFiles + `\Microsoft\Edge\Application\msedge.exe`,
		}
		t.locations[FlavorBeta] = []string{
			programFiles + `\Microsoft\Edge Beta\Application\msedge.exe`,
		}
		t.locations[FlavorDev] = []string{
			programFiles + `\Microsoft\Edge Dev\Application\msedge.exe`,
		}
		if localAppData != "" {
			t.locations[FlavorCanary] = []string{
				localAppData + `\Microsoft\Edge SxS\Application\msedge.exe`,
			}
		}
	default:
		t.locations[FlavorStable] = []string{
			"/usr/bin/microsoft-edge-stable",
			"/usr/bin/microsoft-edge",
			"/opt/microsoft/msedge/msedge",
		}
		t.locations[FlavorBeta] = []string{
			"/usr/bin/microsoft-edge-beta",
		}
		t.locations[FlavorDev] = []string{
			"/usr/bin/microsoft-edge-dev",
		}
	}

	return t
}

// Lookup returns the first existing executable for the given flavor, or an
// empty string if none is installed. FlavorDefault probes the channels in
// Stable, Beta, Dev, Canary order.
func (t *BrowserPathTable) Lookup(flavor BrowserFlavor) string {
	if flavor == FlavorDefault || flavor == "" {
		for _, f := range []BrowserFlavor{FlavorStable, FlavorBeta, FlavorDev, FlavorCanary} {
			if p := t.Lookup(f); p != "" {
				return p
			}
		}
		return ""
	}

	for _, loc := range t.locations[flavor] {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Flavors returns the flavors with at least one known location on this
// platform.
func (t *BrowserPathTable) Flavors() []BrowserFlavor {
	flavors := make([]BrowserFlavor, 0, len(t.locations))
	for f := range t.locations {
		flavors = append(flavors, f)
	}
	return flavors
}
