package launchconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// LaunchJSONFileName is the standard name for VS Code launch configuration file.
	LaunchJSONFileName = "launch.json"
	// VSCodeDirName is the VS Code configuration directory name.
	VSCodeDirName = ".vscode"
)

// LoadFromPath loads a launch.json file from an explicit path. launch.json is
// JSONC in practice, so comments are stripped before parsing.
func LoadFromPath(path string) (*LaunchJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read launch.json: %w", err)
	}

	var lj LaunchJSON
	if err := json.Unmarshal(stripJSONComments(data), &lj); err != nil {
		return nil, fmt.Errorf("failed to parse launch.json: %w", err)
	}

	return &lj, nil
}

// stripJSONComments blanks out // and /* */ comments outside of string
// literals, preserving offsets so parse errors still point at the right spot.
func stripJSONComments(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)

	inString := false
	inLine := false
	inBlock := false
	for i := 0; i < len(out); i++ {
		c := out[i]
		switch {
		case inLine:
			if c == '\n' {
				inLine = false
			} else {
				out[i] = ' '
			}
		case inBlock:
			if c == '*' && i+1 < len(out) && out[i+1] == '/' {
				out[i], out[i+1] = ' ', ' '
				i++
				inBlock = false
			} else if c != '\n' {
				out[i] = ' '
			}
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '/' && i+1 < len(out) && out[i+1] == '/':
			out[i], out[i+1] = ' ', ' '
			i++
			inLine = true
		case c == '/' && i+1 < len(out) && out[i+1] == '*':
			out[i], out[i+1] = ' ', ' '
			i++
			inBlock = true
		}
	}
	return out
}

// Discover searches for a .vscode/launch.json file starting from the given
// path and walking up the directory tree until found or reaching the root.
func Discover(startPath string) (string, error) {
	if startPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		startPath = cwd
	}

	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to stat path: %w", err)
	}
	if !info.IsDir() {
		absPath = filepath.Dir(absPath)
	}

	current := absPath
	for {
		launchPath := filepath.Join(current, VSCodeDirName, LaunchJSONFileName)
		if _, err := os.Stat(launchPath); err == nil {
			return launchPath, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return "", fmt.Errorf("no %s/%s found in %s or parent directories", VSCodeDirName, LaunchJSONFileName, startPath)
}

// FindConfiguration finds a configuration by name in the LaunchJSON.
func FindConfiguration(lj *LaunchJSON, name string) (*AttachConfiguration, error) {
	for i := range lj.Configurations {
		if lj.Configurations[i].Name == name {
			return &lj.Configurations[i], nil
		}
	}
	return nil, fmt.Errorf("configuration %q not found", name)
}

// ListConfigurationNames returns a list of all configuration names.
func ListConfigurationNames(lj *LaunchJSON) []string {
	names := make([]string, len(lj.Configurations))
	for i, cfg := range lj.Configurations {
		names[i] = cfg.Name
	}
	return names
}

// GetWorkspaceFolder derives the workspace folder from the launch.json path.
// The workspace folder is the parent of the .vscode directory. Returns
// POSIX-style paths (forward slashes) for cross-platform consistency.
func GetWorkspaceFolder(launchJSONPath string) string {
	vscodeDir := filepath.Dir(launchJSONPath)
	workspace := filepath.Dir(vscodeDir)
	return filepath.ToSlash(workspace)
}

// ValidateConfiguration performs basic validation on a configuration.
func ValidateConfiguration(cfg *AttachConfiguration) error {
	if cfg.Name == "" {
		return fmt.Errorf("configuration name is required")
	}
	if cfg.Type == "" {
		return fmt.Errorf("configuration type is required")
	}
	if cfg.Request != "launch" && cfg.Request != "attach" {
		return fmt.Errorf("configuration request must be 'launch' or 'attach', got %q", cfg.Request)
	}
	return nil
}
