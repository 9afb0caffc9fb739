package launchconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Variable pattern matches ${...} expressions
var variablePattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolutionContext carries the values variable expressions resolve against.
type ResolutionContext struct {
	WorkspaceFolder string
	EnvOverrides    map[string]string
}

// ResolveVariables replaces all ${...} variables in the given text.
// ${webRoot} is intentionally not handled here: it is resolved later by the
// path-mapping stage, against the resolved webRoot setting.
func ResolveVariables(text string, ctx *ResolutionContext) (string, error) {
	if ctx == nil {
		ctx = &ResolutionContext{}
	}

	var lastErr error
	result := variablePattern.ReplaceAllStringFunc(text, func(match string) string {
		expr := match[2 : len(match)-1]

		resolved, err := resolveVariable(expr, ctx)
		if err != nil {
			lastErr = err
			return match // Keep original if error
		}
		return resolved
	})

	return result, lastErr
}

// resolveVariable resolves a single variable expression.
func resolveVariable(expr string, ctx *ResolutionContext) (string, error) {
	switch {
	case expr == "workspaceFolder":
		return ctx.WorkspaceFolder, nil

	case expr == "workspaceFolderBasename":
		return filepath.Base(ctx.WorkspaceFolder), nil

	case expr == "userHome":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home: %w", err)
		}
		return home, nil

	case expr == "cwd":
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get cwd: %w", err)
		}
		return cwd, nil

	case expr == "pathSeparator":
		return string(os.PathSeparator), nil

	case expr == "webRoot":
		// Deferred to path resolution; keep the token intact.
		return "${webRoot}", nil

	case strings.HasPrefix(expr, "env:"):
		varName := strings.TrimPrefix(expr, "env:")
		if ctx.EnvOverrides != nil {
			if val, ok := ctx.EnvOverrides[varName]; ok {
				return val, nil
			}
		}
		return os.Getenv(varName), nil

	default:
		return "", fmt.Errorf("unknown variable: ${%s}", expr)
	}
}

// ResolveConfiguration resolves variables in all string fields of an attach
// configuration, returning a resolved copy. Mapping table keys are left
// untouched; only their values are resolved, and values are allowed to keep
// a leading ${webRoot} for the path-mapping stage.
func ResolveConfiguration(cfg *AttachConfiguration, ctx *ResolutionContext) (*AttachConfiguration, error) {
	resolved := *cfg

	var err error
	if resolved.Hostname, err = ResolveVariables(cfg.Hostname, ctx); err != nil {
		return nil, err
	}
	if resolved.URL, err = ResolveVariables(cfg.URL, ctx); err != nil {
		return nil, err
	}
	if resolved.UserDataDir, err = ResolveVariables(cfg.UserDataDir, ctx); err != nil {
		return nil, err
	}
	if resolved.WebRoot, err = ResolveVariables(cfg.WebRoot, ctx); err != nil {
		return nil, err
	}

	if cfg.PathMapping != nil {
		resolved.PathMapping = make(map[string]string, len(cfg.PathMapping))
		for k, v := range cfg.PathMapping {
			rv, err := ResolveVariables(v, ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve pathMapping value for %q: %w", k, err)
			}
			resolved.PathMapping[k] = rv
		}
	}

	if cfg.SourceMapPathOverrides != nil {
		resolved.SourceMapPathOverrides = make(map[string]string, len(cfg.SourceMapPathOverrides))
		for k, v := range cfg.SourceMapPathOverrides {
			rv, err := ResolveVariables(v, ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve sourceMapPathOverrides value for %q: %w", k, err)
			}
			resolved.SourceMapPathOverrides[k] = rv
		}
	}

	return &resolved, nil
}
