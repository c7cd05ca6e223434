package agents

import (
	"os"
	"path/filepath"
	"strings"
)

// AgentSearchPaths returns the directories searched for agent manifests,
// in precedence order: project-local, then per-user, then system-wide.
func AgentSearchPaths(projectDir string) []string {
	var paths []string

	if projectDir != "" {
		paths = append(paths, filepath.Join(projectDir, ".spindle", "agents"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "spindle", "agents"))
	}

	paths = append(paths, "/usr/share/spindle/agents")
	return paths
}

// LoadManifestsFromSearchPaths loads manifests from each directory in
// order; the first manifest found for a name wins. Builtin manifests
// fill in behind everything on disk.
func LoadManifestsFromSearchPaths(paths []string) ([]*Manifest, error) {
	seen := map[string]bool{}
	var manifests []*Manifest

	for _, dir := range paths {
		loaded, err := LoadManifestsFromDir(dir)
		if err != nil {
			return nil, err
		}
		for _, manifest := range loaded {
			if seen[manifest.Name] {
				continue
			}
			seen[manifest.Name] = true
			manifests = append(manifests, manifest)
		}
	}

	builtins, err := LoadBuiltinManifests()
	if err != nil {
		return nil, err
	}
	for _, manifest := range builtins {
		if seen[manifest.Name] {
			continue
		}
		seen[manifest.Name] = true
		manifests = append(manifests, manifest)
	}

	return manifests, nil
}

// FindManifest locates a manifest by name across the search paths.
func FindManifest(paths []string, name string) (*Manifest, error) {
	name = strings.TrimSpace(name)

	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			return LoadManifest(path)
		}
	}

	if manifest, err := loadBuiltinManifest(name); err == nil {
		return manifest, nil
	}
	return nil, ErrAgentNotFound
}
