package agents

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// BuiltinSource marks manifests that ship embedded in the binary.
const BuiltinSource = "builtin"

// LoadBuiltinManifests returns every embedded manifest, sorted by name.
func LoadBuiltinManifests() ([]*Manifest, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, fmt.Errorf("read builtin agents: %w", err)
	}

	var manifests []*Manifest
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), ".yaml")
		manifest, err := loadBuiltinManifest(name)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, manifest)
	}

	sort.Slice(manifests, func(i, j int) bool {
		return manifests[i].Name < manifests[j].Name
	})
	return manifests, nil
}

func loadBuiltinManifest(name string) (*Manifest, error) {
	data, err := builtinFS.ReadFile(path.Join("builtin", name+".yaml"))
	if err != nil {
		return nil, ErrAgentNotFound
	}
	manifest, err := parseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("parse builtin agent %s: %w", name, err)
	}
	manifest.Source = BuiltinSource
	return manifest, nil
}
