package templates

import (
	"os"
	"path/filepath"
)

// TemplateSearchPaths returns template search directories in precedence order.
func TemplateSearchPaths(projectDir string) []string {
	paths := make([]string, 0, 3)
	if projectDir != "" {
		paths = append(paths, filepath.Join(projectDir, ".spindle", "templates"))
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", "spindle", "templates"))
	}

	paths = append(paths, filepath.Join(string(filepath.Separator), "usr", "share", "spindle", "templates"))
	return paths
}
