package templates

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadTemplate reads a single template definition from disk.
func LoadTemplate(path string) (*Template, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("template path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("template %s: %w", path, ErrTemplateNotFound)
		}
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}

	tmpl, err := parseTemplate(data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	tmpl.Source = path
	return tmpl, nil
}

// LoadTemplatesFromDir loads every template under dir, walking nested
// directories. A missing directory yields an empty result, not an error.
// Returned order matches the walk order.
func LoadTemplatesFromDir(dir string) ([]*Template, error) {
	if strings.TrimSpace(dir) == "" {
		return []*Template{}, nil
	}

	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return []*Template{}, nil
		}
		return nil, fmt.Errorf("stat templates dir %s: %w", dir, err)
	}

	loaded := make([]*Template, 0)
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		tmpl, err := LoadTemplate(path)
		if err != nil {
			return err
		}
		loaded = append(loaded, tmpl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk templates dir %s: %w", dir, err)
	}

	return loaded, nil
}

func parseTemplate(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, err
	}

	tmpl.Name = strings.TrimSpace(tmpl.Name)
	if tmpl.Name == "" {
		return nil, fmt.Errorf("template name is required")
	}
	if tmpl.Body == "" {
		return nil, fmt.Errorf("template body is required")
	}
	tmpl.Description = strings.TrimSpace(tmpl.Description)
	tmpl.Version = strings.TrimSpace(tmpl.Version)

	if tmpl.Variables == nil {
		tmpl.Variables = map[string]string{}
	}

	for i, ref := range tmpl.Includes {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			return nil, fmt.Errorf("include %d: reference is required", i+1)
		}
		tmpl.Includes[i] = ref
	}

	tmpl.checksum = sha256.Sum256(data)
	return &tmpl, nil
}
