package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

//go:embed builtin/shared/*.yaml builtin/agents/*.yaml
var builtinFS embed.FS

// BuiltinSource marks templates bundled with the binary.
const BuiltinSource = "builtin"

// LoadBuiltinTemplates returns the built-in templates bundled with spindle,
// keyed and ordered by their store-relative names.
func LoadBuiltinTemplates() ([]*Template, error) {
	templates := make([]*Template, 0)
	err := fs.WalkDir(builtinFS, "builtin", func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		data, err := builtinFS.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read builtin template %s: %w", entry.Name(), err)
		}
		tmpl, err := parseTemplate(data)
		if err != nil {
			return fmt.Errorf("parse builtin template %s: %w", entry.Name(), err)
		}
		tmpl.Source = BuiltinSource
		templates = append(templates, tmpl)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return templates, nil
}

// loadBuiltin loads a single builtin template by its store-relative name,
// e.g. "shared/common".
func loadBuiltin(rel string) (*Template, error) {
	p := path.Join("builtin", rel+".yaml")
	data, err := builtinFS.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", rel, ErrTemplateNotFound)
	}
	tmpl, err := parseTemplate(data)
	if err != nil {
		return nil, &ParseError{Path: p, Err: err}
	}
	tmpl.Source = BuiltinSource
	return tmpl, nil
}

// builtinNames lists the store-relative names of all builtin templates in
// walk order.
func builtinNames() []string {
	names := make([]string, 0)
	_ = fs.WalkDir(builtinFS, "builtin", func(p string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		rel := strings.TrimPrefix(p, "builtin/")
		names = append(names, strings.TrimSuffix(rel, path.Ext(rel)))
		return nil
	})
	return names
}
