package templates

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTemplateFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	return path
}

func TestLoadTemplate(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplateFile(t, dir, "greet.yaml", `name: greet
version: "1.0"
description: Greeting template
variables:
  name: World
template: "Hello, {name}!"
`)

	tmpl, err := LoadTemplate(path)
	if err != nil {
		t.Fatalf("LoadTemplate: %v", err)
	}
	if tmpl.Name != "greet" {
		t.Fatalf("expected name greet, got %q", tmpl.Name)
	}
	if tmpl.Version != "1.0" {
		t.Fatalf("expected version 1.0, got %q", tmpl.Version)
	}
	if tmpl.Source != path {
		t.Fatalf("expected source %q, got %q", path, tmpl.Source)
	}
	if tmpl.Variables["name"] != "World" {
		t.Fatalf("unexpected variables: %+v", tmpl.Variables)
	}
	if tmpl.Body != "Hello, {name}!" {
		t.Fatalf("unexpected body: %q", tmpl.Body)
	}
}

func TestLoadTemplateMissingName(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplateFile(t, dir, "broken.yaml", "template: body\n")

	_, err := LoadTemplate(path)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Path != path {
		t.Fatalf("expected offending path %q, got %q", path, parseErr.Path)
	}
}

func TestLoadTemplateMissingBody(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplateFile(t, dir, "broken.yaml", "name: broken\n")

	var parseErr *ParseError
	if _, err := LoadTemplate(path); !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestLoadTemplateNotFound(t *testing.T) {
	_, err := LoadTemplate(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestLoadTemplatesFromDirWalksNested(t *testing.T) {
	dir := t.TempDir()
	writeTemplateFile(t, dir, "top.yaml", "name: top\ntemplate: T\n")
	writeTemplateFile(t, dir, "agents/search.yaml", "name: agents/search\ntemplate: S\n")
	writeTemplateFile(t, dir, "notes.txt", "not a template")

	loaded, err := LoadTemplatesFromDir(dir)
	if err != nil {
		t.Fatalf("LoadTemplatesFromDir: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(loaded))
	}
}

func TestLoadTemplatesFromDirMissing(t *testing.T) {
	loaded, err := LoadTemplatesFromDir(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("LoadTemplatesFromDir: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected no templates, got %d", len(loaded))
	}
}

func TestLoadBuiltinTemplates(t *testing.T) {
	builtins, err := LoadBuiltinTemplates()
	if err != nil {
		t.Fatalf("LoadBuiltinTemplates: %v", err)
	}
	if len(builtins) < 5 {
		t.Fatalf("expected at least 5 builtin templates, got %d", len(builtins))
	}
	for _, tmpl := range builtins {
		if tmpl.Source != BuiltinSource {
			t.Fatalf("expected builtin source, got %q", tmpl.Source)
		}
		if tmpl.Name == "" || tmpl.Body == "" {
			t.Fatalf("builtin template %q missing required fields", tmpl.Name)
		}
	}
}
