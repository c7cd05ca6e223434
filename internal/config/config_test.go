package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Log.Level)
	}
	if cfg.Templates.NoCache {
		t.Error("no_cache should default to false")
	}
	if cfg.Data.Path == "" {
		t.Error("data path should have a default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SPINDLE_TEMPLATES_DIR", "/tmp/spindle-templates")
	t.Setenv("SPINDLE_TEMPLATES_NO_CACHE", "true")
	t.Setenv("SPINDLE_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Templates.Dir != "/tmp/spindle-templates" {
		t.Errorf("templates dir = %q", cfg.Templates.Dir)
	}
	if !cfg.Templates.NoCache {
		t.Error("expected no_cache from environment")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Log.Level)
	}
}

func TestTemplatePathsOverride(t *testing.T) {
	cfg := &Config{}
	cfg.Templates.Dir = "/opt/templates"

	paths := cfg.TemplatePaths()
	if len(paths) != 1 || paths[0] != "/opt/templates" {
		t.Errorf("paths = %v, want the override alone", paths)
	}

	cfg.Templates.Dir = ""
	paths = cfg.TemplatePaths()
	if len(paths) < 2 {
		t.Errorf("paths = %v, want the standard search paths", paths)
	}
}
