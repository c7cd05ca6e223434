// Package config loads spindle configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/spindle-dev/spindle/internal/agents"
	"github.com/spindle-dev/spindle/internal/templates"
)

// Config is the root configuration for spindle.
type Config struct {
	Templates TemplatesConfig `mapstructure:"templates"`
	Agents    AgentsConfig    `mapstructure:"agents"`
	Log       LogConfig       `mapstructure:"log"`
	Data      DataConfig      `mapstructure:"data"`
}

// TemplatesConfig controls the template store.
type TemplatesConfig struct {
	// Dir overrides the template search paths with a single root directory.
	// Environment: SPINDLE_TEMPLATES_DIR.
	Dir string `mapstructure:"dir"`

	// NoCache forces a re-read from source on every access.
	// Environment: SPINDLE_TEMPLATES_NO_CACHE.
	NoCache bool `mapstructure:"no_cache"`
}

// AgentsConfig controls agent manifest loading and execution.
type AgentsConfig struct {
	// Dir overrides the agent manifest search paths.
	Dir string `mapstructure:"dir"`

	// Timeout bounds a single agent run. Zero means no limit.
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DataConfig locates local state.
type DataConfig struct {
	// Path is the SQLite event log location.
	Path string `mapstructure:"path"`
}

// Load reads configuration from ~/.config/spindle/config.yaml (when present)
// and SPINDLE_* environment variables, which win over the file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		v.AddConfigPath(filepath.Join(home, ".config", "spindle"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("SPINDLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("templates.dir", "")
	v.SetDefault("templates.no_cache", false)
	v.SetDefault("agents.dir", "")
	v.SetDefault("agents.timeout", time.Duration(0))
	v.SetDefault("data.path", defaultDataPath())
}

func defaultDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "spindle.db"
	}
	return filepath.Join(home, ".local", "share", "spindle", "spindle.db")
}

// TemplatePaths returns the template search directories: the configured
// override alone when set, otherwise the standard search paths rooted at
// the working directory.
func (c *Config) TemplatePaths() []string {
	if dir := strings.TrimSpace(c.Templates.Dir); dir != "" {
		return []string{dir}
	}
	wd, _ := os.Getwd()
	return templates.TemplateSearchPaths(wd)
}

// AgentPaths returns the agent manifest search directories, honoring the
// configured override the same way TemplatePaths does.
func (c *Config) AgentPaths() []string {
	if dir := strings.TrimSpace(c.Agents.Dir); dir != "" {
		return []string{dir}
	}
	wd, _ := os.Getwd()
	return agents.AgentSearchPaths(wd)
}

// NewStore builds a template store from the configured paths and cache policy.
func (c *Config) NewStore() *templates.Store {
	return templates.NewStore(templates.Options{
		Paths:        c.TemplatePaths(),
		DisableCache: c.Templates.NoCache,
	})
}
