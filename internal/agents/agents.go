// Package agents provides agent manifest loading and coordination for spindle.
//
// A manifest binds an instruction template to an externally hosted agent
// runtime: which template to compose, which command launches the runtime,
// and which variables to fix for this agent. The Service renders the
// instruction set and hands it to the runtime, recording coordination
// events along the way.
package agents

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrManifestNameRequired is returned when a manifest has no name.
	ErrManifestNameRequired = errors.New("agent name is required")
	// ErrManifestTemplateRequired is returned when a manifest names no template.
	ErrManifestTemplateRequired = errors.New("agent template is required")
	// ErrManifestCommandRequired is returned when a manifest has no command.
	ErrManifestCommandRequired = errors.New("agent command is required")
	// ErrAgentNotFound is returned when no manifest matches a name.
	ErrAgentNotFound = errors.New("agent not found")
)

// ManifestValidationError describes a validation error in a manifest.
type ManifestValidationError struct {
	Field   string
	Message string
}

func (e *ManifestValidationError) Error() string {
	return fmt.Sprintf("agent %s: %s", e.Field, e.Message)
}

// Manifest defines one externally hosted agent and the template backing it.
type Manifest struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Template    string            `yaml:"template"`
	Command     []string          `yaml:"command"`
	Variables   map[string]string `yaml:"variables,omitempty"`
	Environment map[string]string `yaml:"environment,omitempty"`
	Timeout     string            `yaml:"timeout,omitempty"`
	Tags        []string          `yaml:"tags,omitempty"`
	Source      string            // file path or "builtin"
}

// Validate checks that the manifest has a usable configuration.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return ErrManifestNameRequired
	}
	if m.Template == "" {
		return ErrManifestTemplateRequired
	}
	if len(m.Command) == 0 || m.Command[0] == "" {
		return ErrManifestCommandRequired
	}
	if m.Timeout != "" {
		duration, err := time.ParseDuration(m.Timeout)
		if err != nil {
			return &ManifestValidationError{Field: "timeout", Message: err.Error()}
		}
		if duration <= 0 {
			return &ManifestValidationError{Field: "timeout", Message: "must be greater than 0"}
		}
	}
	return nil
}

// RunTimeout returns the parsed timeout, or zero when unset.
func (m *Manifest) RunTimeout() time.Duration {
	if m.Timeout == "" {
		return 0
	}
	duration, err := time.ParseDuration(m.Timeout)
	if err != nil {
		return 0
	}
	return duration
}
