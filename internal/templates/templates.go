// Package templates provides instruction template loading, composition, and rendering.
//
// Templates are YAML files declaring a name, default variables, an ordered
// list of included templates, and a body containing {placeholder} markers.
// A Store materializes templates from a directory hierarchy (plus embedded
// builtins), resolves include chains into a flat instruction body, and
// substitutes variables at format time. Missing variables are an error,
// never an empty string.
package templates

// Template is a single named instruction template as declared in a source file.
// Templates are immutable once loaded; the Store replaces them wholesale on reload.
type Template struct {
	Name        string            `yaml:"name"`
	Version     string            `yaml:"version,omitempty"`
	Description string            `yaml:"description,omitempty"`
	Variables   map[string]string `yaml:"variables,omitempty"`
	Includes    []string          `yaml:"includes,omitempty"`
	Body        string            `yaml:"template"`

	// Source is the file path the template was loaded from, or "builtin".
	Source string `yaml:"-"`

	// checksum is the SHA-256 of the raw source bytes, used for resolve
	// cache invalidation.
	checksum [32]byte
}

// Resolved is a template with its include chain flattened: the composed body
// and the merged default variables, ready for formatting. Resolved values are
// ephemeral and never written back to the store.
type Resolved struct {
	Name      string
	Body      string
	Variables map[string]string
}
