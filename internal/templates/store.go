package templates

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// Options configure a Store.
type Options struct {
	// Paths lists template root directories in precedence order. Earlier
	// directories shadow later ones for the same name.
	Paths []string

	// WithoutBuiltins disables the embedded builtin templates that normally
	// back every search path.
	WithoutBuiltins bool

	// DisableCache forces every Load to re-read from source, matching the
	// SPINDLE_TEMPLATES_NO_CACHE environment toggle.
	DisableCache bool
}

// Store materializes templates by name from a layered directory hierarchy.
//
// Lookup names are dotted or slash separated ("agents.search" and
// "agents/search" are the same template) and map onto file paths beneath a
// root directory. Loaded templates are immutable, so concurrent reads need
// no coordination; the mutex only guards cache replacement.
type Store struct {
	paths        []string
	withBuiltins bool
	noCache      bool

	mu       sync.RWMutex
	cache    map[string]*Template
	resolved map[string]*resolvedEntry
}

type resolvedEntry struct {
	hash [32]byte
	res  *Resolved
}

// NewStore creates a template store over the given search paths.
func NewStore(opts Options) *Store {
	return &Store{
		paths:        opts.Paths,
		withBuiltins: !opts.WithoutBuiltins,
		noCache:      opts.DisableCache,
		cache:        make(map[string]*Template),
		resolved:     make(map[string]*resolvedEntry),
	}
}

// NormalizeName canonicalizes a lookup name: "agents.search",
// "agents/search", and "agents/search.yaml" all normalize to
// "agents/search".
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		name = strings.TrimSuffix(name, path.Ext(name))
	}
	if !strings.Contains(name, "/") {
		name = strings.ReplaceAll(name, ".", "/")
	}
	return strings.Trim(name, "/")
}

// Load returns the template backing name, reading through the search paths
// in precedence order and falling back to the embedded builtins.
func (s *Store) Load(name string) (*Template, error) {
	rel := NormalizeName(name)
	if rel == "" {
		return nil, fmt.Errorf("template name is required")
	}

	if !s.noCache {
		s.mu.RLock()
		tmpl, ok := s.cache[rel]
		s.mu.RUnlock()
		if ok {
			return tmpl, nil
		}
	}

	tmpl, err := s.loadFromSource(rel)
	if err != nil {
		return nil, err
	}

	if !s.noCache {
		s.mu.Lock()
		s.cache[rel] = tmpl
		s.mu.Unlock()
	}
	return tmpl, nil
}

func (s *Store) loadFromSource(rel string) (*Template, error) {
	for _, dir := range s.paths {
		for _, ext := range []string{".yaml", ".yml"} {
			p := filepath.Join(dir, filepath.FromSlash(rel)+ext)
			if _, err := os.Stat(p); err != nil {
				continue
			}
			return LoadTemplate(p)
		}
	}

	if s.withBuiltins {
		return loadBuiltin(rel)
	}
	return nil, fmt.Errorf("template %s: %w", rel, ErrTemplateNotFound)
}

// ListNames enumerates every loadable name in discovery order: each search
// path in precedence order (walk order within a path), then the builtins
// not shadowed by a file. Names shadowed by an earlier layer appear once.
func (s *Store) ListNames() ([]string, error) {
	names := make([]string, 0)
	seen := make(map[string]struct{})

	for _, dir := range s.paths {
		layer, err := listLayer(dir)
		if err != nil {
			return nil, err
		}
		declared := make(map[string]string, len(layer))
		for _, entry := range layer {
			if prev, ok := declared[entry.tmpl.Name]; ok {
				return nil, fmt.Errorf("%w: %q declared by both %s and %s",
					ErrDuplicateName, entry.tmpl.Name, prev, entry.tmpl.Source)
			}
			declared[entry.tmpl.Name] = entry.tmpl.Source
			if _, ok := seen[entry.name]; ok {
				continue
			}
			seen[entry.name] = struct{}{}
			names = append(names, entry.name)
		}
	}

	if s.withBuiltins {
		for _, name := range builtinNames() {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	return names, nil
}

// List loads every template named by ListNames.
func (s *Store) List() ([]*Template, error) {
	names, err := s.ListNames()
	if err != nil {
		return nil, err
	}
	loaded := make([]*Template, 0, len(names))
	for _, name := range names {
		tmpl, err := s.Load(name)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, tmpl)
	}
	return loaded, nil
}

// Reload drops all cached templates and resolutions so subsequent loads
// re-read from source. The swap is atomic with respect to concurrent
// readers: they see either the old cache or an empty one, never a mix.
func (s *Store) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]*Template)
	s.resolved = make(map[string]*resolvedEntry)
	s.mu.Unlock()
}

type layerEntry struct {
	name string
	tmpl *Template
}

func listLayer(dir string) ([]layerEntry, error) {
	loaded, err := LoadTemplatesFromDir(dir)
	if err != nil {
		return nil, err
	}
	entries := make([]layerEntry, 0, len(loaded))
	for _, tmpl := range loaded {
		rel, err := filepath.Rel(dir, tmpl.Source)
		if err != nil {
			return nil, fmt.Errorf("relativize %s: %w", tmpl.Source, err)
		}
		rel = filepath.ToSlash(rel)
		rel = strings.TrimSuffix(rel, path.Ext(rel))
		entries = append(entries, layerEntry{name: rel, tmpl: tmpl})
	}
	return entries, nil
}
