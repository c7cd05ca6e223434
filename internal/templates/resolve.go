package templates

import (
	"crypto/sha256"
	"strings"
)

// Resolve flattens the include chain of the named template into a single
// Resolved value. Include bodies are concatenated byte-for-byte in declared
// order ahead of the template's own body; variable defaults merge left to
// right with the including template's own declarations winning last.
//
// The result is cached keyed by (name, content hash of every transitively
// included file) unless the store was built with DisableCache.
func (s *Store) Resolve(name string) (*Resolved, error) {
	rel := NormalizeName(name)

	onPath := make(map[string]struct{})
	res, sum, err := s.resolveName(rel, nil, onPath)
	if err != nil {
		return nil, err
	}
	hash := sha256.Sum256(sum)

	if s.noCache {
		return res, nil
	}

	s.mu.RLock()
	entry, ok := s.resolved[rel]
	s.mu.RUnlock()
	if ok && entry.hash == hash {
		return entry.res, nil
	}

	s.mu.Lock()
	s.resolved[rel] = &resolvedEntry{hash: hash, res: res}
	s.mu.Unlock()
	return res, nil
}

// resolveName walks includes depth-first. onPath tracks names on the active
// resolution path; a revisit means the include graph has a cycle. The
// returned byte slice accumulates per-file checksums in resolution order
// for cache keying.
func (s *Store) resolveName(rel string, chain []string, onPath map[string]struct{}) (*Resolved, []byte, error) {
	if _, ok := onPath[rel]; ok {
		cycle := make([]string, 0, len(chain)+1)
		cycle = append(cycle, chain...)
		cycle = append(cycle, rel)
		return nil, nil, &CycleError{Chain: cycle}
	}

	tmpl, err := s.Load(rel)
	if err != nil {
		return nil, nil, err
	}

	onPath[rel] = struct{}{}
	defer delete(onPath, rel)

	var body strings.Builder
	vars := make(map[string]string)
	sum := make([]byte, 0, 32*(len(tmpl.Includes)+1))

	for _, ref := range tmpl.Includes {
		child, childSum, err := s.resolveName(NormalizeName(ref), append(chain, rel), onPath)
		if err != nil {
			return nil, nil, err
		}
		body.WriteString(child.Body)
		for key, value := range child.Variables {
			vars[key] = value
		}
		sum = append(sum, childSum...)
	}

	body.WriteString(tmpl.Body)
	for key, value := range tmpl.Variables {
		vars[key] = value
	}
	sum = append(sum, tmpl.checksum[:]...)

	return &Resolved{Name: rel, Body: body.String(), Variables: vars}, sum, nil
}
