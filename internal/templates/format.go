package templates

import (
	"unicode"
)

// Format substitutes every {name} placeholder in the resolved body using the
// merged variable defaults overlaid with overrides. A placeholder with no
// value in the final mapping is an error; silently substituting an empty
// string would corrupt agent instructions undetectably.
//
// Doubled braces escape literals: "{{" renders as "{" and "}}" as "}".
// Brace content that is not a valid identifier is not a placeholder and
// passes through untouched.
func (r *Resolved) Format(overrides map[string]string) (string, error) {
	vars := make(map[string]string, len(r.Variables)+len(overrides))
	for key, value := range r.Variables {
		vars[key] = value
	}
	for key, value := range overrides {
		vars[key] = value
	}
	return substitute(r.Body, vars)
}

// Partial returns a partial application of Format with some variables fixed
// up front. Remaining variables are supplied at format time; later values
// win on key collision, so partial application order never changes the
// final output.
func (r *Resolved) Partial(fixed map[string]string) *Partial {
	bound := make(map[string]string, len(fixed))
	for key, value := range fixed {
		bound[key] = value
	}
	return &Partial{resolved: r, fixed: bound}
}

// Partial is a Resolved template with some variables bound ahead of time.
type Partial struct {
	resolved *Resolved
	fixed    map[string]string
}

// With returns a new Partial with additional variables bound. The receiver
// is not modified.
func (p *Partial) With(more map[string]string) *Partial {
	bound := make(map[string]string, len(p.fixed)+len(more))
	for key, value := range p.fixed {
		bound[key] = value
	}
	for key, value := range more {
		bound[key] = value
	}
	return &Partial{resolved: p.resolved, fixed: bound}
}

// Format completes the partial application. rest wins over previously fixed
// values on key collision.
func (p *Partial) Format(rest map[string]string) (string, error) {
	merged := make(map[string]string, len(p.fixed)+len(rest))
	for key, value := range p.fixed {
		merged[key] = value
	}
	for key, value := range rest {
		merged[key] = value
	}
	return p.resolved.Format(merged)
}

// Placeholders returns the distinct placeholder names appearing in the
// resolved body, in first-appearance order. Escaped braces and
// non-identifier brace content are not placeholders.
func (r *Resolved) Placeholders() []string {
	names := make([]string, 0)
	seen := make(map[string]struct{})

	scan(r.Body, func(name string) error {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
		return nil
	}, nil)
	return names
}

func substitute(body string, vars map[string]string) (string, error) {
	var out []byte
	err := scan(body, func(name string) error {
		value, ok := vars[name]
		if !ok {
			return &MissingVariableError{Name: name}
		}
		out = append(out, value...)
		return nil
	}, func(literal string) {
		out = append(out, literal...)
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// scan walks body once, calling onName for each placeholder and onLiteral
// (when non-nil) for everything else with escapes already unfolded.
func scan(body string, onName func(string) error, onLiteral func(string)) error {
	emit := func(s string) {
		if onLiteral != nil {
			onLiteral(s)
		}
	}

	for i := 0; i < len(body); {
		switch body[i] {
		case '{':
			if i+1 < len(body) && body[i+1] == '{' {
				emit("{")
				i += 2
				continue
			}
			end, nested := closingBrace(body, i+1)
			if nested {
				// Another opener before the close, so this brace is literal.
				emit("{")
				i++
				continue
			}
			if end < 0 {
				// Unterminated marker, treat as literal text.
				emit(body[i:])
				return nil
			}
			name := body[i+1 : end]
			if !isIdentifier(name) {
				emit(body[i : end+1])
			} else if err := onName(name); err != nil {
				return err
			}
			i = end + 1
		case '}':
			if i+1 < len(body) && body[i+1] == '}' {
				emit("}")
				i += 2
				continue
			}
			emit("}")
			i++
		default:
			next := i
			for next < len(body) && body[next] != '{' && body[next] != '}' {
				next++
			}
			emit(body[i:next])
			i = next
		}
	}
	return nil
}

func closingBrace(s string, from int) (end int, nested bool) {
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '}':
			return i, false
		case '{':
			return -1, true
		}
	}
	return -1, false
}

// isIdentifier reports whether s is a valid placeholder name: a letter or
// underscore followed by letters, digits, or underscores.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
		} else {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
				return false
			}
		}
	}
	return true
}
