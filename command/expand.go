package command

import (
	"fmt"
	"strings"

	"github.com/kbukum/execkit/errors"
)

// Expand replaces every ${name} in s with the textual form of vars[name].
// A name that is absent (or mapped to nil) is a MISSING_VARIABLE error. An
// unterminated "${" is kept literally.
func Expand(s string, vars map[string]any) (string, error) {
	if !strings.Contains(s, "${") {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	rest := s
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[start+2:], '}')
		if end < 0 {
			b.WriteString(rest)
			break
		}
		end += start + 2

		name := rest[start+2 : end]
		value, ok := vars[name]
		if !ok || value == nil {
			return "", errors.MissingVariable(name)
		}
		b.WriteString(rest[:start])
		b.WriteString(textOf(value))
		rest = rest[end+1:]
	}
	return b.String(), nil
}

// Placeholders lists the distinct placeholder names referenced by s, in
// order of first appearance.
func Placeholders(s string) []string {
	var names []string
	seen := make(map[string]bool)
	rest := s
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			return names
		}
		end := strings.IndexByte(rest[start+2:], '}')
		if end < 0 {
			return names
		}
		name := rest[start+2 : start+2+end]
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		rest = rest[start+2+end+1:]
	}
}

func textOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
