package command

import (
	"strings"

	"github.com/kbukum/execkit/errors"
)

type argument struct {
	value  string
	expand bool
}

// Line is an executable plus ordered argument tokens. It is not safe for
// concurrent mutation; resolve it before handing the vector to other goroutines.
type Line struct {
	executable    string
	arguments     []argument
	substitutions map[string]any
}

// New creates a Line for executable. An empty executable is accepted here and
// rejected by the executor when the line is run.
func New(executable string) *Line {
	return &Line{executable: executable}
}

// Parse splits a single command-line template into an executable and
// expandable arguments. Single and double quotes group words and are removed;
// unbalanced quotes are a MALFORMED_COMMAND error. An empty or blank template
// yields a Line with an empty executable.
func Parse(template string) (*Line, error) {
	tokens, err := tokenize(template)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return New(""), nil
	}
	line := New(tokens[0])
	for _, tok := range tokens[1:] {
		line.AddArgument(tok, true)
	}
	return line, nil
}

// AddArgument appends token. When expand is true, ${name} placeholders in the
// token are resolved at build time; otherwise the token is used verbatim.
func (l *Line) AddArgument(token string, expand bool) *Line {
	l.arguments = append(l.arguments, argument{value: token, expand: expand})
	return l
}

// AddArguments appends expandable tokens in order.
func (l *Line) AddArguments(tokens ...string) *Line {
	for _, tok := range tokens {
		l.AddArgument(tok, true)
	}
	return l
}

// AddLiteral appends a token that is never expanded.
func (l *Line) AddLiteral(token string) *Line {
	return l.AddArgument(token, false)
}

// SetSubstitutionMap replaces the placeholder mapping. Values are rendered
// with their textual form (fmt.Stringer, string, numbers). Already-added
// tokens are not validated until the line is resolved.
func (l *Line) SetSubstitutionMap(vars map[string]any) *Line {
	if vars == nil {
		l.substitutions = nil
		return l
	}
	l.substitutions = make(map[string]any, len(vars))
	for k, v := range vars {
		l.substitutions[k] = v
	}
	return l
}

// SubstitutionMap returns a copy of the current placeholder mapping.
func (l *Line) SubstitutionMap() map[string]any {
	if l.substitutions == nil {
		return nil
	}
	out := make(map[string]any, len(l.substitutions))
	for k, v := range l.substitutions {
		out[k] = v
	}
	return out
}

// Executable returns the resolved executable, trimmed of surrounding whitespace.
func (l *Line) Executable() (string, error) {
	return Expand(strings.TrimSpace(l.executable), l.substitutions)
}

// RawExecutable returns the executable exactly as given.
func (l *Line) RawExecutable() string {
	return l.executable
}

// Resolve produces the argument vector (without the executable). Every
// expandable token has its placeholders replaced; a placeholder missing from
// the substitution map fails the whole resolution with MISSING_VARIABLE.
func (l *Line) Resolve() ([]string, error) {
	out := make([]string, 0, len(l.arguments))
	for _, arg := range l.arguments {
		if !arg.expand {
			out = append(out, arg.value)
			continue
		}
		v, err := Expand(arg.value, l.substitutions)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Argv produces the full vector: resolved executable followed by Resolve().
func (l *Line) Argv() ([]string, error) {
	exe, err := l.Executable()
	if err != nil {
		return nil, err
	}
	args, err := l.Resolve()
	if err != nil {
		return nil, err
	}
	return append([]string{exe}, args...), nil
}

// Len returns the number of argument tokens.
func (l *Line) Len() int {
	return len(l.arguments)
}

// Clone returns an independent copy of the line.
func (l *Line) Clone() *Line {
	c := &Line{
		executable: l.executable,
		arguments:  append([]argument(nil), l.arguments...),
	}
	c.SetSubstitutionMap(l.substitutions)
	return c
}

// String renders the unresolved line for display, quoting tokens that
// contain whitespace.
func (l *Line) String() string {
	parts := make([]string, 0, len(l.arguments)+1)
	parts = append(parts, displayToken(l.executable))
	for _, arg := range l.arguments {
		parts = append(parts, displayToken(arg.value))
	}
	return strings.Join(parts, " ")
}

func displayToken(tok string) string {
	q, err := Quote(tok)
	if err != nil {
		return tok
	}
	return q
}

// malformed is shared by the tokenizer and quoting helpers.
func malformed(reason string) error {
	return errors.MalformedCommand(reason)
}
