package command

import (
	"strings"
	"unicode"
)

const (
	singleQuote = '\''
	doubleQuote = '"'
)

// Quote wraps arg in quotes when it contains whitespace so it survives being
// re-split by Parse. Arguments already delimited by a matching pair of quotes
// are returned unchanged. An argument containing a double quote is wrapped
// in single quotes; one containing both kinds cannot be quoted and is a
// MALFORMED_COMMAND error.
func Quote(arg string) (string, error) {
	if isQuoted(arg) {
		return arg, nil
	}

	hasDouble := strings.ContainsRune(arg, doubleQuote)
	hasSingle := strings.ContainsRune(arg, singleQuote)

	switch {
	case hasDouble && hasSingle:
		return "", malformed("argument contains both single and double quotes: " + arg)
	case hasDouble:
		return string(singleQuote) + arg + string(singleQuote), nil
	case hasSingle || containsSpace(arg):
		return string(doubleQuote) + arg + string(doubleQuote), nil
	default:
		return arg, nil
	}
}

func isQuoted(s string) bool {
	if len(s) < 2 {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return first == last && (first == singleQuote || first == doubleQuote)
}

func containsSpace(s string) bool {
	return strings.IndexFunc(s, unicode.IsSpace) >= 0
}

// tokenize splits a template on unquoted whitespace. Quote characters group
// words and are stripped; a quoted empty string yields an empty token.
func tokenize(template string) ([]string, error) {
	var (
		tokens  []string
		current strings.Builder
		quote   rune
		quoted  bool
	)

	flush := func() {
		if current.Len() > 0 || quoted {
			tokens = append(tokens, current.String())
		}
		current.Reset()
		quoted = false
	}

	for _, r := range template {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == singleQuote || r == doubleQuote:
			quote = r
			quoted = true
		case unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
		}
	}

	if quote != 0 {
		return nil, malformed("unbalanced quotes in " + template)
	}
	flush()
	return tokens, nil
}
