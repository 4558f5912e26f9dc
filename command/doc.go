// Package command builds argument vectors for external programs.
//
// A Line holds an executable and an ordered list of argument tokens. Tokens
// added with expand=true may contain ${name} placeholders that are resolved
// against the line's substitution map when the vector is produced; literal
// tokens pass through untouched.
//
//	line := command.New("/usr/bin/lpr").
//	    AddArgument("-P", false).
//	    AddArgument("${printer}", true).
//	    AddArgument("${file}", true)
//	line.SetSubstitutionMap(map[string]any{"printer": "office", "file": path})
//	argv, err := line.Argv()
//
// Resolution never shell-interprets anything: quotes are only meaningful to
// Parse (which splits a single template string) and to String (which renders
// a line for display).
package command
