// Package errors provides the structured error type shared by every execkit
// package. Each failure of a command execution carries a machine-readable
// code so callers can tell a missing template variable from a program that
// failed, and a program that failed from one that was killed for running
// too long.
package errors
