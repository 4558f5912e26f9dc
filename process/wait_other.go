//go:build !linux

package process

// waitExited is unsupported here; the exit is only observed once reaped.
func waitExited(int) bool {
	return false
}
