// Package version reports the execkit build.
//
// Version, commit and build time are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/execkit/version.Version=1.2.0 \
//	    -X github.com/kbukum/execkit/version.Commit=$(git rev-parse --short HEAD)"
//
// Unset values fall back to the module build info embedded by the Go toolchain.
package version
