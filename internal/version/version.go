// Package version holds build metadata injected with -ldflags.
package version

// Current is the release version, set at build time with
// -ldflags "-X github.com/ayusman/mudra/internal/version.Current=v1.0.0".
var Current = "dev"

// Commit is the source revision the binary was built from.
var Commit = "unknown"
