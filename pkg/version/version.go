// Package version holds the readmark release string.
package version

// Version is set at release time with
// -ldflags "-X github.com/Dicklesworthstone/readmark/pkg/version.Version=vX.Y.Z".
var Version = "v0.1.0"
