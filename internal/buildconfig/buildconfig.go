// Package buildconfig exposes the version metadata stamped into the binary
// at build time via ldflags.
package buildconfig

var (
	version = "dev"
	commit  = "unknown"
)

// Version returns the stamped release version.
func Version() string {
	return version
}

// Commit returns the stamped git commit hash.
func Commit() string {
	return commit
}

// VersionInfo returns the build metadata as a map, ready for JSON responses.
func VersionInfo() map[string]string {
	return map[string]string{
		"version": version,
		"commit":  commit,
	}
}
