// Package buildinfo exposes the version stamped in at link time.
package buildinfo

import "runtime"

// Set via -ldflags "-X daynav/internal/buildinfo.Version=..." and friends.
var (
	Version = "dev"
	Commit  = ""
	BuiltAt = ""
)

func Info() map[string]string {
	return map[string]string{
		"service": "daynav",
		"version": Version,
		"commit":  Commit,
		"builtAt": BuiltAt,
		"go":      runtime.Version(),
	}
}
