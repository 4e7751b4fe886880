// Package misc keeps build time information about the program.
package misc

import (
	"runtime/debug"
)

// Set by linker flags during release builds.
var (
	appName = "vmconv"
	version = "dev"
	gitHash = ""
)

// GetAppName returns the program name as used in messages and file names.
func GetAppName() string {
	return appName
}

// GetVersion returns program version.
func GetVersion() string {
	if version == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			return bi.Main.Version
		}
	}
	return version
}

// GetGitHash returns short hash of the commit program was built from.
func GetGitHash() string {
	if gitHash != "" {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				if len(s.Value) > 7 {
					return s.Value[:7]
				}
				return s.Value
			}
		}
	}
	return "unknown"
}
