// SPDX-License-Identifier: MIT
//
// Package build exposes the build metadata embedded with linker flags:
//
//	go build -ldflags "-X specviz/pkg/build.buildName=specviz \
//	  -X specviz/pkg/build.buildVersion=0.1.0 ..."
//
// Development builds without ldflags report "unknown" for every field.
package build

import "fmt"

// Info describes the running binary.
type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// String formats the info for --version output.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

// Package-level variables for build information. These are populated by -ldflags
// during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &Info{
		Name:    "unknown",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "unknown",
	}
)

// Initialize validates and copies build information from ldflags variables
// into the buildFlags struct. Returns an error if any build flag is missing,
// in which case the "unknown" defaults stay in place.
func Initialize() error {
	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *Info {
	return buildFlags
}

// Version returns the semantic version, or "dev" for builds without ldflags.
func Version() string {
	if buildFlags.Version == "" || buildFlags.Version == "unknown" {
		return "dev"
	}
	return buildFlags.Version
}
