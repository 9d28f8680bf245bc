// Package version reports build information for the asscii binary.
package version

import (
	"runtime"
	"runtime/debug"
)

var (
	// Version is the application version, set via ldflags.
	Version string
	// BuildDate is when the binary was built, set via ldflags.
	BuildDate string

	// Revision is the git commit revision.
	Revision = getRevision()
	// GoVersion is the Go version used to build.
	GoVersion = runtime.Version()
	// GoOS is the operating system target.
	GoOS = runtime.GOOS
	// GoArch is the architecture target.
	GoArch = runtime.GOARCH
)

// Field is one labeled piece of build information.
type Field struct {
	Name  string
	Value string
}

// Fields returns the build information in display order. Unset values are
// reported as "unknown"; a development build reports "dev" as its version.
func Fields() []Field {
	return []Field{
		{Name: "Version", Value: orDefault(Version, "dev")},
		{Name: "Revision", Value: Revision},
		{Name: "Build date", Value: orDefault(BuildDate, "unknown")},
		{Name: "Go", Value: GoVersion},
		{Name: "Platform", Value: GoOS + "/" + GoArch},
	}
}

// String returns the short version string.
func String() string {
	return orDefault(Version, "dev") + " (" + Revision + ")"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}

	return s
}

func getRevision() string {
	rev := "unknown"

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return rev
	}

	modified := false

	for _, v := range buildInfo.Settings {
		switch v.Key {
		case "vcs.revision":
			rev = v.Value
		case "vcs.modified":
			if v.Value == "true" {
				modified = true
			}
		}
	}

	if modified {
		return rev + "-dirty"
	}

	return rev
}
