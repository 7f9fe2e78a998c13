package cli

import "runtime/debug"

// version is set with -ldflags "-X github.com/brimdata/openrec/cli.version=...".
var version string

// Version returns the linker-provided version if there is one, else the
// module version from the build info, with the VCS revision appended for
// development builds.
func Version() string {
	if version != "" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	v := info.Main.Version
	if v != "(devel)" && v != "" {
		return v
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 12 {
			return "devel-" + s.Value[:12]
		}
	}
	return "devel"
}
