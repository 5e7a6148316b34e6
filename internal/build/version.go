package build

import "fmt"

// Set with -ldflags "-X github.com/rohmanhakim/clipmd/internal/build.Version=..."
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// FullVersion is the version recorded in clip frontmatter, "Version+Commit".
func FullVersion() string {
	return Version + "+" + Commit
}

// Banner is the line printed by `clipmd version`.
func Banner() string {
	return fmt.Sprintf("clipmd %s (built %s)", FullVersion(), BuildTime)
}
