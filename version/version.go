package version

import "fmt"

// these values are set via ldflags on release builds
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// FullVersion contains the version including build metadata
var FullVersion = fmt.Sprintf("%s (%s) built at %s", Version, Commit, Date)
