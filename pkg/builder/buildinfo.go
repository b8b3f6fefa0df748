package builder

import (
	"fmt"
	"runtime"
)

// Set with -ldflags "-X github.com/zxhio/delaysim/pkg/builder.Version=..."
var (
	Version   = "unknown"
	Commit    = "unknown"
	Date      = "unknown"
	GoVersion = runtime.Version()
)

func BuildInfo() string {
	return fmt.Sprintf("delaysim %s (commit %s, built %s) %s", Version, Commit, Date, GoVersion)
}
