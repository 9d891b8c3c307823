package version

import (
	"runtime"
	"time"
)

// Overridden through -ldflags "-X github.com/MrSnakeDoc/cobus/internal/version.Version=..." at release time.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = time.Now().Format(time.RFC3339)
	GoVersion = runtime.Version()
)

// String renders a single-line build banner.
func String() string {
	return "cobus " + Version + " (commit=" + Commit + ", built=" + BuildDate + ", go=" + GoVersion + ")"
}
