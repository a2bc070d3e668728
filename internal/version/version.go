package version

import "fmt"

// Set via -ldflags at build time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Parser identifies the hierarchy engine revision recorded with every outline.
const Parser = "docoutline-hierarchy/1"

func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, engine: %s)", Version, Commit, BuildDate, Parser)
}
