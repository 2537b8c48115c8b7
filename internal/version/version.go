// Package version holds build metadata.
package version

// Version is the application version, set at build time with
// -ldflags "-X github.com/ndewijer/Investment-Portfolio-Planner/internal/version.Version=1.2.3".
var Version = "dev"
