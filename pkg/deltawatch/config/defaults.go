// Package config provides configuration management for deltawatch.
package config

// Default configuration values for deltawatch.
const (
	// DefaultWindowMinutes is the default recency window for the
	// changed-directory view.
	DefaultWindowMinutes = 10

	// DefaultTop is the default number of directories to display.
	DefaultTop = 10

	// DefaultRefresh is the default display refresh interval in seconds.
	DefaultRefresh = 2.0

	// DefaultEventCount is the default number of recent events to display.
	DefaultEventCount = 20

	// DefaultMaxHistory is the default event history capacity.
	DefaultMaxHistory = 1000

	// DefaultPath is the default path to watch when none is specified.
	DefaultPath = "."

	// DefaultOutput is the default non-interactive output format.
	DefaultOutput = "plain"

	// DefaultConfigDir is the default configuration directory path.
	DefaultConfigDir = "~/.config/deltawatch"
)

// DefaultExclusions contains glob patterns excluded from watching by default.
var DefaultExclusions = []string{
	"*.swp",
	"*.swx",
	"*~",
	"*/.git/*",
}
