// Package config loads the CLI configuration from file, environment
// variables, and flags with a fixed precedence order.
package config

// Defaults applied before any other configuration source.
const (
	DefaultServerURL   = "http://localhost:8000"
	DefaultOutput      = "auto"
	DefaultArtifactDir = "."
)

// Config is the resolved CLI configuration.
type Config struct {
	// ServerURL is the pipeline service base address. An explicit override
	// is used verbatim with any trailing slash stripped.
	ServerURL string `koanf:"server_url"`

	// OutputFormat selects the renderer mode (auto|text|json).
	OutputFormat string `koanf:"output"`

	// ArtifactDir is where fetched artifacts are saved.
	ArtifactDir string `koanf:"artifact_dir"`

	Verbose bool `koanf:"verbose"`
}
