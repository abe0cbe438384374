// Package appcontext provides the shared application context interface
// used by all commands. Commands accept this interface rather than the
// concrete App type so they can be tested with Mock.
package appcontext

import (
	"github.com/rs/zerolog"
)

// Settings are the configured defaults commands fall back to when a flag
// is not given.
type Settings struct {
	// Selection
	TargetSize   int
	MinPerSource int
	Seed         uint64

	// Reconciliation
	IDField      string
	SourcePrefix string

	// Run store; empty disables recording
	DBPath string

	// Search API
	SearchBaseURL string
	SearchRate    float64
	AuthScheme    string
	APIKey        string

	NoColor bool
}

// Interface defines the application context that commands need.
type Interface interface {
	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// Settings returns the configured defaults.
	Settings() Settings

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
