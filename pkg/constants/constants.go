// Package constants provides shared constants used throughout the curator codebase.
// This includes selection defaults, file layout names, permissions, and
// timeouts that should be consistent across the library and the CLI.
package constants

import "time"

// Selection defaults
const (
	// DefaultTargetSize is the subset size used when none is configured
	DefaultTargetSize = 100

	// DefaultMinPerSource is the per-source minimum used when none is configured
	DefaultMinPerSource = 10

	// DefaultSeed seeds the selection generator when none is configured
	DefaultSeed = 42

	// MissingPreviewLimit bounds the sample of missing IDs in audit reports
	MissingPreviewLimit = 5
)

// Record and export layout
const (
	// DefaultIDField is the record field holding the item identifier
	DefaultIDField = "item_id"

	// ProvenanceSeparator joins source names in flat-file exports
	ProvenanceSeparator = ";"

	// DefaultSourcePrefix marks per-source result folders
	DefaultSourcePrefix = "search_"

	// SearchResultsFile is the result file inside each source folder
	SearchResultsFile = "search_results.json"

	// SearchQueryFile records the executed query URL
	SearchQueryFile = "search_query.json"

	// SearchParamsFile records the validated query parameters
	SearchParamsFile = "search_params.json"

	// LockFile is the advisory lock guarding an output directory
	LockFile = ".curator.lock"

	// DefaultRunName prefixes export files when no name is given
	DefaultRunName = "curated"

	// DefaultDBFile is the run store file name under the output directory
	DefaultDBFile = "curator.db"
)

// Export file suffixes, appended to the run name
const (
	CatalogSuffix        = "_unique_items.json"
	ProvenanceCSVSuffix  = "_provenance.csv"
	ProvenanceYAMLSuffix = "_provenance.yaml"
	SelectionSuffix      = "_selected_items.csv"
	SubsetSuffix         = "_filtered_items.json"
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Timeout and pacing constants
const (
	// DefaultHTTPTimeout is the standard timeout for search API requests
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultSearchRate is the default number of search requests per second
	DefaultSearchRate = 2.0

	// ShutdownTimeout bounds cleanup after a failed command
	ShutdownTimeout = 5 * time.Second
)

// Format constants
const (
	// TimeFormatFilename is the timestamp format recorded in search files
	TimeFormatFilename = "20060102_150405"
)

// Search API constants
const (
	// DefaultSearchBaseURL is the VectorStock search endpoint
	DefaultSearchBaseURL = "https://api.vectorstock.com/p1/search"
)
