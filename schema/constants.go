package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for history tracking.
	DatabaseBackend string

	// MetricSource says which run document a metric query reads.
	MetricSource string
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default when tracking is enabled
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All metric sources supported.
const (
	ReportSource MetricSource = "report" // default; falls back to the log
	LogSource    MetricSource = "log"
)

// Names of the preset metrics.
const (
	MetricOptimalLLH  = "optimal_llh"
	MetricStartingLLH = "starting_llh"
	MetricBestLLH     = "best_llh"
)

// ValidOutputModes lists the accepted output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut: {},
	CSVOut:  {},
	JSONOut: {},
}

// ValidDatabaseBackends lists the accepted database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidMetricSources lists the accepted metric sources.
var ValidMetricSources = map[MetricSource]struct{}{
	ReportSource: {},
	LogSource:    {},
}
