package cli

import (
	"database/sql"

	"github.com/runnerr0/instalens/internal/config"
)

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
	DB      string `long:"db" description:"Override the database path"`
}

// IngestCommand runs the pipeline over an export bundle and records the run.
type IngestCommand struct {
	Root    string `long:"root" description:"Export bundle directory (default: export.root)"`
	Out     string `long:"out" description:"Write the enriched posts as CSV"`
	NoStore bool   `long:"no-store" description:"Do not record the run in the database"`

	globals *GlobalFlags
	version string
	cfg     *config.Config // injectable for testing; nil means load --config
}

// AestheticsCommand extracts color palettes for every post image.
type AestheticsCommand struct {
	Root   string `long:"root" description:"Export bundle directory (default: export.root)"`
	Images string `long:"images" description:"Directory post URIs are resolved against (default: aesthetics.image_root, then the export root)"`
	Out    string `long:"out" description:"Aesthetics CSV path (default: aesthetics.output)"`
	Store  bool   `long:"store" description:"Record the run and its palettes in the database"`

	globals *GlobalFlags
	version string
	cfg     *config.Config
}

// AnalyzeCommand writes engagement analysis tables and charts.
type AnalyzeCommand struct {
	Root   string `long:"root" description:"Export bundle directory (default: export.root)"`
	OutDir string `long:"out-dir" description:"Output directory (default: analysis.output_dir)"`

	globals *GlobalFlags
	version string
	cfg     *config.Config
}

// PredictCommand trains the engagement regressor and reports its error.
type PredictCommand struct {
	Root  string `long:"root" description:"Export bundle directory (default: export.root)"`
	Trees int    `long:"trees" description:"Override predict.trees"`

	globals *GlobalFlags
	version string
	cfg     *config.Config
}

// StatusCommand shows database statistics and a config summary.
type StatusCommand struct {
	globals *GlobalFlags
	version string
	cfg     *config.Config
}

// SearchCommand lists stored posts of the latest run ranked by engagement.
type SearchCommand struct {
	Since   string `long:"since" description:"Only posts newer than duration (e.g., 30d, 24h, 2w)"`
	Until   string `long:"until" description:"Only posts older than duration"`
	Limit   int    `long:"limit" description:"Maximum results" default:"10"`
	Offset  int    `long:"offset" description:"Skip first N results" default:"0"`
	SaveDir string `long:"save-dir" description:"Write PNG thumbnails of the results to this directory"`
	Images  string `long:"images" description:"Directory post URIs are resolved against (default: the run's export root)"`

	globals *GlobalFlags
	version string
	cfg     *config.Config
}

// PruneCommand deletes import runs older than the retention window.
type PruneCommand struct {
	OlderThan string `long:"older-than" description:"Override retention period (e.g., 30d)"`
	DryRun    bool   `long:"dry-run" description:"Show what would be pruned without deleting"`

	globals *GlobalFlags
	version string
	cfg     *config.Config
}

// PurgeCommand deletes ALL instalens data with safety confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	cfg     *config.Config
	db      *sql.DB // injectable for testing; nil means open the configured DB
}
