package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Ingest     *IngestCommand
	Aesthetics *AestheticsCommand
	Analyze    *AnalyzeCommand
	Predict    *PredictCommand
	Status     *StatusCommand
	Search     *SearchCommand
	Prune      *PruneCommand
	Purge      *PurgeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "instalens"
	parser.LongDescription = "Local engagement analytics for Instagram data exports."

	cmds := &commands{
		Ingest:     &IngestCommand{globals: &globals, version: version},
		Aesthetics: &AestheticsCommand{globals: &globals, version: version},
		Analyze:    &AnalyzeCommand{globals: &globals, version: version},
		Predict:    &PredictCommand{globals: &globals, version: version},
		Status:     &StatusCommand{globals: &globals, version: version},
		Search:     &SearchCommand{globals: &globals, version: version},
		Prune:      &PruneCommand{globals: &globals, version: version},
		Purge:      &PurgeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("ingest", "Ingest an export bundle", "Flatten, clean and merge an export bundle, derive engagement, and record the run.", cmds.Ingest)
	parser.AddCommand("aesthetics", "Extract image color palettes", "Extract dominant colors and color statistics for every post image.", cmds.Aesthetics)
	parser.AddCommand("analyze", "Write engagement analysis charts", "Write monthly, hourly, content-type, people and segment analysis tables and charts.", cmds.Analyze)
	parser.AddCommand("predict", "Train the engagement predictor", "Train a random forest on post metrics and report its test error.", cmds.Predict)
	parser.AddCommand("status", "Show database statistics", "Show database statistics and configuration summary.", cmds.Status)
	parser.AddCommand("search", "Search stored posts", "List stored posts of the latest run ranked by engagement, with optional keyword filters.", cmds.Search)
	parser.AddCommand("prune", "Delete old import runs", "Delete import runs older than the retention period.", cmds.Prune)
	parser.AddCommand("purge", "Delete ALL instalens data", "Delete ALL instalens data. Destructive operation with safety prompt.", cmds.Purge)

	return parser, &globals, cmds
}

// Run is the main entry point for the instalens CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("instalens %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
