package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/instalens/internal/config"
	"github.com/runnerr0/instalens/internal/storage"
)

type pruneJSON struct {
	Cutoff  string `json:"cutoff"`
	Runs    int64  `json:"runs"`
	DryRun  bool   `json:"dry_run"`
	Message string `json:"message"`
}

// Execute implements the go-flags Commander interface for PruneCommand.
func (c *PruneCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals, c.cfg)
	if err != nil {
		return err
	}

	store, db, err := openStore(c.globals, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(cfg, store, time.Now())
}

// retention returns the --older-than window, or the configured retention.
func (c *PruneCommand) retention(cfg *config.Config) (time.Duration, error) {
	if c.OlderThan != "" {
		d, err := parseDuration(c.OlderThan)
		if err != nil {
			return 0, fmt.Errorf("invalid --older-than value %q: %w", c.OlderThan, err)
		}
		return d, nil
	}
	if cfg.Retention.Days <= 0 {
		return 0, fmt.Errorf("retention.days must be positive, got %d", cfg.Retention.Days)
	}
	return time.Duration(cfg.Retention.Days) * 24 * time.Hour, nil
}

// executeWithStore prunes runs created before now minus the retention
// window (for testing).
func (c *PruneCommand) executeWithStore(cfg *config.Config, store storage.Store, now time.Time) error {
	window, err := c.retention(cfg)
	if err != nil {
		return err
	}
	cutoff := now.Add(-window)

	ctx := context.Background()
	var n int64
	if c.DryRun {
		n, err = store.CountRunsBefore(ctx, cutoff)
	} else {
		n, err = store.PruneRuns(ctx, cutoff)
	}
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}

	verb := "Pruned"
	if c.DryRun {
		verb = "Would prune"
	}
	msg := fmt.Sprintf("%s %d import %s older than %s", verb, n, plural(int(n), "run", "runs"), formatDurationHuman(window))

	if c.globals != nil && c.globals.JSON {
		return printJSON(pruneJSON{
			Cutoff:  cutoff.UTC().Format(time.RFC3339),
			Runs:    n,
			DryRun:  c.DryRun,
			Message: msg,
		})
	}

	fmt.Println(msg + ".")
	return nil
}
