package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/runnerr0/instalens/internal/config"
	"github.com/runnerr0/instalens/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string            `json:"version"`
	DatabasePath      string            `json:"database_path"`
	DatabaseSizeBytes int64             `json:"database_size_bytes"`
	TotalRuns         int64             `json:"total_runs"`
	TotalPosts        int64             `json:"total_posts"`
	TotalPalettes     int64             `json:"total_palettes"`
	OldestPost        string            `json:"oldest_post,omitempty"`
	NewestPost        string            `json:"newest_post,omitempty"`
	LastRun           *runJSON          `json:"last_run,omitempty"`
	RetentionDays     int               `json:"retention_days"`
	ExportRoot        string            `json:"export_root,omitempty"`
	Followers         float64           `json:"followers"`
	ContentTypes      []contentTypeJSON `json:"content_types"`
}

type runJSON struct {
	ID        string `json:"id"`
	Root      string `json:"root"`
	Posts     int    `json:"posts"`
	Strategy  string `json:"strategy"`
	CreatedAt string `json:"created_at"`
}

type contentTypeJSON struct {
	ContentType   string  `json:"content_type"`
	Count         int64   `json:"count"`
	AvgEngagement float64 `json:"avg_engagement"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
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

	path, err := dbPath(c.globals, cfg)
	if err != nil {
		return err
	}
	return c.executeWithStore(cfg, store, path)
}

// executeWithStore runs status against a provided store (for testing).
func (c *StatusCommand) executeWithStore(cfg *config.Config, store storage.Store, path string) error {
	stats, err := store.GetStats(context.Background())
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	// Prefer the file size, which includes the WAL checkpoint state.
	size := stats.DatabaseSizeBytes
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}

	if c.globals != nil && c.globals.JSON {
		return c.printStatusJSON(cfg, stats, path, size)
	}
	return c.printStatusHuman(cfg, stats, path, size)
}

func (c *StatusCommand) printStatusHuman(cfg *config.Config, stats *storage.Stats, path string, size int64) error {
	fmt.Println("instalens Status")
	fmt.Println("================")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Database:      %s (%s)\n", path, formatBytes(size))
	fmt.Printf("Runs:          %s\n", formatNumber(stats.TotalRuns))
	fmt.Printf("Posts:         %s\n", formatNumber(stats.TotalPosts))
	fmt.Printf("Palettes:      %s\n", formatNumber(stats.TotalPalettes))

	if !stats.OldestPost.IsZero() {
		fmt.Printf("Oldest post:   %s\n", stats.OldestPost.Local().Format("2006-01-02"))
		fmt.Printf("Newest post:   %s\n", stats.NewestPost.Local().Format("2006-01-02"))
	}

	fmt.Printf("Retention:     %d days\n", cfg.Retention.Days)
	fmt.Printf("Followers:     %s\n", formatNumber(int64(cfg.Followers())))

	if stats.LastRun != nil {
		r := stats.LastRun
		fmt.Println()
		fmt.Println("Last Run:")
		fmt.Printf("  ID:          %s\n", r.ID)
		fmt.Printf("  Root:        %s\n", r.Root)
		fmt.Printf("  Created:     %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04"))
		fmt.Printf("  Posts:       %s (merge: %s)\n", formatNumber(int64(r.PostCount)), r.Strategy)
	}

	if len(stats.TopContentTypes) > 0 {
		fmt.Println()
		fmt.Println("Content Types:")
		for _, ct := range stats.TopContentTypes {
			name := ct.ContentType
			if name == "" {
				name = "(unknown)"
			}
			fmt.Printf("  %-12s %8s posts  %10.1f avg engagement\n", name, formatNumber(ct.Count), ct.AvgEngagement)
		}
	}

	return nil
}

func (c *StatusCommand) printStatusJSON(cfg *config.Config, stats *storage.Stats, path string, size int64) error {
	out := statusJSON{
		Version:           c.version,
		DatabasePath:      path,
		DatabaseSizeBytes: size,
		TotalRuns:         stats.TotalRuns,
		TotalPosts:        stats.TotalPosts,
		TotalPalettes:     stats.TotalPalettes,
		RetentionDays:     cfg.Retention.Days,
		ExportRoot:        cfg.Export.Root,
		Followers:         cfg.Followers(),
		ContentTypes:      make([]contentTypeJSON, len(stats.TopContentTypes)),
	}

	if !stats.OldestPost.IsZero() {
		out.OldestPost = stats.OldestPost.UTC().Format(time.RFC3339)
		out.NewestPost = stats.NewestPost.UTC().Format(time.RFC3339)
	}

	if r := stats.LastRun; r != nil {
		out.LastRun = &runJSON{
			ID:        r.ID,
			Root:      r.Root,
			Posts:     r.PostCount,
			Strategy:  r.Strategy,
			CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
		}
	}

	for i, ct := range stats.TopContentTypes {
		out.ContentTypes[i] = contentTypeJSON{ContentType: ct.ContentType, Count: ct.Count, AvgEngagement: ct.AvgEngagement}
	}

	return printJSON(out)
}
