package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/runnerr0/instalens/internal/config"
	"github.com/runnerr0/instalens/internal/pipeline"
	"github.com/runnerr0/instalens/internal/storage"
	"github.com/runnerr0/instalens/internal/table"
)

type ingestJSON struct {
	RunID        string `json:"run_id,omitempty"`
	Root         string `json:"root"`
	Posts        int    `json:"posts"`
	InsightRows  int    `json:"insight_rows"`
	Strategy     string `json:"strategy"`
	MediaPath    string `json:"media_path,omitempty"`
	InsightsPath string `json:"insights_path,omitempty"`
	ReelsPath    string `json:"reels_path,omitempty"`
	Output       string `json:"output,omitempty"`
}

// Execute implements the go-flags Commander interface for IngestCommand.
func (c *IngestCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals, c.cfg)
	if err != nil {
		return err
	}

	if c.NoStore {
		return c.executeWithStore(cfg, nil)
	}

	store, db, err := openStore(c.globals, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(cfg, store)
}

// executeWithStore runs the ingest and records it in store unless store is
// nil (for testing).
func (c *IngestCommand) executeWithStore(cfg *config.Config, store storage.Store) error {
	root, err := resolveRoot(c.Root, cfg)
	if err != nil {
		return err
	}

	res, err := pipeline.Run(root, pipeline.FromConfig(cfg))
	if err != nil {
		return fmt.Errorf("ingest %s: %w", root, err)
	}

	if c.Out != "" {
		if err := table.WriteCSVFile(c.Out, res.Posts); err != nil {
			return fmt.Errorf("write posts: %w", err)
		}
		log.Info().Str("path", c.Out).Int("rows", res.Posts.Len()).Msg("Posts saved")
	}

	var run *storage.Run
	if store != nil {
		run = pipeline.StoredRun(root, res)
		if err := store.CreateRun(context.Background(), run, pipeline.StoredPosts(res.Posts)); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}

	out := ingestJSON{
		Root:         root,
		Posts:        res.Posts.Len(),
		InsightRows:  res.Insights.Len(),
		Strategy:     string(res.Strategy),
		MediaPath:    res.MediaPath,
		InsightsPath: res.PostsInsightsPath,
		ReelsPath:    res.ReelsInsightsPath,
		Output:       c.Out,
	}
	if run != nil {
		out.RunID = run.ID
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(out)
	}

	fmt.Printf("Ingested %d %s from %s\n", out.Posts, plural(out.Posts, "post", "posts"), root)
	fmt.Printf("Insights:      %d %s (merge: %s)\n", out.InsightRows, plural(out.InsightRows, "row", "rows"), out.Strategy)
	if out.Output != "" {
		fmt.Printf("Wrote:         %s\n", out.Output)
	}
	if out.RunID != "" {
		fmt.Printf("Run:           %s\n", out.RunID)
	}
	return nil
}
