package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/runnerr0/instalens/internal/aesthetics"
	"github.com/runnerr0/instalens/internal/config"
	"github.com/runnerr0/instalens/internal/pipeline"
	"github.com/runnerr0/instalens/internal/storage"
)

type aestheticsJSON struct {
	RunID    string   `json:"run_id,omitempty"`
	Output   string   `json:"output"`
	Images   int      `json:"images"`
	Missing  []string `json:"missing"`
	ImageDir string   `json:"image_dir"`
}

// Execute implements the go-flags Commander interface for AestheticsCommand.
func (c *AestheticsCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals, c.cfg)
	if err != nil {
		return err
	}

	if !c.Store {
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

func aestheticsOptions(cfg *config.Config) aesthetics.Options {
	opts := aesthetics.DefaultOptions()
	if cfg.Aesthetics.Clusters > 0 {
		opts.Clusters = cfg.Aesthetics.Clusters
	}
	if cfg.Aesthetics.SamplePixels > 0 {
		opts.SamplePixels = cfg.Aesthetics.SamplePixels
	}
	if cfg.Aesthetics.MaxSide > 0 {
		opts.MaxSide = cfg.Aesthetics.MaxSide
	}
	opts.Seed = cfg.Aesthetics.Seed
	return opts
}

// executeWithStore builds the aesthetics dataset and, when store is
// non-nil, records the run with its palettes (for testing).
func (c *AestheticsCommand) executeWithStore(cfg *config.Config, store storage.Store) error {
	root, err := resolveRoot(c.Root, cfg)
	if err != nil {
		return err
	}

	imageDir := c.Images
	if imageDir == "" {
		imageDir = cfg.Aesthetics.ImageRoot
	}
	if imageDir == "" {
		imageDir = root
	}
	if imageDir, err = config.ExpandPath(imageDir); err != nil {
		return err
	}

	outPath := c.Out
	if outPath == "" {
		outPath = cfg.Aesthetics.Output
	}

	res, err := pipeline.Run(root, pipeline.FromConfig(cfg))
	if err != nil {
		return fmt.Errorf("ingest %s: %w", root, err)
	}

	ds, err := aesthetics.WriteDataset(res.Posts, imageDir, outPath, aestheticsOptions(cfg))
	if err != nil {
		return err
	}

	out := aestheticsJSON{
		Output:   outPath,
		Images:   len(ds.Palettes),
		Missing:  ds.Missing,
		ImageDir: imageDir,
	}
	if out.Missing == nil {
		out.Missing = []string{}
	}

	if store != nil {
		ctx := context.Background()
		run := pipeline.StoredRun(root, res)
		if err := store.CreateRun(ctx, run, pipeline.StoredPosts(res.Posts)); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		if err := store.AddPalettes(ctx, run.ID, storedPalettes(ds)); err != nil {
			return fmt.Errorf("record palettes: %w", err)
		}
		out.RunID = run.ID
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(out)
	}

	fmt.Printf("Extracted %d %s to %s\n", out.Images, plural(out.Images, "palette", "palettes"), outPath)
	if len(out.Missing) > 0 {
		fmt.Printf("Missing %d %s under %s:\n", len(out.Missing), plural(len(out.Missing), "image", "images"), imageDir)
		for _, uri := range out.Missing {
			fmt.Printf("  %s\n", uri)
		}
	}
	if out.RunID != "" {
		fmt.Printf("Run:           %s\n", out.RunID)
	}
	return nil
}

// storedPalettes converts extracted palettes for persistence, ordered by uri.
func storedPalettes(ds *aesthetics.Dataset) []storage.Palette {
	uris := make([]string, 0, len(ds.Palettes))
	for uri := range ds.Palettes {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	out := make([]storage.Palette, len(uris))
	for i, uri := range uris {
		p := ds.Palettes[uri]
		hexes, pcts := p.Top(aesthetics.TopSwatches)
		sp := storage.Palette{
			URI:           uri,
			AvgHue:        p.AvgHue,
			AvgSaturation: p.AvgSaturation,
			AvgValue:      p.AvgValue,
			StdValue:      p.StdValue,
			Colorfulness:  p.Colorfulness,
			WarmRatio:     p.WarmRatio,
		}
		copy(sp.Hex[:], hexes)
		copy(sp.Pct[:], pcts)
		out[i] = sp
	}
	return out
}
