package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/runnerr0/instalens/internal/aesthetics"
	"github.com/runnerr0/instalens/internal/config"
	"github.com/runnerr0/instalens/internal/storage"
)

// Execute implements the go-flags Commander interface for SearchCommand.
func (c *SearchCommand) Execute(args []string) error {
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

	return c.executeWithStore(cfg, store, args)
}

// executeWithStore runs the search against a provided store (for testing).
func (c *SearchCommand) executeWithStore(cfg *config.Config, store storage.Store, args []string) error {
	query := strings.Join(args, " ")

	now := time.Now()
	var since time.Time
	if c.Since != "" {
		dur, err := parseDuration(c.Since)
		if err != nil {
			return fmt.Errorf("invalid --since value %q: %w", c.Since, err)
		}
		since = now.Add(-dur)
	}

	var until time.Time
	if c.Until != "" {
		dur, err := parseDuration(c.Until)
		if err != nil {
			return fmt.Errorf("invalid --until value %q: %w", c.Until, err)
		}
		until = now.Add(-dur)
	}

	ctx := context.Background()
	results, err := store.SearchPosts(ctx, storage.PostQuery{
		Query:  query,
		Since:  since,
		Until:  until,
		Limit:  c.Limit,
		Offset: c.Offset,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var saved []string
	if c.SaveDir != "" && len(results) > 0 {
		if saved, err = c.saveThumbnails(ctx, cfg, store, results); err != nil {
			return err
		}
	}

	if c.globals != nil && c.globals.JSON {
		return c.printJSON(query, results, saved)
	}
	return c.printHuman(query, results, saved)
}

// saveThumbnails writes Post_<rank>.png for each result whose image can be
// decoded. Missing images are logged and skipped.
func (c *SearchCommand) saveThumbnails(ctx context.Context, cfg *config.Config, store storage.Store, results []storage.Post) ([]string, error) {
	imageDir := c.Images
	if imageDir == "" {
		imageDir = cfg.Aesthetics.ImageRoot
	}
	if imageDir == "" {
		run, err := store.GetRun(ctx, results[0].RunID)
		if err != nil {
			return nil, fmt.Errorf("resolve image root: %w", err)
		}
		imageDir = run.Root
	}
	imageDir, err := config.ExpandPath(imageDir)
	if err != nil {
		return nil, err
	}

	saved := make([]string, len(results))
	for i, p := range results {
		if p.URI == "" {
			continue
		}
		dst := filepath.Join(c.SaveDir, fmt.Sprintf("Post_%d.png", i+1+c.Offset))
		src := filepath.Join(imageDir, filepath.FromSlash(p.URI))
		if err := aesthetics.SaveThumbnail(src, dst, cfg.Aesthetics.MaxSide); err != nil {
			log.Warn().Err(err).Str("uri", p.URI).Msg("Missing image")
			continue
		}
		saved[i] = dst
	}
	return saved, nil
}

func (c *SearchCommand) describeFilter(query string) string {
	var parts []string
	if query != "" {
		parts = append(parts, fmt.Sprintf("for %q", query))
	}
	if c.Since != "" {
		parts = append(parts, fmt.Sprintf("(since %s)", c.Since))
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}

func (c *SearchCommand) printHuman(query string, results []storage.Post, saved []string) error {
	if len(results) == 0 {
		fmt.Printf("No posts found%s\n", c.describeFilter(query))
		return nil
	}

	fmt.Printf("Found %d %s%s\n\n", len(results), plural(len(results), "post", "posts"), c.describeFilter(query))

	for i, p := range results {
		title := p.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%d. %s", i+1+c.Offset, title)
		if p.ContentType != "" {
			fmt.Printf(" · %s", p.ContentType)
		}
		fmt.Println()

		fmt.Printf("   %s\n", p.URI)

		meta := fmt.Sprintf("engagement %s · rate %.4f", formatNumber(int64(p.Engagement)), p.EngagementRate)
		if !p.PostedAt.IsZero() {
			meta = p.PostedAt.Local().Format("2006-01-02 15:04") + " · " + meta
		}
		if p.Label != "" {
			meta += " · " + p.Label
		}
		fmt.Printf("   %s\n", meta)

		if i < len(saved) && saved[i] != "" {
			fmt.Printf("   saved %s\n", saved[i])
		}

		if i < len(results)-1 {
			fmt.Println()
		}
	}

	return nil
}

type jsonPost struct {
	Rank           int     `json:"rank"`
	URI            string  `json:"uri"`
	Title          string  `json:"title"`
	PostedAt       string  `json:"posted_at,omitempty"`
	ContentType    string  `json:"content_type"`
	Likes          int64   `json:"likes"`
	Comments       int64   `json:"comments"`
	Engagement     float64 `json:"engagement"`
	EngagementRate float64 `json:"engagement_rate"`
	Label          string  `json:"performance_label,omitempty"`
	Thumbnail      string  `json:"thumbnail,omitempty"`
}

type jsonSearchOutput struct {
	Count   int        `json:"count"`
	Query   string     `json:"query"`
	Results []jsonPost `json:"results"`
}

func (c *SearchCommand) printJSON(query string, results []storage.Post, saved []string) error {
	out := jsonSearchOutput{
		Count:   len(results),
		Query:   query,
		Results: make([]jsonPost, len(results)),
	}

	for i, p := range results {
		jp := jsonPost{
			Rank:           i + 1 + c.Offset,
			URI:            p.URI,
			Title:          p.Title,
			ContentType:    p.ContentType,
			Likes:          p.Likes,
			Comments:       p.Comments,
			Engagement:     p.Engagement,
			EngagementRate: p.EngagementRate,
			Label:          p.Label,
		}
		if !p.PostedAt.IsZero() {
			jp.PostedAt = p.PostedAt.UTC().Format(time.RFC3339)
		}
		if i < len(saved) {
			jp.Thumbnail = saved[i]
		}
		out.Results[i] = jp
	}

	return printJSON(out)
}
