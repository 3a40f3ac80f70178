// Package pipeline runs the ingest chain over an export bundle: locate and
// load the files, flatten, clean, merge insights and derive engagement.
package pipeline

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/runnerr0/instalens/internal/analysis"
	"github.com/runnerr0/instalens/internal/clean"
	"github.com/runnerr0/instalens/internal/config"
	"github.com/runnerr0/instalens/internal/flatten"
	"github.com/runnerr0/instalens/internal/merge"
	"github.com/runnerr0/instalens/internal/table"
)

// Options select the bundle files and cleaning parameters.
type Options struct {
	PostsInsightsPatterns []string
	ReelsInsightsPatterns []string
	MediaPatterns         []string
	Location              *time.Location
	Followers             float64
	Keywords              analysis.Keywords
}

// DefaultOptions mirrors config.DefaultConfig.
func DefaultOptions() Options {
	return FromConfig(config.DefaultConfig())
}

// FromConfig builds Options from a loaded configuration.
func FromConfig(cfg *config.Config) Options {
	return Options{
		PostsInsightsPatterns: []string{cfg.Export.InsightsPostsPath, "**/posts.json"},
		ReelsInsightsPatterns: []string{cfg.Export.ReelsPath},
		MediaPatterns:         cfg.Export.MediaPaths,
		Location:              clean.FixedZone(cfg.Clean.UTCOffsetHours),
		Followers:             cfg.Followers(),
		Keywords: analysis.Keywords{
			People:  cfg.Analysis.PeopleKeywords,
			Jewelry: cfg.Analysis.JewelryKeywords,
		},
	}
}

// Result is the output of one pipeline run.
type Result struct {
	Posts    *table.Table // enriched, one row per media item
	Media    *table.Table // flattened raw content export
	Insights *table.Table // flattened posts and reels insights

	MediaPath         string
	PostsInsightsPath string
	ReelsInsightsPath string
	Strategy          merge.Strategy
}

// Run ingests the bundle at root. With no raw content export the insights
// rows themselves become the posts. Only decode failures are fatal.
func Run(root string, opts Options) (*Result, error) {
	res := &Result{}
	var err error

	res.Media, res.MediaPath, err = flatten.MediaFile(root, opts.MediaPatterns...)
	if err != nil {
		return nil, fmt.Errorf("load posts export: %w", err)
	}
	posts, postsPath, err := flatten.PostsInsights(root, opts.PostsInsightsPatterns...)
	if err != nil {
		return nil, fmt.Errorf("load posts insights: %w", err)
	}
	reels, reelsPath, err := flatten.ReelsInsights(root, opts.ReelsInsightsPatterns...)
	if err != nil {
		return nil, fmt.Errorf("load reels insights: %w", err)
	}
	res.PostsInsightsPath, res.ReelsInsightsPath = postsPath, reelsPath
	res.Insights = table.Concat(posts, reels)

	cleanOpts := clean.Options{Location: opts.Location, DefaultFollowers: opts.Followers}
	insights := clean.Clean(res.Insights, cleanOpts)

	var merged *table.Table
	if res.Media.Empty() {
		merged = insights
		res.Strategy = merge.StrategyNone
	} else {
		m := merge.Insights(clean.Clean(res.Media, cleanOpts), insights)
		merged, res.Strategy = m.Table, m.Strategy
	}

	enriched, err := Enrich(merged, opts)
	if err != nil {
		return nil, err
	}
	res.Posts = enriched

	log.Info().Int("posts", enriched.Len()).Int("insights", res.Insights.Len()).
		Str("strategy", string(res.Strategy)).Msg("Pipeline complete")
	return res, nil
}

// Enrich derives engagement, log engagement rate, its quartile label and
// the content categories. Tables without uri or title skip categorisation.
func Enrich(t *table.Table, opts Options) (*table.Table, error) {
	t = clean.CalculateEngagement(t, opts.Followers)

	t, err := clean.AddLogEngagementRate(t)
	if err != nil {
		return nil, err
	}
	if t, err = analysis.LabelPerformance(t); err != nil {
		return nil, err
	}
	if t.Has("creation_timestamp") {
		if t, err = clean.AddCalendarFeatures(t); err != nil {
			return nil, err
		}
	}
	if t.Has("uri") && t.Has("title") {
		if t, err = analysis.CategorizeContentWith(t, opts.Keywords); err != nil {
			return nil, err
		}
	}
	return t, nil
}
