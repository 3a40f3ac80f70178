package flatten

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/runnerr0/instalens/internal/export"
	"github.com/runnerr0/instalens/internal/table"
)

// MetricColumns are the insight metrics every flattened insights table
// carries after renaming.
var MetricColumns = []string{
	"likes", "comments", "reach", "impressions",
	"saves", "shares", "profile_visits", "follows",
}

// metricLabels maps the export's human-readable labels to column names.
var metricLabels = map[string]string{
	"Likes":            "likes",
	"Comments":         "comments",
	"Saves":            "saves",
	"Shares":           "shares",
	"Accounts reached": "reach",
	"Impressions":      "impressions",
	"Profile visits":   "profile_visits",
	"Follows":          "follows",
}

// Default bundle locations.
var (
	PostsInsightsPatterns = []string{
		"logged_information/past_instagram_insights/posts.json",
		"**/posts.json",
	}
	ReelsInsightsPatterns = []string{
		"your_instagram_activity/media/reels.json",
	}
)

// FirstMediaObject returns the representative media object of an entry's
// media container. For an object container that is the first object-valued
// field in document order; for a list it is the first object element.
func FirstMediaObject(container *export.Node) *export.Node {
	switch {
	case container.IsObject():
		for _, f := range container.Fields {
			if f.Value.IsObject() {
				return f.Value
			}
		}
	case container.IsArray():
		for _, it := range container.Items {
			if it.IsObject() {
				return it
			}
		}
	}
	return nil
}

var keyColumns = []string{"uri", "creation_timestamp", "title"}

// Insights flattens insights entries into one row per entry with columns
// uri, creation_timestamp, title and the eight metric columns. mediaKey
// names the entry field holding the media container ("media_map_data" for
// posts, "media" for reels). An empty entry list yields an empty table.
func Insights(entries []*export.Node, mediaKey string) *table.Table {
	if len(entries) == 0 {
		return table.New()
	}

	records := make([]table.Record, 0, len(entries))
	for _, entry := range entries {
		var rec table.Record
		media := FirstMediaObject(entry.Get(mediaKey))
		rec.Set("uri", valueOf(media.Get("uri")))
		rec.Set("creation_timestamp", valueOf(media.Get("creation_timestamp")))
		rec.Set("title", valueOf(media.Get("title")))

		if sdata := entry.Get("string_map_data"); sdata.IsObject() {
			for _, f := range sdata.Fields {
				if !f.Value.IsObject() {
					continue
				}
				rec.Set(f.Key, table.Int(ParseIntish(f.Value.Get("value"))))
			}
		}
		records = append(records, rec)
	}

	t := table.FromRecords(records).Rename(metricLabels)
	t = EnsureMetrics(t, MetricColumns)

	for _, c := range keyColumns {
		if !t.Has(c) {
			t = t.Fill(c, table.Null())
		}
	}
	return t.Keep(append(append([]string{}, keyColumns...), MetricColumns...)...)
}

// EnsureMetrics coerces each named metric column to an integer, mapping
// unparsable or missing cells to 0, and creates absent columns as all 0.
func EnsureMetrics(t *table.Table, cols []string) *table.Table {
	for _, c := range cols {
		if !t.Has(c) {
			t = t.Fill(c, table.Int(0))
			continue
		}
		t = t.Map(c, func(v table.Value) table.Value {
			f, ok := v.Numeric()
			if !ok {
				return table.Int(0)
			}
			return table.Int(int64(f))
		})
	}
	return t
}

// PostsInsights locates and flattens the posts insights file under target,
// which may be a bundle root or the file itself. A missing file is logged
// and yields an empty table; only decode failures are returned.
func PostsInsights(target string, patterns ...string) (*table.Table, string, error) {
	if len(patterns) == 0 {
		patterns = PostsInsightsPatterns
	}
	return loadInsights(target, "posts.json", "media_map_data", patterns)
}

// ReelsInsights is PostsInsights for the reels insights file.
func ReelsInsights(target string, patterns ...string) (*table.Table, string, error) {
	if len(patterns) == 0 {
		patterns = ReelsInsightsPatterns
	}
	return loadInsights(target, "reels.json", "media", patterns)
}

func loadInsights(target, name, mediaKey string, patterns []string) (*table.Table, string, error) {
	path, err := export.Locate(target, patterns...)
	if err != nil {
		if errors.Is(err, export.ErrNotFound) {
			log.Warn().Str("target", target).Msgf("%s not found under the provided target", name)
			return table.New(), "", nil
		}
		return nil, "", fmt.Errorf("locate %s: %w", name, err)
	}

	root, err := export.Load(path)
	if err != nil {
		return nil, path, err
	}

	shape := export.Classify(root)
	if len(shape.Entries) == 0 {
		log.Warn().Str("path", path).Str("shape", shape.Kind.String()).
			Msgf("Could not coerce %s into a list; %s", name, export.Describe(root))
		return table.New(), path, nil
	}

	log.Debug().Str("path", path).Str("shape", shape.Kind.String()).Int("entries", len(shape.Entries)).Msg("Loaded insights")
	return Insights(shape.Entries, mediaKey), path, nil
}
