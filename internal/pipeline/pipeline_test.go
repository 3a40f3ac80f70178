package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/instalens/internal/export"
	"github.com/runnerr0/instalens/internal/merge"
	"github.com/runnerr0/instalens/internal/table"
)

const mediaExport = `[
  {"media": [{"uri": "media/posts/a.jpg", "creation_timestamp": 1700000000, "title": "person at the beach"}],
   "creation_timestamp": 1700000000, "title": "person at the beach"},
  {"media": [{"uri": "media/posts/b.mp4", "creation_timestamp": 1700050000, "title": ""}],
   "creation_timestamp": 1700050000},
  {"media": [{"uri": "media/posts/c.jpg", "creation_timestamp": 1700090000, "title": "jewelry drop"}],
   "creation_timestamp": 1700090000, "title": "jewelry drop"}
]`

const postsInsights = `{"organic_insights_posts": [
  {"media_map_data": {"Media Thumbnail": {"uri": "media/posts/a.jpg", "creation_timestamp": 1700000000, "title": "person at the beach"}},
   "string_map_data": {"Likes": {"value": "90"}, "Comments": {"value": "10"}, "Saves": {"value": "3"},}},
  {"media_map_data": {"Media Thumbnail": {"uri": "media/posts/c.jpg", "creation_timestamp": 1700090000000, "title": "jewelry drop"}},
   "string_map_data": {"Likes": {"value": "1,000"}, "Accounts reached": {"value": "4,321"}}},
]}`

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func num(t *testing.T, tb *table.Table, i int, col string) float64 {
	t.Helper()
	f, ok := tb.Value(i, col).Numeric()
	require.True(t, ok, "row %d col %s = %v", i, col, tb.Value(i, col))
	return f
}

func TestRunFullBundle(t *testing.T) {
	root := t.TempDir()
	write(t, root, "your_instagram_activity/content/posts_1.json", mediaExport)
	write(t, root, "logged_information/past_instagram_insights/posts.json", postsInsights)

	res, err := Run(root, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, merge.StrategyExact, res.Strategy)
	assert.NotEmpty(t, res.MediaPath)
	assert.NotEmpty(t, res.PostsInsightsPath)
	assert.Empty(t, res.ReelsInsightsPath)

	p := res.Posts
	require.Equal(t, 3, p.Len())
	for _, c := range merge.Metrics {
		assert.True(t, p.Has(c), c)
	}
	for _, c := range []string{"engagement", "engagement_rate", "log_engagement_rate", "performance_label_log",
		"hour", "weekday", "month", "content_type", "contains_people", "contains_jewelry", "creation_date"} {
		assert.True(t, p.Has(c), c)
	}

	assert.Equal(t, 100.0, num(t, p, 0, "engagement"))
	assert.InDelta(t, 0.1, num(t, p, 0, "engagement_rate"), 1e-12)
	assert.Equal(t, 3.0, num(t, p, 0, "saves"))
	assert.Equal(t, 0.0, num(t, p, 1, "engagement"))
	assert.Equal(t, 1000.0, num(t, p, 2, "likes"))
	assert.Equal(t, 4321.0, num(t, p, 2, "reach"))

	assert.Equal(t, 1.0, num(t, p, 0, "contains_people"))
	assert.Equal(t, 1.0, num(t, p, 2, "contains_jewelry"))
	ct, _ := p.Value(1, "content_type").Str()
	assert.Equal(t, "Video", ct)

	for i := 0; i < p.Len(); i++ {
		assert.Equal(t, table.KindTime, p.Value(i, "creation_timestamp").Kind())
	}
}

func TestRunInsightsOnly(t *testing.T) {
	root := t.TempDir()
	write(t, root, "somewhere/else/posts.json", postsInsights)
	write(t, root, "your_instagram_activity/media/reels.json", `[
	  {"media": [{"uri": "media/reels/r.mp4", "creation_timestamp": 1700000500}],
	   "string_map_data": {"Likes": {"value": "5"}}}
	]`)

	res, err := Run(root, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, merge.StrategyNone, res.Strategy)
	require.Equal(t, 3, res.Posts.Len())
	assert.Equal(t, 5.0, num(t, res.Posts, 2, "likes"))
}

func TestRunEmptyBundle(t *testing.T) {
	res, err := Run(t.TempDir(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Posts.Len())
}

func TestRunDecodeFailureIsFatal(t *testing.T) {
	root := t.TempDir()
	write(t, root, "logged_information/past_instagram_insights/posts.json", `{"organic_insights_posts": [`)

	_, err := Run(root, DefaultOptions())
	var derr *export.DecodeError
	assert.ErrorAs(t, err, &derr)
}

func TestFromConfigFollowers(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 1000.0, opts.Followers)
	assert.Equal(t, "UTC+07:00", opts.Location.String())
	assert.Equal(t, []string{"logged_information/past_instagram_insights/posts.json", "**/posts.json"}, opts.PostsInsightsPatterns)
}

func TestStoredPosts(t *testing.T) {
	root := t.TempDir()
	write(t, root, "your_instagram_activity/content/posts_1.json", mediaExport)
	write(t, root, "logged_information/past_instagram_insights/posts.json", postsInsights)

	res, err := Run(root, DefaultOptions())
	require.NoError(t, err)

	run := StoredRun(root, res)
	assert.Equal(t, root, run.Root)
	assert.Equal(t, string(merge.StrategyExact), run.Strategy)
	assert.Equal(t, 2, run.InsightCount)
	assert.Equal(t, res.MediaPath, run.MediaPath)

	posts := StoredPosts(res.Posts)
	require.Len(t, posts, 3)

	a := posts[0]
	assert.Equal(t, "media/posts/a.jpg", a.URI)
	assert.Equal(t, "person at the beach", a.Title)
	assert.Equal(t, "Image", a.ContentType)
	assert.Equal(t, int64(90), a.Likes)
	assert.Equal(t, int64(10), a.Comments)
	assert.Equal(t, int64(3), a.Saves)
	assert.Equal(t, 100.0, a.Engagement)
	assert.InDelta(t, 0.1, a.EngagementRate, 1e-12)
	assert.NotEmpty(t, a.Label)
	assert.True(t, a.PostedAt.Equal(time.Unix(1700000000, 0)))

	assert.Equal(t, "", posts[1].Title)
	assert.Equal(t, "Video", posts[1].ContentType)
	assert.Equal(t, int64(4321), posts[2].Reach)
}

func TestStoredPostsMissingColumns(t *testing.T) {
	b := table.NewBuilder("uri")
	b.Add(table.Null())
	posts := StoredPosts(b.Table())
	require.Len(t, posts, 1)
	assert.Equal(t, "", posts[0].URI)
	assert.Zero(t, posts[0].Likes)
	assert.True(t, posts[0].PostedAt.IsZero())
}
