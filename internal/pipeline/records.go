package pipeline

import (
	"math"

	"github.com/runnerr0/instalens/internal/storage"
	"github.com/runnerr0/instalens/internal/table"
)

// StoredRun describes a pipeline result as an import run of root. Counts
// are filled in when the run is created.
func StoredRun(root string, res *Result) *storage.Run {
	return &storage.Run{
		Root:         root,
		MediaPath:    res.MediaPath,
		InsightsPath: res.PostsInsightsPath,
		ReelsPath:    res.ReelsInsightsPath,
		Strategy:     string(res.Strategy),
		InsightCount: res.Insights.Len(),
	}
}

// StoredPosts converts enriched post rows for persistence. Absent or
// non-numeric metrics are stored as zero.
func StoredPosts(t *table.Table) []storage.Post {
	posts := make([]storage.Post, t.Len())
	for i := range posts {
		r := t.Row(i)
		p := storage.Post{
			URI:            text(r.Get("uri")),
			Title:          text(r.Get("title")),
			ContentType:    text(r.Get("content_type")),
			Likes:          count(r.Get("likes")),
			Comments:       count(r.Get("comments")),
			Reach:          count(r.Get("reach")),
			Impressions:    count(r.Get("impressions")),
			Saves:          count(r.Get("saves")),
			Shares:         count(r.Get("shares")),
			ProfileVisits:  count(r.Get("profile_visits")),
			Follows:        count(r.Get("follows")),
			Engagement:     number(r.Get("engagement")),
			EngagementRate: number(r.Get("engagement_rate")),
			Label:          text(r.Get("performance_label_log")),
		}
		if ts, ok := r.Get("creation_timestamp").Time(); ok {
			p.PostedAt = ts
		}
		posts[i] = p
	}
	return posts
}

func text(v table.Value) string {
	if v.IsNull() {
		return ""
	}
	return v.Text()
}

func number(v table.Value) float64 {
	f, _ := v.Numeric()
	return f
}

func count(v table.Value) int64 {
	return int64(math.Round(number(v)))
}
