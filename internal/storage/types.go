package storage

import "time"

// Run is one ingest of an export bundle.
type Run struct {
	ID           string
	Root         string
	MediaPath    string
	InsightsPath string
	ReelsPath    string
	Strategy     string // how insights were merged
	PostCount    int
	InsightCount int
	CreatedAt    time.Time
}

// Post is one enriched media item of a run.
type Post struct {
	ID             int64
	RunID          string
	URI            string
	Title          string
	PostedAt       time.Time // zero when the export had no timestamp
	ContentType    string
	Likes          int64
	Comments       int64
	Reach          int64
	Impressions    int64
	Saves          int64
	Shares         int64
	ProfileVisits  int64
	Follows        int64
	Engagement     float64
	EngagementRate float64
	Label          string // log engagement rate quartile
}

// Palette is the stored color summary of one post image.
type Palette struct {
	RunID         string
	URI           string
	Hex           [3]string
	Pct           [3]float64
	AvgHue        float64
	AvgSaturation float64
	AvgValue      float64
	StdValue      float64
	Colorfulness  float64
	WarmRatio     float64
}

// PostQuery defines filters for searching posts.
type PostQuery struct {
	Query string // title keywords, any of which must match
	RunID string // empty means the latest run
	Since time.Time
	Until time.Time
	Limit int
	Offset int
}

// Stats holds aggregate statistics about the instalens database.
type Stats struct {
	TotalRuns         int64
	TotalPosts        int64
	TotalPalettes     int64
	OldestPost        time.Time
	NewestPost        time.Time
	LastRun           *Run
	DatabaseSizeBytes int64
	TopContentTypes   []ContentTypeCount
}

// ContentTypeCount pairs a content type of the latest run with its post
// count and mean engagement.
type ContentTypeCount struct {
	ContentType   string
	Count         int64
	AvgEngagement float64
}
