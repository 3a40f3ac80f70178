// Package analysis holds read-only aggregations over an enriched post
// table. Every function returns a new table and reports absent inputs as a
// *table.MissingColumnError.
package analysis

import (
	"strings"

	"github.com/runnerr0/instalens/internal/table"
)

// Content types assigned by CategorizeContent.
const (
	ContentImage = "Image"
	ContentVideo = "Video"
	ContentOther = "Other"
)

// EngagementMetrics are averaged by the grouped analyses.
var EngagementMetrics = []string{"likes", "comments", "engagement"}

// Keywords are matched case-insensitively against post titles.
type Keywords struct {
	People  []string
	Jewelry []string
}

// DefaultKeywords flags "person" and "jewelry".
func DefaultKeywords() Keywords {
	return Keywords{People: []string{"person"}, Jewelry: []string{"jewelry"}}
}

// CategorizeContent is CategorizeContentWith using DefaultKeywords.
func CategorizeContent(t *table.Table) (*table.Table, error) {
	return CategorizeContentWith(t, DefaultKeywords())
}

// CategorizeContentWith derives content_type from the uri extension and
// contains_people / contains_jewelry (1 or 0) from title keywords.
func CategorizeContentWith(t *table.Table, kw Keywords) (*table.Table, error) {
	if err := table.Require(t, "uri", "title"); err != nil {
		return nil, err
	}
	t = t.Derive("content_type", func(r table.Row) table.Value {
		uri := r.Get("uri").Text()
		switch {
		case strings.HasSuffix(uri, ".jpg"), strings.HasSuffix(uri, ".png"):
			return table.String(ContentImage)
		case strings.HasSuffix(uri, ".mp4"):
			return table.String(ContentVideo)
		}
		return table.String(ContentOther)
	})
	t = t.Derive("contains_people", titleFlag(kw.People))
	t = t.Derive("contains_jewelry", titleFlag(kw.Jewelry))
	return t, nil
}

func titleFlag(words []string) func(table.Row) table.Value {
	return func(r table.Row) table.Value {
		title := strings.ToLower(r.Get("title").Text())
		for _, w := range words {
			if w != "" && strings.Contains(title, strings.ToLower(w)) {
				return table.Int(1)
			}
		}
		return table.Int(0)
	}
}
