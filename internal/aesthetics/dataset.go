package aesthetics

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/runnerr0/instalens/internal/table"
)

// MergeColumns are the post columns joined back onto palette records by uri
// when present.
var MergeColumns = []string{"uri", "engagement", "engagement_rate", "log_engagement_rate", "performance_label_log"}

// Columns of a palette record, in output order.
var Columns = []string{
	"dominant_hex_1", "dominant_hex_2", "dominant_hex_3",
	"dominant_pct_1", "dominant_pct_2", "dominant_pct_3",
	"avg_hue01", "avg_saturation", "avg_value", "std_value",
	"colorfulness", "warm_ratio", "uri",
}

// Dataset is the result of a batch palette extraction.
type Dataset struct {
	Table    *table.Table
	Palettes map[string]*Palette // by uri
	Missing  []string            // uris whose image was absent or undecodable
}

// BuildDataset extracts a palette for every distinct non-null uri of posts,
// resolving images under imageRoot. Images that are absent or fail to
// decode are recorded as missing and skipped. Engagement columns of posts
// are left-joined back by uri.
func BuildDataset(posts *table.Table, imageRoot string, opts Options) (*Dataset, error) {
	if err := table.Require(posts, "uri"); err != nil {
		return nil, err
	}

	ds := &Dataset{Palettes: map[string]*Palette{}}
	b := table.NewBuilder(Columns...)
	seen := map[string]bool{}
	for _, v := range posts.Column("uri") {
		if v.IsNull() {
			continue
		}
		uri := v.Text()
		if seen[uri] {
			continue
		}
		seen[uri] = true

		p, err := Extract(filepath.Join(imageRoot, filepath.FromSlash(uri)), opts)
		if err != nil {
			log.Warn().Err(err).Str("uri", uri).Msg("Missing image")
			ds.Missing = append(ds.Missing, uri)
			continue
		}
		ds.Palettes[uri] = p
		b.Add(Record(uri, p)...)
	}
	ds.Table = b.Table()

	var present []string
	for _, c := range MergeColumns {
		if posts.Has(c) {
			present = append(present, c)
		}
	}
	if len(present) > 1 {
		sub, err := posts.Select(present...)
		if err != nil {
			return nil, err
		}
		ds.Table = table.LeftJoin(ds.Table, sub, []string{"uri"}, "_posts")
	}
	return ds, nil
}

// Record renders p as cells in Columns order.
func Record(uri string, p *Palette) []table.Value {
	hexes, pcts := p.Top(TopSwatches)
	vals := make([]table.Value, 0, len(Columns))
	for _, h := range hexes {
		if h == "" {
			vals = append(vals, table.Null())
		} else {
			vals = append(vals, table.String(h))
		}
	}
	for _, f := range pcts {
		vals = append(vals, table.Float(f))
	}
	return append(vals,
		table.Float(p.AvgHue),
		table.Float(p.AvgSaturation),
		table.Float(p.AvgValue),
		table.Float(p.StdValue),
		table.Float(p.Colorfulness),
		table.Float(p.WarmRatio),
		table.String(uri),
	)
}

// WriteDataset builds the dataset and writes it as CSV to outPath.
func WriteDataset(posts *table.Table, imageRoot, outPath string, opts Options) (*Dataset, error) {
	ds, err := BuildDataset(posts, imageRoot, opts)
	if err != nil {
		return nil, err
	}
	if err := table.WriteCSVFile(outPath, ds.Table); err != nil {
		return nil, fmt.Errorf("write aesthetics dataset: %w", err)
	}
	log.Info().Str("path", outPath).Int("images", len(ds.Palettes)).Int("missing", len(ds.Missing)).
		Msg("Aesthetics data saved")
	return ds, nil
}
