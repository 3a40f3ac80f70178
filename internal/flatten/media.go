package flatten

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/runnerr0/instalens/internal/export"
	"github.com/runnerr0/instalens/internal/table"
)

// Flattened sub-object columns of the raw content export.
const (
	CameraMetadataColumn = "media_metadata.camera_metadata.has_camera_metadata"
	SourceAppColumn      = "cross_post_source.source_app"
)

// MediaPatterns are the default locations of the raw posts export.
var MediaPatterns = []string{
	"your_instagram_activity/content/posts_1.json",
	"content/posts_1.json",
}

// nestedColumn describes a nested container column that is replaced by one
// field extracted from it.
type nestedColumn struct {
	container string
	path      []string
	column    string
}

var nestedColumns = []nestedColumn{
	{"media_metadata", []string{"camera_metadata", "has_camera_metadata"}, CameraMetadataColumn},
	{"cross_post_source", []string{"source_app"}, SourceAppColumn},
}

// Media flattens the raw content export: one row per element of each
// item's media list, carrying the element's own fields plus the parent's
// creation timestamp and title as top_creation_timestamp and top_title.
// The media_metadata and cross_post_source containers are replaced by the
// single fields extracted from them.
func Media(root *export.Node) *table.Table {
	items := mediaItems(root)

	var records []table.Record
	extracted := make([][]table.Value, len(nestedColumns))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		topCreation := valueOf(item.Get("creation_timestamp"))
		topTitle := table.String("")
		if tn := item.Get("title"); tn != nil {
			topTitle = valueOf(tn)
		}

		media := item.Get("media")
		if !media.IsArray() {
			continue
		}
		for _, m := range media.Items {
			if !m.IsObject() {
				continue
			}
			var rec table.Record
			for _, f := range m.Fields {
				rec.Set(f.Key, valueOf(f.Value))
			}
			rec.Set("top_creation_timestamp", topCreation)
			rec.Set("top_title", topTitle)
			records = append(records, rec)

			for k, nc := range nestedColumns {
				extracted[k] = append(extracted[k], valueOf(m.Get(nc.container).Lookup(nc.path...)))
			}
		}
	}

	t := table.FromRecords(records)
	for k, nc := range nestedColumns {
		if !t.Has(nc.container) {
			continue
		}
		t = t.WithColumn(nc.column, extracted[k]).Drop(nc.container)
	}
	return t
}

// mediaItems picks the list of top-level items: a list root as is, a single
// item carrying a media list as a list of one, otherwise whatever the shape
// coercer resolves.
func mediaItems(root *export.Node) []*export.Node {
	if root.IsArray() {
		return root.Items
	}
	if root.Get("media").IsArray() {
		return []*export.Node{root}
	}
	return export.Entries(root)
}

// MediaFile locates and flattens the raw posts export under target. A
// missing file is logged and yields an empty table.
func MediaFile(target string, patterns ...string) (*table.Table, string, error) {
	if len(patterns) == 0 {
		patterns = MediaPatterns
	}
	path, err := export.Locate(target, patterns...)
	if err != nil {
		if errors.Is(err, export.ErrNotFound) {
			log.Warn().Str("target", target).Msg("Posts export not found under the provided target")
			return table.New(), "", nil
		}
		return nil, "", fmt.Errorf("locate posts export: %w", err)
	}

	root, err := export.Load(path)
	if err != nil {
		return nil, path, err
	}
	t := Media(root)
	log.Debug().Str("path", path).Int("rows", t.Len()).Msg("Flattened media")
	return t, path, nil
}
