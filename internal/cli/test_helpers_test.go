package cli

import (
	"bytes"
	"database/sql"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/instalens/internal/config"
	"github.com/runnerr0/instalens/internal/storage"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// openTestDB creates a migrated in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	runner := storage.NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	return db
}

// openTestStore wraps openTestDB in a store.
func openTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(openTestDB(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// testConfig returns defaults pointed at temporary directories.
func testConfig(t *testing.T, root string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Export.Root = root
	cfg.Storage.Path = t.TempDir()
	cfg.Aesthetics.Output = filepath.Join(t.TempDir(), "aesthetics.csv")
	cfg.Analysis.OutputDir = filepath.Join(t.TempDir(), "charts")
	cfg.Analysis.WidthInches = 4
	cfg.Analysis.HeightInches = 3
	cfg.Predict.Trees = 5
	cfg.Logging.Level = "error"
	return cfg
}

const bundleMedia = `[
  {"media": [{"uri": "media/posts/a.jpg", "creation_timestamp": 1700000000, "title": "person at the beach"}],
   "creation_timestamp": 1700000000, "title": "person at the beach"},
  {"media": [{"uri": "media/posts/b.mp4", "creation_timestamp": 1700050000, "title": ""}],
   "creation_timestamp": 1700050000},
  {"media": [{"uri": "media/posts/c.jpg", "creation_timestamp": 1700090000, "title": "jewelry drop"}],
   "creation_timestamp": 1700090000, "title": "jewelry drop"}
]`

const bundleInsights = `{"organic_insights_posts": [
  {"media_map_data": {"Media Thumbnail": {"uri": "media/posts/a.jpg", "creation_timestamp": 1700000000, "title": "person at the beach"}},
   "string_map_data": {"Likes": {"value": "90"}, "Comments": {"value": "10"}, "Saves": {"value": "3"}}},
  {"media_map_data": {"Media Thumbnail": {"uri": "media/posts/c.jpg", "creation_timestamp": 1700090000, "title": "jewelry drop"}},
   "string_map_data": {"Likes": {"value": "1,000"}, "Accounts reached": {"value": "4,321"}}}
]}`

func writeFile(t *testing.T, root, rel string, data []byte) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// writeBundle creates an export with three posts, insights for two of them
// and images for a.jpg and b.mp4 only.
func writeBundle(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "your_instagram_activity/content/posts_1.json", []byte(bundleMedia))
	writeFile(t, root, "logged_information/past_instagram_insights/posts.json", []byte(bundleInsights))
	writeFile(t, root, "media/posts/a.jpg", pngBytes(t, 40, 20, color.NRGBA{R: 255, G: 128, A: 255}))
	writeFile(t, root, "media/posts/b.mp4", pngBytes(t, 20, 20, color.NRGBA{B: 255, A: 255}))
	return root
}
