package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "logged_information/past_instagram_insights/posts.json", cfg.Export.InsightsPostsPath)
	assert.Equal(t, "your_instagram_activity/media/reels.json", cfg.Export.ReelsPath)
	assert.Equal(t, []string{"your_instagram_activity/content/posts_1.json", "content/posts_1.json"}, cfg.Export.MediaPaths)
	assert.Equal(t, 7.0, cfg.Clean.UTCOffsetHours)
	assert.Equal(t, 1000.0, cfg.Clean.DefaultFollowers)
	assert.Zero(t, cfg.Clean.FollowersCount)
	assert.Equal(t, "aesthetics.csv", cfg.Aesthetics.Output)
	assert.Equal(t, 5, cfg.Aesthetics.Clusters)
	assert.Equal(t, 5000, cfg.Aesthetics.SamplePixels)
	assert.Equal(t, 1080, cfg.Aesthetics.MaxSide)
	assert.Equal(t, int64(42), cfg.Aesthetics.Seed)
	assert.Equal(t, "charts", cfg.Analysis.OutputDir)
	assert.Equal(t, 10.0, cfg.Analysis.WidthInches)
	assert.Equal(t, 6.0, cfg.Analysis.HeightInches)
	assert.Equal(t, 100, cfg.Predict.Trees)
	assert.Equal(t, 0.2, cfg.Predict.TestFraction)
	assert.Equal(t, int64(42), cfg.Predict.Seed)
	assert.Equal(t, 2, cfg.Predict.MinSamplesSplit)
	assert.Equal(t, 90, cfg.Retention.Days)
	assert.Equal(t, "~/.config/instalens", cfg.Storage.Path)
	assert.Equal(t, "instalens.db", cfg.Storage.SQLiteFile)
	assert.Equal(t, "wal", cfg.Storage.SQLiteJournalMode)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestDefaultKeywordsArePopulated(t *testing.T) {
	cfg := DefaultConfig()
	assert.Contains(t, cfg.Analysis.PeopleKeywords, "person")
	assert.Contains(t, cfg.Analysis.JewelryKeywords, "jewelry")
}

func TestLoadValidYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yamlContent := `
export:
  root: "/data/export"
clean:
  utc_offset_hours: -5
  followers_count: 2500
aesthetics:
  clusters: 8
predict:
  trees: 10
logging:
  level: "debug"
  format: "json"
`
	err := os.WriteFile(cfgPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	// Overridden values
	assert.Equal(t, "/data/export", cfg.Export.Root)
	assert.Equal(t, -5.0, cfg.Clean.UTCOffsetHours)
	assert.Equal(t, 2500.0, cfg.Followers())
	assert.Equal(t, 8, cfg.Aesthetics.Clusters)
	assert.Equal(t, 10, cfg.Predict.Trees)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	// Non-overridden values remain defaults
	assert.Equal(t, 5000, cfg.Aesthetics.SamplePixels)
	assert.Equal(t, 1000.0, cfg.Clean.DefaultFollowers)
	assert.Equal(t, "~/.config/instalens", cfg.Storage.Path)
}

func TestLoadZeroDefaultFollowersFallsBack(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("clean:\n  default_followers: 0\n"), 0644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, cfg.Followers())
}

func TestLoadInvalidYAMLReturnsError(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	err := os.WriteFile(cfgPath, []byte(":::not valid yaml{{{"), 0644)
	require.NoError(t, err)

	_, err = Load(cfgPath)
	assert.Error(t, err)
}

func TestLoadNonExistentFileReturnsError(t *testing.T) {
	_, err := Load("/tmp/nonexistent_path_12345/config.yaml")
	assert.Error(t, err)
}

func TestLoadOrCreateCreatesDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sub", "deep", "config.yaml")

	cfg, err := LoadOrCreateAt(cfgPath)
	require.NoError(t, err)

	// Should return defaults
	assert.Equal(t, 5, cfg.Aesthetics.Clusters)
	assert.Equal(t, "charts", cfg.Analysis.OutputDir)

	// File should now exist on disk
	_, statErr := os.Stat(cfgPath)
	assert.NoError(t, statErr)

	// File should be valid YAML loadable again
	cfg2, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, cfg.Export.MediaPaths, cfg2.Export.MediaPaths)
	assert.Equal(t, cfg.Retention.Days, cfg2.Retention.Days)
}

func TestLoadOrCreateLoadsExistingFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yamlContent := `
retention:
  days: 7
`
	err := os.WriteFile(cfgPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	cfg, err := LoadOrCreateAt(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Retention.Days)
	// Other fields remain defaults
	assert.Equal(t, "instalens.db", cfg.Storage.SQLiteFile)
}

func TestLoadListOverridesReplaceDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yamlContent := `
analysis:
  people_keywords:
    - "portrait"
    - "selfie"
`
	err := os.WriteFile(cfgPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"portrait", "selfie"}, cfg.Analysis.PeopleKeywords)
	assert.Equal(t, []string{"jewelry"}, cfg.Analysis.JewelryKeywords)
}

func TestDBPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Path = "/var/lib/instalens"
	path, err := cfg.DBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/var/lib/instalens", "instalens.db"), path)

	cfg.Storage.Path = "~/data"
	path, err = cfg.DBPath()
	require.NoError(t, err)
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "data", "instalens.db"), path)
}
