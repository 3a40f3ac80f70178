package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/instalens/config.yaml"

// Config holds all instalens configuration.
type Config struct {
	Export     ExportConfig     `yaml:"export"`
	Clean      CleanConfig      `yaml:"clean"`
	Aesthetics AestheticsConfig `yaml:"aesthetics"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Predict    PredictConfig    `yaml:"predict"`
	Retention  RetentionConfig  `yaml:"retention"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ExportConfig locates files inside an export bundle. Paths are relative
// to the bundle root and matched at any depth.
type ExportConfig struct {
	Root              string   `yaml:"root"`
	InsightsPostsPath string   `yaml:"insights_posts_path"`
	ReelsPath         string   `yaml:"reels_path"`
	MediaPaths        []string `yaml:"media_paths"`
}

type CleanConfig struct {
	UTCOffsetHours   float64 `yaml:"utc_offset_hours"`
	DefaultFollowers float64 `yaml:"default_followers"`
	FollowersCount   float64 `yaml:"followers_count"` // 0 means use DefaultFollowers
}

type AestheticsConfig struct {
	ImageRoot    string `yaml:"image_root"` // empty means the export root
	Output       string `yaml:"output"`
	Clusters     int    `yaml:"clusters"`
	SamplePixels int    `yaml:"sample_pixels"`
	MaxSide      int    `yaml:"max_side"`
	Seed         int64  `yaml:"seed"`
}

type AnalysisConfig struct {
	OutputDir       string   `yaml:"output_dir"`
	WidthInches     float64  `yaml:"width_inches"`
	HeightInches    float64  `yaml:"height_inches"`
	PeopleKeywords  []string `yaml:"people_keywords"`
	JewelryKeywords []string `yaml:"jewelry_keywords"`
}

type PredictConfig struct {
	Trees           int     `yaml:"trees"`
	TestFraction    float64 `yaml:"test_fraction"`
	Seed            int64   `yaml:"seed"`
	MaxDepth        int     `yaml:"max_depth"`
	MinSamplesSplit int     `yaml:"min_samples_split"`
}

type RetentionConfig struct {
	Days int `yaml:"days"`
}

type StorageConfig struct {
	Path              string `yaml:"path"`
	SQLiteFile        string `yaml:"sqlite_file"`
	SQLiteJournalMode string `yaml:"sqlite_journal_mode"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read or contains invalid YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// A zero follower default would divide by zero.
	if cfg.Clean.DefaultFollowers <= 0 {
		cfg.Clean.DefaultFollowers = DefaultConfig().Clean.DefaultFollowers
	}

	return cfg, nil
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// DBPath returns the expanded path of the SQLite database.
func (c *Config) DBPath() (string, error) {
	dir, err := ExpandPath(c.Storage.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Storage.SQLiteFile), nil
}

// Followers returns the follower count engagement rates are computed
// against.
func (c *Config) Followers() float64 {
	if c.Clean.FollowersCount > 0 {
		return c.Clean.FollowersCount
	}
	return c.Clean.DefaultFollowers
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := ExpandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}
