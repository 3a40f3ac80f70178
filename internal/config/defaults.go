package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Export: ExportConfig{
			Root:              "",
			InsightsPostsPath: "logged_information/past_instagram_insights/posts.json",
			ReelsPath:         "your_instagram_activity/media/reels.json",
			MediaPaths: []string{
				"your_instagram_activity/content/posts_1.json",
				"content/posts_1.json",
			},
		},
		Clean: CleanConfig{
			UTCOffsetHours:   7,
			DefaultFollowers: 1000,
			FollowersCount:   0,
		},
		Aesthetics: AestheticsConfig{
			ImageRoot:    "",
			Output:       "aesthetics.csv",
			Clusters:     5,
			SamplePixels: 5000,
			MaxSide:      1080,
			Seed:         42,
		},
		Analysis: AnalysisConfig{
			OutputDir:       "charts",
			WidthInches:     10,
			HeightInches:    6,
			PeopleKeywords:  DefaultPeopleKeywords(),
			JewelryKeywords: DefaultJewelryKeywords(),
		},
		Predict: PredictConfig{
			Trees:           100,
			TestFraction:    0.2,
			Seed:            42,
			MaxDepth:        0,
			MinSamplesSplit: 2,
		},
		Retention: RetentionConfig{
			Days: 90,
		},
		Storage: StorageConfig{
			Path:              "~/.config/instalens",
			SQLiteFile:        "instalens.db",
			SQLiteJournalMode: "wal",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
