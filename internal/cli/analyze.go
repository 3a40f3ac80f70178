package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/runnerr0/instalens/internal/analysis"
	"github.com/runnerr0/instalens/internal/chart"
	"github.com/runnerr0/instalens/internal/clean"
	"github.com/runnerr0/instalens/internal/config"
	"github.com/runnerr0/instalens/internal/pipeline"
	"github.com/runnerr0/instalens/internal/table"
)

// analysisStep produces one analysis table and, optionally, its chart.
type analysisStep struct {
	name  string
	build func(*table.Table) (*table.Table, error)
	draw  func(t *table.Table, fig chart.Figure, path string) error
	title string
	x, y  string
}

func analysisSteps() []analysisStep {
	return []analysisStep{
		{
			name:  "monthly_engagement",
			build: func(t *table.Table) (*table.Table, error) { return clean.AggregateByMonth(t, "creation_timestamp") },
			draw: func(t *table.Table, fig chart.Figure, path string) error {
				return chart.Line(t, "month", "engagement_rate", fig, path)
			},
			title: "Monthly engagement rate", x: "Month", y: "Engagement rate",
		},
		{
			name:  "engagement_by_hour",
			build: analysis.EngagementByHour,
			draw: func(t *table.Table, fig chart.Figure, path string) error {
				return chart.Line(t, "hour", "engagement", fig, path)
			},
			title: "Engagement by hour of day", x: "Hour", y: "Mean engagement",
		},
		{
			name:  "engagement_by_content_type",
			build: analysis.EngagementByContentType,
			draw: func(t *table.Table, fig chart.Figure, path string) error {
				return chart.Bars(t, []string{"content_type"}, []string{"engagement", "likes", "comments"}, fig, path)
			},
			title: "Engagement by content type", x: "Content type", y: "Mean",
		},
		{
			name:  "performance_by_people",
			build: analysis.PerformanceByPeople,
			draw: func(t *table.Table, fig chart.Figure, path string) error {
				return chart.Bars(t, []string{"contains_people"}, analysis.EngagementMetrics, fig, path)
			},
			title: "Performance with and without people", x: "Contains people", y: "Mean",
		},
		{
			name:  "engagement_segments",
			build: analysis.SegmentByEngagement,
			draw: func(t *table.Table, fig chart.Figure, path string) error {
				return chart.Bars(t, []string{"engagement_segment", "content_type"}, analysis.EngagementMetrics, fig, path)
			},
			title: "Engagement by segment and content type", x: "Segment / content type", y: "Mean",
		},
		{
			name:  "audience_correlation",
			build: analysis.AudienceCorrelation,
		},
	}
}

type analyzeJSON struct {
	OutputDir string   `json:"output_dir"`
	Posts     int      `json:"posts"`
	Files     []string `json:"files"`
	Skipped   []string `json:"skipped"`
}

// Execute implements the go-flags Commander interface for AnalyzeCommand.
func (c *AnalyzeCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals, c.cfg)
	if err != nil {
		return err
	}

	root, err := resolveRoot(c.Root, cfg)
	if err != nil {
		return err
	}

	outDir := c.OutDir
	if outDir == "" {
		outDir = cfg.Analysis.OutputDir
	}
	if outDir, err = config.ExpandPath(outDir); err != nil {
		return err
	}

	res, err := pipeline.Run(root, pipeline.FromConfig(cfg))
	if err != nil {
		return fmt.Errorf("ingest %s: %w", root, err)
	}

	out, err := writeAnalysis(res.Posts, outDir, cfg.Analysis)
	if err != nil {
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(out)
	}

	fmt.Printf("Analyzed %d %s into %s\n", out.Posts, plural(out.Posts, "post", "posts"), outDir)
	for _, f := range out.Files {
		fmt.Printf("  %s\n", f)
	}
	if len(out.Skipped) > 0 {
		fmt.Printf("Skipped: %v\n", out.Skipped)
	}
	return nil
}

// writeAnalysis writes each analysis table as CSV, with a PNG chart next
// to it when the table has rows. Analyses whose input columns are absent
// are skipped and logged.
func writeAnalysis(posts *table.Table, outDir string, cfg config.AnalysisConfig) (*analyzeJSON, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	out := &analyzeJSON{OutputDir: outDir, Posts: posts.Len(), Files: []string{}, Skipped: []string{}}
	for _, step := range analysisSteps() {
		result, err := step.build(posts)
		if err != nil {
			var missing *table.MissingColumnError
			if errors.As(err, &missing) {
				log.Warn().Str("analysis", step.name).Str("column", missing.Column).Msg("Skipping analysis")
				out.Skipped = append(out.Skipped, step.name)
				continue
			}
			return nil, fmt.Errorf("%s: %w", step.name, err)
		}

		csvPath := filepath.Join(outDir, step.name+".csv")
		if err := table.WriteCSVFile(csvPath, result); err != nil {
			return nil, fmt.Errorf("write %s: %w", step.name, err)
		}
		out.Files = append(out.Files, csvPath)

		if step.draw == nil || result.Empty() {
			continue
		}
		pngPath := filepath.Join(outDir, step.name+".png")
		fig := chart.Inches(step.title, step.x, step.y, cfg.WidthInches, cfg.HeightInches)
		if err := step.draw(result, fig, pngPath); err != nil {
			return nil, fmt.Errorf("chart %s: %w", step.name, err)
		}
		out.Files = append(out.Files, pngPath)
	}
	log.Info().Str("dir", outDir).Int("files", len(out.Files)).Msg("Analysis saved")
	return out, nil
}
