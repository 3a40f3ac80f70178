package cli

import (
	"errors"
	"fmt"

	"github.com/runnerr0/instalens/internal/pipeline"
	"github.com/runnerr0/instalens/internal/predict"
)

type predictJSON struct {
	Rows      int     `json:"rows"`
	Dropped   int     `json:"dropped"`
	TrainRows int     `json:"train_rows"`
	TestRows  int     `json:"test_rows"`
	Trees     int     `json:"trees"`
	MSE       float64 `json:"mse"`
}

// Execute implements the go-flags Commander interface for PredictCommand.
func (c *PredictCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals, c.cfg)
	if err != nil {
		return err
	}

	root, err := resolveRoot(c.Root, cfg)
	if err != nil {
		return err
	}

	res, err := pipeline.Run(root, pipeline.FromConfig(cfg))
	if err != nil {
		return fmt.Errorf("ingest %s: %w", root, err)
	}

	opts := predict.Options{
		Trees:           cfg.Predict.Trees,
		TestFraction:    cfg.Predict.TestFraction,
		Seed:            cfg.Predict.Seed,
		MaxDepth:        cfg.Predict.MaxDepth,
		MinSamplesSplit: cfg.Predict.MinSamplesSplit,
	}
	if c.Trees > 0 {
		opts.Trees = c.Trees
	}

	report, err := predict.PredictEngagement(res.Posts, opts)
	if err != nil {
		if errors.Is(err, predict.ErrTooFewRows) {
			return fmt.Errorf("predict: %w (found %d posts)", err, res.Posts.Len())
		}
		return fmt.Errorf("predict: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(predictJSON{
			Rows:      report.Rows,
			Dropped:   report.Dropped,
			TrainRows: report.TrainRows,
			TestRows:  report.TestRows,
			Trees:     opts.Trees,
			MSE:       report.MSE,
		})
	}

	fmt.Printf("Trained %d trees on %d rows, tested on %d (%d dropped)\n",
		opts.Trees, report.TrainRows, report.TestRows, report.Dropped)
	fmt.Printf("Mean squared error: %.6g\n", report.MSE)
	return nil
}
