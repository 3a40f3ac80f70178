package cli

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/instalens/internal/storage"
)

func seedRuns(t *testing.T, store *storage.SQLiteStore, now time.Time, ages ...time.Duration) {
	t.Helper()
	for _, age := range ages {
		run := &storage.Run{Root: "/exports/ig", CreatedAt: now.Add(-age)}
		require.NoError(t, store.CreateRun(context.Background(), run, []storage.Post{{URI: "media/a.jpg"}}))
	}
}

func TestPrune_DefaultRetention(t *testing.T) {
	store := openTestStore(t)
	now := time.Now()
	seedRuns(t, store, now, 100*24*time.Hour, 91*24*time.Hour, 10*24*time.Hour)

	cmd := &PruneCommand{globals: &GlobalFlags{}}
	var err error
	output := captureOutput(t, func() {
		err = cmd.executeWithStore(testConfig(t, ""), store, now)
	})
	require.NoError(t, err)
	assert.Contains(t, output, "Pruned 2 import runs older than 90 days.")

	stats, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalRuns)
	assert.Equal(t, int64(1), stats.TotalPosts)
}

func TestPrune_DryRunKeepsData(t *testing.T) {
	store := openTestStore(t)
	now := time.Now()
	seedRuns(t, store, now, 40*24*time.Hour, time.Hour)

	cmd := &PruneCommand{OlderThan: "30d", DryRun: true, globals: &GlobalFlags{}}
	var err error
	output := captureOutput(t, func() {
		err = cmd.executeWithStore(testConfig(t, ""), store, now)
	})
	require.NoError(t, err)
	assert.Contains(t, output, "Would prune 1 import run older than 30 days.")

	stats, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalRuns)
}

func TestPrune_JSONOutput(t *testing.T) {
	store := openTestStore(t)
	now := time.Now()
	seedRuns(t, store, now, 3*time.Hour)

	cmd := &PruneCommand{OlderThan: "2h", globals: &GlobalFlags{JSON: true}}
	var err error
	output := captureOutput(t, func() {
		err = cmd.executeWithStore(testConfig(t, ""), store, now)
	})
	require.NoError(t, err)

	var result pruneJSON
	require.NoError(t, json.Unmarshal([]byte(output), &result), "output should be valid JSON: %s", output)
	assert.Equal(t, int64(1), result.Runs)
	assert.False(t, result.DryRun)
	assert.Equal(t, now.Add(-2*time.Hour).UTC().Format(time.RFC3339), result.Cutoff)
}

func TestPrune_InvalidOlderThan(t *testing.T) {
	cmd := &PruneCommand{OlderThan: "soon", globals: &GlobalFlags{}}
	err := cmd.executeWithStore(testConfig(t, ""), openTestStore(t), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --older-than")
}

func TestPrune_NonPositiveRetention(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Retention.Days = 0
	cmd := &PruneCommand{globals: &GlobalFlags{}}
	err := cmd.executeWithStore(cfg, openTestStore(t), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retention.days")
}
