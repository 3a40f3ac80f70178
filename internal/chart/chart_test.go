package chart

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/instalens/internal/table"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func assertPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic), "%s is not a PNG", path)
}

func monthly() *table.Table {
	b := table.NewBuilder("month", "engagement", "engagement_rate")
	b.Add(table.String("2024-01"), table.Int(10), table.Float(0.01))
	b.Add(table.String("2024-02"), table.Int(30), table.Null())
	b.Add(table.String("2024-03"), table.Int(20), table.Float(0.02))
	return b.Table()
}

func TestLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "monthly.png")
	fig := Inches("Monthly Engagement", "Month", "Total Engagement", 10, 6)
	require.NoError(t, Line(monthly(), "month", "engagement", fig, path))
	assertPNG(t, path)

	rate := filepath.Join(t.TempDir(), "rate.png")
	require.NoError(t, Line(monthly(), "month", "engagement_rate", fig, rate))
	assertPNG(t, rate)
}

func TestLineEmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	require.NoError(t, Line(table.New("month", "engagement"), "month", "engagement", Inches("", "", "", 4, 3), path))
	assertPNG(t, path)
}

func TestBars(t *testing.T) {
	b := table.NewBuilder("content_type", "engagement", "likes", "comments")
	b.Add(table.String("Image"), table.Float(12.5), table.Float(10), table.Float(2.5))
	b.Add(table.String("Video"), table.Float(30), table.Null(), table.Float(1))

	path := filepath.Join(t.TempDir(), "bars.png")
	fig := Inches("Engagement by Content Type", "Content Type", "Average Engagement", 12, 6)
	require.NoError(t, Bars(b.Table(), []string{"content_type"}, []string{"engagement", "likes", "comments"}, fig, path))
	assertPNG(t, path)
}

func TestMissingColumn(t *testing.T) {
	var missing *table.MissingColumnError
	err := Line(monthly(), "month", "likes", Inches("", "", "", 4, 3), filepath.Join(t.TempDir(), "x.png"))
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "likes", missing.Column)

	err = Bars(monthly(), []string{"segment"}, []string{"engagement"}, Inches("", "", "", 4, 3), filepath.Join(t.TempDir(), "y.png"))
	assert.ErrorAs(t, err, &missing)
}
