package aesthetics

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/instalens/internal/table"
)

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestAnalyzeSolidColor(t *testing.T) {
	p := Analyze(solid(40, 30, color.NRGBA{R: 200, G: 50, B: 50, A: 255}), DefaultOptions())

	require.Len(t, p.Swatches, 1)
	assert.Equal(t, "#C83232", p.Swatches[0].Hex)
	assert.Equal(t, 1.0, p.Swatches[0].Fraction)
	assert.Equal(t, 0.0, p.Colorfulness)
	assert.Equal(t, 0.0, p.StdValue)
	assert.InDelta(t, 200.0/255, p.AvgValue, 1e-9)
	assert.InDelta(t, 0.75, p.AvgSaturation, 1e-9)
	assert.Equal(t, 0.0, p.AvgHue)
	assert.Equal(t, 1.0, p.WarmRatio)

	hexes, pcts := p.Top(TopSwatches)
	assert.Equal(t, []string{"#C83232", "", ""}, hexes)
	assert.Equal(t, []float64{1, 0, 0}, pcts)
}

func TestAnalyzeTwoColors(t *testing.T) {
	img := solid(10, 10, color.NRGBA{B: 255, A: 255})
	for y := 0; y < 3; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.NRGBA{R: 255, G: 128, A: 255})
		}
	}
	p := Analyze(img, DefaultOptions())

	require.Len(t, p.Swatches, 2)
	assert.Equal(t, "#0000FF", p.Swatches[0].Hex)
	assert.InDelta(t, 0.7, p.Swatches[0].Fraction, 1e-12)
	assert.Equal(t, "#FF8000", p.Swatches[1].Hex)
	assert.InDelta(t, 0.3, p.Swatches[1].Fraction, 1e-12)
	assert.InDelta(t, 0.3, p.WarmRatio, 1e-12)
	assert.Greater(t, p.Colorfulness, 0.0)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 120, 90))
	for y := 0; y < 90; y++ {
		for x := 0; x < 120; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 2), G: uint8(y * 2), B: uint8((x + y) % 256), A: 255})
		}
	}
	opts := DefaultOptions()
	opts.SamplePixels = 500
	a := Analyze(img, opts)
	b := Analyze(img, opts)
	assert.Equal(t, a, b)
	assert.LessOrEqual(t, len(a.Swatches), opts.Clusters)

	var total float64
	for _, s := range a.Swatches {
		total += s.Fraction
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestFewerPixelsThanClusters(t *testing.T) {
	p := Analyze(solid(2, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255}), DefaultOptions())
	require.Len(t, p.Swatches, 1)
	assert.Equal(t, "#0A141E", p.Swatches[0].Hex)
}

func TestThumbnail(t *testing.T) {
	small := solid(20, 10, color.White)
	assert.Same(t, small, Thumbnail(small, 1080))

	big := Thumbnail(solid(300, 100, color.White), 60)
	assert.Equal(t, 60, big.Bounds().Dx())
	assert.Equal(t, 20, big.Bounds().Dy())
}

func TestExtractMissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	_, err := Extract(filepath.Join(dir, "nope.png"), DefaultOptions())
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
	_, err = Extract(bad, DefaultOptions())
	assert.Error(t, err)
}

func TestWriteDataset(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "media", "a.png"), solid(8, 8, color.NRGBA{R: 255, A: 255}))
	writePNG(t, filepath.Join(root, "media", "b.png"), solid(8, 8, color.NRGBA{G: 255, A: 255}))

	b := table.NewBuilder("uri", "engagement", "engagement_rate", "caption")
	b.Add(table.String("media/a.png"), table.Int(10), table.Float(0.01), table.String("x"))
	b.Add(table.String("media/b.png"), table.Int(20), table.Float(0.02), table.String("y"))
	b.Add(table.String("media/a.png"), table.Int(10), table.Float(0.01), table.String("x"))
	b.Add(table.String("media/gone.jpg"), table.Int(5), table.Float(0.005), table.String("z"))
	b.Add(table.Null(), table.Int(1), table.Float(0.001), table.String("w"))

	out := filepath.Join(t.TempDir(), "aesthetics.csv")
	ds, err := WriteDataset(b.Table(), root, out, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"media/gone.jpg"}, ds.Missing)
	assert.Len(t, ds.Palettes, 2)
	assert.True(t, ds.Table.Has("engagement"))
	assert.False(t, ds.Table.Has("caption"))

	hex, _ := ds.Table.Value(0, "dominant_hex_1").Str()
	assert.Equal(t, "#FF0000", hex)
	assert.True(t, ds.Table.Value(0, "dominant_hex_2").IsNull())
	eng, _ := ds.Table.Value(0, "engagement").Float()
	assert.Equal(t, 10.0, eng)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "dominant_hex_1,dominant_hex_2")
	assert.Contains(t, string(data), "#00FF00")
}

func TestBuildDatasetRequiresURI(t *testing.T) {
	_, err := BuildDataset(table.New("engagement"), t.TempDir(), DefaultOptions())
	var missing *table.MissingColumnError
	assert.ErrorAs(t, err, &missing)
}

func TestSaveThumbnail(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "media", "big.png")
	writePNG(t, src, solid(400, 200, color.NRGBA{R: 10, G: 20, B: 30, A: 255}))

	dst := filepath.Join(dir, "gallery", "Post_1.png")
	require.NoError(t, SaveThumbnail(src, dst, 100))

	img, err := Open(dst)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())

	assert.Error(t, SaveThumbnail(filepath.Join(dir, "absent.jpg"), dst, 100))
}
