// Package aesthetics extracts color palettes and color statistics from post
// images and assembles them into a per-image dataset.
package aesthetics

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // GIF decode support
	_ "image/jpeg" // JPEG decode support
	_ "image/png"  // PNG decode support
	"math"
	"math/rand"
	"os"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decode support
	"gonum.org/v1/gonum/stat"
)

// TopSwatches is the number of dominant colors reported per image.
const TopSwatches = 3

// Options control palette extraction.
type Options struct {
	Clusters     int   // palette size before truncation to TopSwatches
	SamplePixels int   // upper bound on pixels fed to clustering
	MaxSide      int   // images are downscaled so neither side exceeds this
	Seed         int64 // drives both sampling and clustering
}

// DefaultOptions returns 5 clusters over at most 5000 pixels of a
// 1080-pixel thumbnail, seeded with 42.
func DefaultOptions() Options {
	return Options{Clusters: 5, SamplePixels: 5000, MaxSide: 1080, Seed: 42}
}

// Swatch is one palette color and the fraction of sampled pixels in it.
type Swatch struct {
	Hex      string
	Fraction float64
}

// Palette is the color summary of one image.
type Palette struct {
	// Swatches holds populated clusters, most populous first.
	Swatches []Swatch

	AvgHue        float64 // mean hue as a fraction of the full circle
	AvgSaturation float64
	AvgValue      float64
	StdValue      float64
	Colorfulness  float64 // mean per-channel standard deviation on the 0-255 scale
	WarmRatio     float64 // fraction of pixels with red, orange or yellow hue
}

// Top returns the first n swatches padded with empty hex strings and zero
// fractions.
func (p *Palette) Top(n int) ([]string, []float64) {
	hexes := make([]string, n)
	pcts := make([]float64, n)
	for i := 0; i < n && i < len(p.Swatches); i++ {
		hexes[i] = p.Swatches[i].Hex
		pcts[i] = p.Swatches[i].Fraction
	}
	return hexes, pcts
}

// Extract decodes the image at path and analyzes it.
func Extract(path string, opts Options) (*Palette, error) {
	img, err := Open(path)
	if err != nil {
		return nil, err
	}
	return Analyze(img, opts), nil
}

// Open decodes a JPEG, PNG, GIF or WebP image.
func Open(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Analyze computes the palette of img.
func Analyze(img image.Image, opts Options) *Palette {
	img = Thumbnail(img, opts.MaxSide)
	rng := rand.New(rand.NewSource(opts.Seed))
	pixels := samplePixels(img, opts.SamplePixels, rng)
	if len(pixels) == 0 {
		return &Palette{}
	}

	k := opts.Clusters
	if k > len(pixels) {
		k = len(pixels)
	}
	if k < 1 {
		k = 1
	}
	centers, counts := kmeans(pixels, k, rng, maxIterations)

	order := make([]int, len(centers))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return counts[order[a]] > counts[order[b]] })

	p := &Palette{}
	for _, i := range order {
		if counts[i] == 0 {
			continue
		}
		p.Swatches = append(p.Swatches, Swatch{
			Hex:      toHex(centers[i]),
			Fraction: float64(counts[i]) / float64(len(pixels)),
		})
	}
	p.fillStats(pixels)
	return p
}

func (p *Palette) fillStats(pixels []rgb) {
	n := len(pixels)
	hues := make([]float64, n)
	sats := make([]float64, n)
	vals := make([]float64, n)
	channels := [3][]float64{make([]float64, n), make([]float64, n), make([]float64, n)}
	warm := 0
	for i, px := range pixels {
		h, s, v := colorful.Color{R: px[0] / 255, G: px[1] / 255, B: px[2] / 255}.Hsv()
		hues[i] = h / 360
		sats[i] = s
		vals[i] = v
		if hues[i] >= 11.0/12 || hues[i] < 1.0/6 {
			warm++
		}
		for c := 0; c < 3; c++ {
			channels[c][i] = px[c]
		}
	}

	p.AvgHue = stat.Mean(hues, nil)
	p.AvgSaturation = stat.Mean(sats, nil)
	p.AvgValue, p.StdValue = stat.PopMeanStdDev(vals, nil)
	var sum float64
	for c := 0; c < 3; c++ {
		_, std := stat.PopMeanStdDev(channels[c], nil)
		sum += std
	}
	p.Colorfulness = sum / 3
	p.WarmRatio = float64(warm) / float64(n)
}

// Thumbnail downscales img so its longer side is at most maxSide, keeping
// the aspect ratio. Smaller images are returned unchanged.
func Thumbnail(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return img
	}
	scale := float64(maxSide) / float64(max(w, h))
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))

	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

type rgb [3]float64

// samplePixels returns the image's pixels as RGB with alpha discarded, or a
// seeded random subset without replacement when there are more than limit.
func samplePixels(img image.Image, limit int, rng *rand.Rand) []rgb {
	b := img.Bounds()
	all := make([]rgb, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			all = append(all, rgb{float64(c.R), float64(c.G), float64(c.B)})
		}
	}
	if limit <= 0 || len(all) <= limit {
		return all
	}
	idx := rng.Perm(len(all))[:limit]
	out := make([]rgb, limit)
	for i, j := range idx {
		out[i] = all[j]
	}
	return out
}

func toHex(c rgb) string {
	var v [3]int
	for i := range c {
		v[i] = int(math.Max(0, math.Min(255, c[i])))
	}
	return fmt.Sprintf("#%02X%02X%02X", v[0], v[1], v[2])
}
