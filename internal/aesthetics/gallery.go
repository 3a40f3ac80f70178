package aesthetics

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
)

// SaveThumbnail writes a PNG copy of the image at src to dst, downscaled so
// neither side exceeds maxSide.
func SaveThumbnail(src, dst string, maxSide int) error {
	img, err := Open(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create thumbnail directory: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := png.Encode(f, Thumbnail(img, maxSide)); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", dst, err)
	}
	return f.Close()
}
