package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// trailingComma matches a comma directly before a closing bracket, with
// only whitespace in between.
var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeError is returned when a document cannot be parsed even after the
// trailing-comma repair.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("decode json: %v", e.Err)
	}
	return fmt.Sprintf("decode json %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Load reads path, transparently decompressing .gz and .zst files, and
// decodes it with Decode.
func Load(path string) (*Node, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	n, err := Decode(data)
	if err != nil {
		if de, ok := err.(*DecodeError); ok {
			de.Path = path
		}
		return nil, err
	}
	return n, nil
}

// Decode parses data as UTF-8 JSON, dropping undecodable bytes. When strict
// parsing fails it retries once with trailing commas removed; a second
// failure is returned as a *DecodeError.
func Decode(data []byte) (*Node, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	text := strings.ToValidUTF8(string(data), "")

	n, err := Parse([]byte(text))
	if err == nil {
		return n, nil
	}

	repaired := trailingComma.ReplaceAllString(text, "$1")
	n, rerr := Parse([]byte(repaired))
	if rerr != nil {
		return nil, &DecodeError{Err: rerr}
	}
	log.Debug().Err(err).Msg("Parsed after removing trailing commas")
	return n, nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("zstd %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
