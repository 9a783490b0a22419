// Package hash validates candidate files and computes perceptual
// hashes. Extraction of a single file either yields FileMetadata or a
// non-fatal error; a failed file is dropped from the run, never aborting
// the batch.
package hash

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math/bits"
	"os"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"photodedup/internal/config"
	"photodedup/internal/models"
)

// ErrTooSmall marks files below the configured minimum byte size.
// They are excluded from consideration entirely.
var ErrTooSmall = errors.New("file below minimum size")

// Extractor computes FileMetadata for candidate files.
type Extractor struct {
	cfg *config.Config
}

// NewExtractor creates an Extractor using the given configuration.
func NewExtractor(cfg *config.Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract validates and hashes a single file.
func (e *Extractor) Extract(path string) (*models.FileMetadata, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if stat.Size() < e.cfg.MinSizeBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooSmall, stat.Size())
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	// Difference hash: robust to recompression and resizing, sensitive
	// to structural changes.
	dh, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dhash: %w", err)
	}

	resolution, err := e.resolution(path)
	if err != nil {
		// The pixel decode above succeeded, so fall back to its bounds.
		b := img.Bounds()
		resolution = b.Dx() * b.Dy()
	}

	return &models.FileMetadata{
		Path:       path,
		Hash:       dh.GetHash(),
		Resolution: resolution,
		Size:       stat.Size(),
		ModTime:    stat.ModTime(),
	}, nil
}

// ExtractWithTimeout runs Extract with an upper bound on wall time.
// Decoders can stall on pathological files.
func (e *Extractor) ExtractWithTimeout(path string, timeout time.Duration) (*models.FileMetadata, error) {
	done := make(chan struct{})
	var meta *models.FileMetadata
	var err error

	go func() {
		meta, err = e.Extract(path)
		close(done)
	}()

	select {
	case <-done:
		return meta, err
	case <-time.After(timeout):
		return nil, fmt.Errorf("timeout extracting %s", path)
	}
}

// resolution determines the true pixel dimensions through a decode path
// independent of the hash computation. DNG and other TIFF containers
// often expose only a reduced preview IFD to the pixel decoders, so the
// EXIF dimensions win whenever they report a larger image; they also
// rescue files DecodeConfig rejects outright.
func (e *Extractor) resolution(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	decoded := 0
	cfg, _, derr := image.DecodeConfig(file)
	if derr == nil {
		decoded = cfg.Width * cfg.Height
	}

	if _, serr := file.Seek(0, 0); serr == nil {
		if x, xerr := exif.Decode(file); xerr == nil {
			w, werr := exifInt(x, exif.PixelXDimension)
			h, herr := exifInt(x, exif.PixelYDimension)
			if werr == nil && herr == nil && w*h > decoded {
				return w * h, nil
			}
		}
	}

	if derr != nil {
		return 0, fmt.Errorf("failed to decode config: %w", derr)
	}
	return decoded, nil
}

func exifInt(x *exif.Exif, name exif.FieldName) (int, error) {
	tag, err := x.Get(name)
	if err != nil {
		return 0, err
	}
	return tag.Int(0)
}

// HammingDistance counts differing bits between two hashes.
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
