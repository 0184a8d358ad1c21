// Package receipts turns receipt images into transaction rows: list images, run OCR,
// and pull store, date and amount out of the recognized text.
package receipts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dvloznov/auto-journal/internal/domain"
)

// Image is one receipt image in a source listing.
type Image struct {
	// Name is the file name (or object name) used for ordering and logs.
	Name string
	// Location is the full path or gs:// URI.
	Location string
}

// ImageSource lists and opens receipt images.
type ImageSource interface {
	List(ctx context.Context) ([]Image, error)
	Open(ctx context.Context, img Image) ([]byte, error)
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// IsImage reports whether name has a recognized image extension (case-insensitive).
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// MIMEType returns the content type for a recognized image name.
func MIMEType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

func sortImages(images []Image) {
	sort.Slice(images, func(i, j int) bool { return images[i].Name < images[j].Name })
}

// DirSource reads images from a local directory. Subdirectories are not descended.
type DirSource struct {
	dir string
}

// NewDirSource creates a source over dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Name identifies the source in logs and the run report.
func (s *DirSource) Name() string {
	return "receipts:" + s.dir
}

// List returns the images in the directory sorted by name.
func (s *DirSource) List(ctx context.Context) ([]Image, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("receipts.DirSource.List: %s: %w: %v", s.dir, domain.ErrSourceUnavailable, err)
		}
		return nil, fmt.Errorf("receipts.DirSource.List: %s: %w", s.dir, err)
	}

	var images []Image
	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) {
			continue
		}
		images = append(images, Image{
			Name:     e.Name(),
			Location: filepath.Join(s.dir, e.Name()),
		})
	}
	sortImages(images)
	return images, nil
}

// Open reads the image bytes.
func (s *DirSource) Open(ctx context.Context, img Image) ([]byte, error) {
	data, err := os.ReadFile(img.Location)
	if err != nil {
		return nil, fmt.Errorf("receipts.DirSource.Open: %w", err)
	}
	return data, nil
}
