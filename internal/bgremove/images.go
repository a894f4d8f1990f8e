package bgremove

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mediakit/internal/config"
)

var (
	// ErrInputNotFound is returned when the input path does not exist.
	ErrInputNotFound = errors.New("input path does not exist")
	// ErrUnsupportedImage is returned for a file input with an unknown extension.
	ErrUnsupportedImage = errors.New("not a supported image file")
	// ErrNoImages is returned when a directory holds no supported images.
	ErrNoImages = errors.New("no images found")
)

var supportedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
	".bmp":  {},
	".tiff": {},
	".tif":  {},
}

// IsSupportedImage reports whether path has a supported image extension.
func IsSupportedImage(path string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Source is the resolved set of input images.
type Source struct {
	// Root is the expanded input path.
	Root   string
	IsDir  bool
	Images []string
}

// Collect resolves input to the images it names. A directory is walked
// recursively, skipping hidden directories, and the result is sorted.
func Collect(input string) (Source, error) {
	root, err := config.ExpandPath(input)
	if err != nil {
		return Source{}, fmt.Errorf("expand input path: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Source{}, fmt.Errorf("%w: %s", ErrInputNotFound, input)
		}
		return Source{}, fmt.Errorf("stat input: %w", err)
	}

	if !info.IsDir() {
		if !IsSupportedImage(root) {
			return Source{}, fmt.Errorf("%w: %s", ErrUnsupportedImage, input)
		}
		return Source{Root: root, Images: []string{root}}, nil
	}

	var images []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && IsSupportedImage(path) {
			images = append(images, path)
		}
		return nil
	})
	if err != nil {
		return Source{}, fmt.Errorf("walk %s: %w", input, err)
	}
	if len(images) == 0 {
		return Source{}, fmt.Errorf("%w in %s", ErrNoImages, input)
	}
	sort.Strings(images)
	return Source{Root: root, IsDir: true, Images: images}, nil
}
