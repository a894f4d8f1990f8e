package bgremove

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// ImageInfo is the decoded header of one input image. Err is set when the
// header could not be read; such images are still handed to the engine.
type ImageInfo struct {
	Path   string
	Format string
	Width  int
	Height int
	Err    error
}

// ProbeImages reads the header of every path with at most workers
// concurrent readers. Results keep the order of paths. Only cancellation
// of ctx is returned as an error.
func ProbeImages(ctx context.Context, paths []string, workers int) ([]ImageInfo, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]ImageInfo, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = probeImage(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func probeImage(path string) ImageInfo {
	info := ImageInfo{Path: path}
	f, err := os.Open(path)
	if err != nil {
		info.Err = err
		return info
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		info.Err = fmt.Errorf("decode header: %w", err)
		return info
	}
	info.Format = format
	info.Width = cfg.Width
	info.Height = cfg.Height
	return info
}
