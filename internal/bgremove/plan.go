package bgremove

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"mediakit/internal/config"
	"mediakit/internal/services/carvekit"
	"mediakit/internal/textutil"
)

const outputSuffix = "_no_bg"

// Plan pairs every input image with its output path.
type Plan struct {
	// Single is set when one file was given and the output names a file.
	Single    bool
	OutputDir string
	Items     []carvekit.Item
}

// Outputs returns the planned output paths in input order.
func (p Plan) Outputs() []string {
	out := make([]string, len(p.Items))
	for i, item := range p.Items {
		out[i] = item.Output
	}
	return out
}

// OutputExt returns the extension written for input. Formats that carry
// alpha keep their suffix; the rest are written as PNG.
func OutputExt(input string) string {
	ext := filepath.Ext(input)
	switch strings.ToLower(ext) {
	case ".png", ".webp", ".tiff", ".tif":
		return ext
	default:
		return ".png"
	}
}

// OutputName returns the default output file name for input.
func OutputName(input string) string {
	return textutil.Stem(input) + outputSuffix + OutputExt(input)
}

// PlanOutputs resolves output paths for src. A single file input writes to
// output directly when it has an image extension and is not an existing
// directory. Everything else writes <stem>_no_bg<ext> into output, with
// _2, _3 suffixes when names collide. No directories are created.
func PlanOutputs(src Source, output string) (Plan, error) {
	out, err := config.ExpandPath(output)
	if err != nil {
		return Plan{}, fmt.Errorf("expand output path: %w", err)
	}
	out = filepath.Clean(out)

	if !src.IsDir && len(src.Images) == 1 && IsSupportedImage(out) && !isDir(out) {
		return Plan{
			Single:    true,
			OutputDir: filepath.Dir(out),
			Items:     []carvekit.Item{{Input: src.Images[0], Output: out}},
		}, nil
	}

	plan := Plan{OutputDir: out, Items: make([]carvekit.Item, 0, len(src.Images))}
	used := make(map[string]struct{}, len(src.Images))
	for _, input := range src.Images {
		name := uniqueName(OutputName(input), used)
		plan.Items = append(plan.Items, carvekit.Item{Input: input, Output: filepath.Join(out, name)})
	}
	return plan, nil
}

// uniqueName compares NFC forms so composed and decomposed spellings of the
// same name do not overwrite each other.
func uniqueName(name string, used map[string]struct{}) string {
	candidate := name
	if _, taken := used[textutil.NormalizeName(candidate)]; taken {
		ext := filepath.Ext(name)
		base := strings.TrimSuffix(name, ext)
		for n := 2; ; n++ {
			candidate = base + "_" + strconv.Itoa(n) + ext
			if _, taken := used[textutil.NormalizeName(candidate)]; !taken {
				break
			}
		}
	}
	used[textutil.NormalizeName(candidate)] = struct{}{}
	return candidate
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
