package bgremove

import (
	"strings"

	"mediakit/internal/services"
)

// Segmentation modes.
const (
	ModeAuto    = "auto"
	ModeHairs   = "hairs"
	ModeGeneral = "general"
)

// Device choices.
const (
	DeviceAuto = "auto"
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
)

// Quality presets.
const (
	QualityFast     = "fast"
	QualityBalanced = "balanced"
	QualityHigh     = "high"
)

// Post-processing choices.
const (
	PostProcessingFBA  = "fba"
	PostProcessingNone = "none"
)

// ErrInvalidOption is matched by every option validation failure.
var ErrInvalidOption = services.ErrInvalidOption

// Options are the bgremove command-line options.
type Options struct {
	Input          string `flag:"input" validate:"required"`
	Output         string `flag:"output" validate:"required"`
	Mode           string `flag:"mode" validate:"oneof=auto hairs general"`
	Device         string `flag:"device" validate:"oneof=auto cpu cuda"`
	Quality        string `flag:"quality" validate:"oneof=fast balanced high"`
	PostProcessing string `flag:"post-processing" validate:"oneof=fba none"`
	BatchSize      int    `flag:"batch-size" validate:"min=1"`
	FP16           bool   `flag:"fp16"`
}

// DefaultOptions returns the flag defaults for the given output directory
// and segmentation batch size.
func DefaultOptions(output string, batchSize int) Options {
	return Options{
		Output:         output,
		Mode:           ModeAuto,
		Device:         DeviceAuto,
		Quality:        QualityBalanced,
		PostProcessing: PostProcessingFBA,
		BatchSize:      batchSize,
	}
}

// Normalize trims whitespace and lowercases the enumerated options.
func (o *Options) Normalize() {
	o.Input = strings.TrimSpace(o.Input)
	o.Output = strings.TrimSpace(o.Output)
	o.Mode = strings.ToLower(strings.TrimSpace(o.Mode))
	o.Device = strings.ToLower(strings.TrimSpace(o.Device))
	o.Quality = strings.ToLower(strings.TrimSpace(o.Quality))
	o.PostProcessing = strings.ToLower(strings.TrimSpace(o.PostProcessing))
}

// Validate reports the first invalid option as an error matching
// ErrInvalidOption.
func (o Options) Validate() error {
	return services.ValidateOptions(o)
}
