package vidget

import (
	"strings"

	"mediakit/internal/services"
)

// DefaultFormat is the yt-dlp format selector used without --format.
const DefaultFormat = "bestvideo+bestaudio/best"

// Qualities lists the accepted --quality heights.
var Qualities = []string{"144", "240", "360", "480", "720", "1080", "1440", "2160"}

// ErrInvalidOption is matched by every option validation failure.
var ErrInvalidOption = services.ErrInvalidOption

// Options are the vidget command-line options.
type Options struct {
	URL           string `flag:"url" validate:"required"`
	Output        string `flag:"output" validate:"required"`
	AudioOnly     bool   `flag:"audio-only"`
	Subs          bool   `flag:"subs"`
	EmbedSubs     bool   `flag:"embed-subs"`
	Playlist      bool   `flag:"playlist"`
	PlaylistStart int    `flag:"playlist-start" validate:"min=1"`
	PlaylistEnd   int    `flag:"playlist-end" validate:"omitempty,gtefield=PlaylistStart"`
	Format        string `flag:"format" validate:"required"`
	Quality       string `flag:"quality" validate:"omitempty,oneof=144 240 360 480 720 1080 1440 2160"`
	NoWarnings    bool   `flag:"no-warnings"`
}

// DefaultOptions returns the flag defaults for the given output directory.
func DefaultOptions(output string) Options {
	return Options{
		Output:        output,
		PlaylistStart: 1,
		Format:        DefaultFormat,
	}
}

// Normalize trims whitespace and drops a trailing "p" from the quality.
func (o *Options) Normalize() {
	o.URL = strings.TrimSpace(o.URL)
	o.Output = strings.TrimSpace(o.Output)
	o.Format = strings.TrimSpace(o.Format)
	o.Quality = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(o.Quality)), "p")
}

// Validate reports the first invalid option as an error matching
// ErrInvalidOption.
func (o Options) Validate() error {
	return services.ValidateOptions(o)
}

// WantsSubtitles reports whether subtitles are written.
func (o Options) WantsSubtitles() bool {
	return o.Subs || o.EmbedSubs
}
