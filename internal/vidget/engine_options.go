package vidget

import (
	"path/filepath"

	"mediakit/internal/services/ytdlp"
)

const (
	audioCodec   = "m4a"
	audioQuality = "320"
	videoMerge   = "mp4"
)

// OutputTemplate returns the yt-dlp output template for outputDir.
func OutputTemplate(outputDir string, playlist bool) string {
	if playlist {
		return filepath.Join(outputDir, "%(playlist_title)s", "%(playlist_index)s - %(title)s.%(ext)s")
	}
	return filepath.Join(outputDir, "%(title)s.%(ext)s")
}

// QualityFormat caps video height at quality.
func QualityFormat(quality string) string {
	return "bestvideo[height<=" + quality + "]+bestaudio/best[height<=" + quality + "]"
}

// EngineSettings carries config values that shape the option dictionary.
type EngineSettings struct {
	SubtitleLanguages []string
	DownloadArchive   string
}

// BuildEngineOptions maps validated options onto a yt-dlp option dictionary
// writing into outputDir.
func BuildEngineOptions(opts Options, outputDir string, settings EngineSettings) ytdlp.Options {
	format := opts.Format
	if format == "" {
		format = DefaultFormat
	}
	if opts.Quality != "" {
		format = QualityFormat(opts.Quality)
	}

	out := ytdlp.Options{
		OutTmpl:      OutputTemplate(outputDir, opts.Playlist),
		Format:       format,
		Quiet:        !opts.NoWarnings,
		NoWarnings:   opts.NoWarnings,
		IgnoreErrors: true,
		NoPlaylist:   !opts.Playlist,
	}

	if opts.AudioOnly {
		out.Format = "bestaudio/best"
		out.PostProcessors = []ytdlp.PostProcessor{{
			Key:              ytdlp.PostProcessorExtractAudio,
			PreferredCodec:   audioCodec,
			PreferredQuality: audioQuality,
		}}
		out.MergeOutputFormat = audioCodec
	} else {
		out.MergeOutputFormat = videoMerge
	}

	if opts.WantsSubtitles() {
		out.WriteSubtitles = true
		out.WriteAutomaticSub = true
		out.SubtitlesLangs = append([]string(nil), settings.SubtitleLanguages...)
	}
	if opts.EmbedSubs {
		out.EmbedSubs = true
		out.PostProcessorArgs = map[string][]string{"ffmpeg": {"-c:s", "mov_text"}}
	}

	if opts.PlaylistStart > 1 {
		out.PlaylistStart = opts.PlaylistStart
	}
	if opts.PlaylistEnd > 0 {
		out.PlaylistEnd = opts.PlaylistEnd
	}
	out.DownloadArchive = settings.DownloadArchive
	return out
}
