package ytdlp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	"github.com/mitchellh/mapstructure"
)

// PostProcessor mirrors one entry of the yt-dlp postprocessors list.
type PostProcessor struct {
	Key              string `mapstructure:"key" json:"key"`
	PreferredCodec   string `mapstructure:"preferredcodec,omitempty" json:"preferredcodec,omitempty"`
	PreferredQuality string `mapstructure:"preferredquality,omitempty" json:"preferredquality,omitempty"`
}

// Postprocessor keys.
const (
	PostProcessorExtractAudio = "FFmpegExtractAudio"
)

// Options is the yt-dlp option dictionary (ydl_opts). Field names follow the
// embedding API so the dictionary printed by --dry-run reads like yt-dlp's own
// documentation.
type Options struct {
	OutTmpl           string              `mapstructure:"outtmpl" json:"outtmpl"`
	Format            string              `mapstructure:"format" json:"format"`
	MergeOutputFormat string              `mapstructure:"merge_output_format,omitempty" json:"merge_output_format,omitempty"`
	Quiet             bool                `mapstructure:"quiet" json:"quiet"`
	NoWarnings        bool                `mapstructure:"no_warnings" json:"no_warnings"`
	IgnoreErrors      bool                `mapstructure:"ignoreerrors" json:"ignoreerrors"`
	PostProcessors    []PostProcessor     `mapstructure:"postprocessors,omitempty" json:"postprocessors,omitempty"`
	WriteSubtitles    bool                `mapstructure:"writesubtitles,omitempty" json:"writesubtitles,omitempty"`
	WriteAutomaticSub bool                `mapstructure:"writeautomaticsub,omitempty" json:"writeautomaticsub,omitempty"`
	SubtitlesLangs    []string            `mapstructure:"subtitleslangs,omitempty" json:"subtitleslangs,omitempty"`
	EmbedSubs         bool                `mapstructure:"embedsubs,omitempty" json:"embedsubs,omitempty"`
	PostProcessorArgs map[string][]string `mapstructure:"postprocessor_args,omitempty" json:"postprocessor_args,omitempty"`
	NoPlaylist        bool                `mapstructure:"noplaylist,omitempty" json:"noplaylist,omitempty"`
	PlaylistStart     int                 `mapstructure:"playliststart,omitempty" json:"playliststart,omitempty"`
	PlaylistEnd       int                 `mapstructure:"playlistend,omitempty" json:"playlistend,omitempty"`
	DownloadArchive   string              `mapstructure:"download_archive,omitempty" json:"download_archive,omitempty"`
}

// Dict renders the options as a yt-dlp option dictionary, omitting unset
// optional keys.
func (o Options) Dict() (map[string]any, error) {
	out := make(map[string]any)
	if err := mapstructure.Decode(o, &out); err != nil {
		return nil, fmt.Errorf("encode yt-dlp options: %w", err)
	}
	return out, nil
}

// extractsAudio reports whether the options ask for audio extraction.
func (o Options) extractsAudio() (PostProcessor, bool) {
	for _, pp := range o.PostProcessors {
		if pp.Key == PostProcessorExtractAudio {
			return pp, true
		}
	}
	return PostProcessor{}, false
}

// playlistItems renders playliststart/playlistend as a --playlist-items range.
func (o Options) playlistItems() string {
	if o.PlaylistStart <= 1 && o.PlaylistEnd <= 0 {
		return ""
	}
	start := ""
	if o.PlaylistStart > 1 {
		start = strconv.Itoa(o.PlaylistStart)
	}
	end := ""
	if o.PlaylistEnd > 0 {
		end = strconv.Itoa(o.PlaylistEnd)
	}
	return start + ":" + end
}

// apply translates the dictionary onto a go-ytdlp command. Selection options
// (playlist handling, errors, warnings, archive) are always applied; output
// options only when download is true.
func (o Options) apply(cmd *ytdlp.Command, download bool) *ytdlp.Command {
	if o.Quiet {
		cmd = cmd.Quiet()
	}
	if o.NoWarnings {
		cmd = cmd.NoWarnings()
	}
	if o.IgnoreErrors {
		cmd = cmd.IgnoreErrors()
	}
	if o.NoPlaylist {
		cmd = cmd.NoPlaylist()
	} else {
		cmd = cmd.YesPlaylist()
	}
	if items := o.playlistItems(); items != "" {
		cmd = cmd.PlaylistItems(items)
	}
	if !download {
		return cmd
	}

	if o.OutTmpl != "" {
		cmd = cmd.Output(o.OutTmpl)
	}
	if o.Format != "" {
		cmd = cmd.Format(o.Format)
	}
	if pp, ok := o.extractsAudio(); ok {
		cmd = cmd.ExtractAudio()
		if pp.PreferredCodec != "" {
			cmd = cmd.AudioFormat(pp.PreferredCodec)
		}
		if pp.PreferredQuality != "" {
			cmd = cmd.AudioQuality(audioQualityFlag(pp.PreferredQuality))
		}
	} else if o.MergeOutputFormat != "" {
		// --merge-output-format only accepts video containers; audio
		// extraction picks its container from the codec instead.
		cmd = cmd.MergeOutputFormat(o.MergeOutputFormat)
	}
	if o.WriteSubtitles {
		cmd = cmd.WriteSubs()
	}
	if o.WriteAutomaticSub {
		cmd = cmd.WriteAutoSubs()
	}
	if len(o.SubtitlesLangs) > 0 {
		cmd = cmd.SubLangs(strings.Join(o.SubtitlesLangs, ","))
	}
	if o.EmbedSubs {
		cmd = cmd.EmbedSubs()
	}
	for _, arg := range o.postProcessorArgs() {
		cmd = cmd.PostProcessorArgs(arg)
	}
	if o.DownloadArchive != "" {
		cmd = cmd.DownloadArchive(o.DownloadArchive)
	}
	return cmd
}

// postProcessorArgs renders postprocessor_args as NAME:ARGS values in a
// stable order.
func (o Options) postProcessorArgs() []string {
	if len(o.PostProcessorArgs) == 0 {
		return nil
	}
	names := make([]string, 0, len(o.PostProcessorArgs))
	for name := range o.PostProcessorArgs {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		args := o.PostProcessorArgs[name]
		if len(args) == 0 {
			continue
		}
		out = append(out, name+":"+strings.Join(args, " "))
	}
	return out
}

// audioQualityFlag converts a preferredquality value to --audio-quality.
// Values above 10 are bitrates in kbps; 0-10 are VBR levels.
func audioQualityFlag(value string) string {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 10 {
		return value
	}
	return strconv.Itoa(n) + "K"
}
