package vidget

import (
	"path/filepath"
	"reflect"
	"testing"

	"mediakit/internal/services/ytdlp"
)

var testLanguages = []string{"en", "ja"}

func build(t *testing.T, mutate func(*Options)) ytdlp.Options {
	t.Helper()
	opts := DefaultOptions("/videos")
	opts.URL = "https://example.com/v"
	if mutate != nil {
		mutate(&opts)
	}
	opts.Normalize()
	if err := opts.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return BuildEngineOptions(opts, "/videos", EngineSettings{SubtitleLanguages: testLanguages})
}

func TestBuildEngineOptionsDefaults(t *testing.T) {
	got := build(t, nil)
	want := ytdlp.Options{
		OutTmpl:           filepath.Join("/videos", "%(title)s.%(ext)s"),
		Format:            DefaultFormat,
		MergeOutputFormat: "mp4",
		Quiet:             true,
		IgnoreErrors:      true,
		NoPlaylist:        true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("BuildEngineOptions = %+v, want %+v", got, want)
	}
}

func TestBuildEngineOptionsAudioOnly(t *testing.T) {
	got := build(t, func(o *Options) { o.AudioOnly = true; o.Quality = "1080" })
	if got.Format != "bestaudio/best" || got.MergeOutputFormat != "m4a" {
		t.Fatalf("unexpected audio format %+v", got)
	}
	want := []ytdlp.PostProcessor{{Key: ytdlp.PostProcessorExtractAudio, PreferredCodec: "m4a", PreferredQuality: "320"}}
	if !reflect.DeepEqual(got.PostProcessors, want) {
		t.Fatalf("postprocessors = %+v", got.PostProcessors)
	}
}

func TestBuildEngineOptionsQualityAndWarnings(t *testing.T) {
	got := build(t, func(o *Options) { o.Quality = "720"; o.NoWarnings = true; o.Format = "worst" })
	if got.Format != "bestvideo[height<=720]+bestaudio/best[height<=720]" {
		t.Fatalf("format = %q", got.Format)
	}
	if got.Quiet || !got.NoWarnings {
		t.Fatalf("expected quiet=false no_warnings=true, got %+v", got)
	}
}

func TestBuildEngineOptionsSubtitles(t *testing.T) {
	subs := build(t, func(o *Options) { o.Subs = true })
	if !subs.WriteSubtitles || !subs.WriteAutomaticSub || !reflect.DeepEqual(subs.SubtitlesLangs, testLanguages) {
		t.Fatalf("unexpected subtitle options %+v", subs)
	}
	if subs.EmbedSubs || subs.PostProcessorArgs != nil {
		t.Fatalf("subs alone must not embed: %+v", subs)
	}

	embed := build(t, func(o *Options) { o.EmbedSubs = true })
	if !embed.WriteSubtitles || !embed.EmbedSubs {
		t.Fatalf("embed-subs must imply subs: %+v", embed)
	}
	if !reflect.DeepEqual(embed.PostProcessorArgs, map[string][]string{"ffmpeg": {"-c:s", "mov_text"}}) {
		t.Fatalf("postprocessor_args = %v", embed.PostProcessorArgs)
	}
}

func TestBuildEngineOptionsPlaylist(t *testing.T) {
	got := build(t, func(o *Options) { o.Playlist = true; o.PlaylistStart = 3; o.PlaylistEnd = 7 })
	if got.NoPlaylist {
		t.Fatal("playlist must clear noplaylist")
	}
	if got.OutTmpl != filepath.Join("/videos", "%(playlist_title)s", "%(playlist_index)s - %(title)s.%(ext)s") {
		t.Fatalf("outtmpl = %q", got.OutTmpl)
	}
	if got.PlaylistStart != 3 || got.PlaylistEnd != 7 {
		t.Fatalf("range = %d..%d", got.PlaylistStart, got.PlaylistEnd)
	}

	first := build(t, func(o *Options) { o.Playlist = true })
	if first.PlaylistStart != 0 || first.PlaylistEnd != 0 {
		t.Fatalf("default range must be omitted, got %d..%d", first.PlaylistStart, first.PlaylistEnd)
	}
}

func TestBuildEngineOptionsDictOmitsUnset(t *testing.T) {
	dict, err := build(t, nil).Dict()
	if err != nil {
		t.Fatalf("Dict: %v", err)
	}
	for _, key := range []string{"playliststart", "playlistend", "postprocessors", "writesubtitles", "download_archive"} {
		if _, ok := dict[key]; ok {
			t.Errorf("unexpected key %q in %v", key, dict)
		}
	}
	if dict["noplaylist"] != true || dict["ignoreerrors"] != true {
		t.Fatalf("unexpected dict %v", dict)
	}
}
