package ytdlp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"mediakit/internal/logging"
	"mediakit/internal/services"
	"mediakit/internal/testsupport"
)

func newTestClient(cfg Config) *Client {
	client := NewClient(cfg, logging.NewNop())
	client.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	client.install = func(context.Context, *ytdlp.InstallOptions) (*ytdlp.ResolvedInstall, error) {
		return nil, errors.New("no cached install")
	}
	return client
}

func TestResolvePrefersConfiguredPath(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "yt-dlp")
	testsupport.WriteFile(t, bin, 1)
	client := newTestClient(Config{Binary: bin})

	got, err := client.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != bin {
		t.Fatalf("expected %q, got %q", bin, got)
	}
}

func TestResolveUsesPath(t *testing.T) {
	client := newTestClient(Config{})
	client.lookPath = func(name string) (string, error) {
		if name != DefaultBinary {
			t.Fatalf("unexpected lookup %q", name)
		}
		return "/usr/bin/yt-dlp", nil
	}
	got, err := client.Resolve(context.Background())
	if err != nil || got != "/usr/bin/yt-dlp" {
		t.Fatalf("unexpected resolve result %q, %v", got, err)
	}
}

func TestResolveFallsBackToCacheWithoutDownloading(t *testing.T) {
	client := newTestClient(Config{AutoInstall: false})
	var gotOpts *ytdlp.InstallOptions
	client.install = func(_ context.Context, opts *ytdlp.InstallOptions) (*ytdlp.ResolvedInstall, error) {
		gotOpts = opts
		return &ytdlp.ResolvedInstall{Executable: "/cache/yt-dlp", Version: "2025.01.01"}, nil
	}

	got, err := client.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != "/cache/yt-dlp" {
		t.Fatalf("unexpected executable %q", got)
	}
	if gotOpts == nil || !gotOpts.DisableDownload {
		t.Fatalf("expected downloads disabled without auto_install, got %#v", gotOpts)
	}
}

func TestResolveAutoInstallAllowsDownload(t *testing.T) {
	client := newTestClient(Config{AutoInstall: true})
	var gotOpts *ytdlp.InstallOptions
	client.install = func(_ context.Context, opts *ytdlp.InstallOptions) (*ytdlp.ResolvedInstall, error) {
		gotOpts = opts
		return &ytdlp.ResolvedInstall{Executable: "/cache/yt-dlp", Downloaded: true}, nil
	}
	if _, err := client.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if gotOpts.DisableDownload {
		t.Fatal("expected downloads allowed with auto_install")
	}
}

func TestResolveNotInstalled(t *testing.T) {
	client := newTestClient(Config{Binary: "/nope/yt-dlp"})
	_, err := client.Resolve(context.Background())
	if !errors.Is(err, ErrNotInstalled) {
		t.Fatalf("expected ErrNotInstalled, got %v", err)
	}
	if err.Error() != "yt-dlp is not installed. Install with: pip install yt-dlp" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestInstallReportsExecutable(t *testing.T) {
	client := newTestClient(Config{})
	client.install = func(_ context.Context, opts *ytdlp.InstallOptions) (*ytdlp.ResolvedInstall, error) {
		if opts.DisableDownload {
			t.Fatal("install must be allowed to download")
		}
		return &ytdlp.ResolvedInstall{Executable: "/cache/yt-dlp", Version: "2025.01.01", Downloaded: true}, nil
	}
	inst, err := client.Install(context.Background())
	if err != nil {
		t.Fatalf("Install returned error: %v", err)
	}
	if inst.Executable != "/cache/yt-dlp" || inst.Version != "2025.01.01" || !inst.Downloaded {
		t.Fatalf("unexpected installation %#v", inst)
	}
}

func TestInstallFailure(t *testing.T) {
	client := newTestClient(Config{})
	client.install = func(context.Context, *ytdlp.InstallOptions) (*ytdlp.ResolvedInstall, error) {
		return nil, errors.New("network unreachable")
	}
	if _, err := client.Install(context.Background()); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestExtractInfoRunsStub(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs are not supported on windows")
	}
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	bin := testsupport.StubBinary(t, dir, "yt-dlp", `#!/bin/sh
for arg in "$@"; do echo "$arg" >> "`+argsFile+`"; done
echo '{"id":"PL1","_type":"playlist","title":"Mix","uploader":"Chan","entries":[{"id":"a"},{"id":"b"}]}'
`)
	client := newTestClient(Config{Binary: bin})

	info, err := client.ExtractInfo(context.Background(), Options{IgnoreErrors: true, PlaylistStart: 2}, "https://example.com/list")
	if err != nil {
		t.Fatalf("ExtractInfo returned error: %v", err)
	}
	if info.Title == nil || *info.Title != "Mix" {
		t.Fatalf("unexpected title %#v", info.Title)
	}
	if !info.HasEntries() || len(info.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(info.Entries))
	}
	if info.Duration != nil {
		t.Fatalf("expected nil duration, got %v", *info.Duration)
	}

	raw, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	args := string(raw)
	for _, want := range []string{"--dump-single-json", "--skip-download", "--flat-playlist", "--ignore-errors", "--yes-playlist", "2:", "https://example.com/list"} {
		if !strings.Contains(args, want) {
			t.Errorf("expected %q in args:\n%s", want, args)
		}
	}
	if strings.Contains(args, "--format") {
		t.Errorf("did not expect download options during info extraction:\n%s", args)
	}
}

func TestExtractInfoFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs are not supported on windows")
	}
	bin := testsupport.StubBinary(t, t.TempDir(), "yt-dlp", `#!/bin/sh
echo 'WARNING: something' >&2
echo 'ERROR: [generic] Unsupported URL: https://example.com' >&2
exit 1
`)
	client := newTestClient(Config{Binary: bin})

	_, err := client.ExtractInfo(context.Background(), Options{}, "https://example.com")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Unsupported URL") {
		t.Fatalf("expected yt-dlp error line, got %q", err.Error())
	}
}

func TestExtractInfoTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs are not supported on windows")
	}
	bin := testsupport.StubBinary(t, t.TempDir(), "yt-dlp", "#!/bin/sh\nexec sleep 5\n")
	client := newTestClient(Config{Binary: bin, Timeout: 100 * time.Millisecond})

	_, err := client.ExtractInfo(context.Background(), Options{}, "https://example.com")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error to be wrapped, got %v", err)
	}
}

func TestExtractInfoCallerCancelIsNotTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bin := filepath.Join(t.TempDir(), "yt-dlp")
	testsupport.WriteFile(t, bin, 1)
	client := newTestClient(Config{Binary: bin, Timeout: time.Minute})

	_, err := client.ExtractInfo(ctx, Options{}, "https://example.com")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, services.ErrTimeout) {
		t.Fatalf("caller cancellation reported as timeout: %v", err)
	}
}

func TestParseInfo(t *testing.T) {
	if _, err := ParseInfo([]byte("null")); err == nil {
		t.Fatal("expected error for null metadata")
	}
	if _, err := ParseInfo([]byte("{not json")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	info, err := ParseInfo([]byte(`{"title":"東京","duration":12.5,"view_count":42,"upload_date":"20240101"}`))
	if err != nil {
		t.Fatalf("ParseInfo returned error: %v", err)
	}
	if *info.Title != "東京" || *info.Duration != 12.5 || *info.ViewCount != 42 {
		t.Fatalf("unexpected info %#v", info)
	}
	if info.HasEntries() {
		t.Fatal("expected single video")
	}
}

func TestErrorLine(t *testing.T) {
	stderr := "WARNING: a\nERROR: first\nsome trace\nERROR: second\n"
	if got := errorLine(stderr); got != "ERROR: second" {
		t.Fatalf("unexpected error line %q", got)
	}
	if got := errorLine("plain failure\n\n"); got != "plain failure" {
		t.Fatalf("unexpected fallback line %q", got)
	}
	if lines := errorLines(stderr); len(lines) != 2 {
		t.Fatalf("expected 2 error lines, got %v", lines)
	}
}

func TestDownloadReportsMergedFileOnly(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs are not supported on windows")
	}
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	bin := testsupport.StubBinary(t, dir, "yt-dlp", `#!/bin/sh
for arg in "$@"; do echo "$arg" >> "`+argsFile+`"; done
echo 'progress:{"info":{"id":"c1"},"progress":{"status":"downloading","filename":"/out/Clip.f137.mp4","downloaded_bytes":500,"total_bytes":1000}}'
echo 'progress:{"info":{"id":"c1"},"progress":{"status":"finished","filename":"/out/Clip.f137.mp4","downloaded_bytes":1000,"total_bytes":1000}}'
echo 'progress:{"info":{"id":"c1"},"progress":{"status":"finished","filename":"/out/Clip.f140.m4a","downloaded_bytes":200,"total_bytes":200}}'
echo '[Merger] Merging formats into "/out/Clip.mp4"'
echo 'mediakit-saved:/out/Clip.mp4'
`)
	client := newTestClient(Config{Binary: bin})

	var updates []Progress
	opts := Options{
		OutTmpl:           "/out/%(title)s.%(ext)s",
		Format:            "bestvideo+bestaudio/best",
		MergeOutputFormat: "mp4",
		NoPlaylist:        true,
	}
	result, err := client.Download(context.Background(), opts, "https://example.com/v/1", func(p Progress) {
		updates = append(updates, p)
	})
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if len(result.Files) != 1 || result.Files[0] != "/out/Clip.mp4" {
		t.Fatalf("expected only the merged file, got %v", result.Files)
	}
	if len(result.Failures) != 0 {
		t.Fatalf("unexpected failures %v", result.Failures)
	}

	if len(updates) != 3 {
		t.Fatalf("expected 3 progress updates, got %d: %+v", len(updates), updates)
	}
	first := updates[0]
	if first.Status != "downloading" || first.Filename != "/out/Clip.f137.mp4" || first.DownloadedBytes != 500 || first.TotalBytes != 1000 || first.Percent != 50 {
		t.Fatalf("unexpected first update %+v", first)
	}
	if last := updates[2]; last.Status != "finished" || last.Percent != 100 {
		t.Fatalf("unexpected last update %+v", last)
	}

	raw, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	args := string(raw)
	for _, want := range []string{
		"--output\n/out/%(title)s.%(ext)s",
		"--format\nbestvideo+bestaudio/best",
		"--merge-output-format\nmp4",
		"--no-playlist",
		"--print\nafter_move:mediakit-saved:%(filepath)s",
		"--progress-template",
	} {
		if !strings.Contains(args, want) {
			t.Errorf("expected %q in args:\n%s", want, args)
		}
	}
	if strings.Contains(args, "--dump-single-json") {
		t.Errorf("did not expect metadata flags during download:\n%s", args)
	}
}

func TestDownloadAudioAndSubtitleFlags(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs are not supported on windows")
	}
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	bin := testsupport.StubBinary(t, dir, "yt-dlp", `#!/bin/sh
for arg in "$@"; do echo "$arg" >> "`+argsFile+`"; done
echo 'progress:{"info":{"id":"s1"},"progress":{"status":"finished","filename":"/out/Song.webm","downloaded_bytes":300,"total_bytes":300}}'
echo '[ExtractAudio] Destination: /out/Song.m4a'
echo 'mediakit-saved:/out/Song.m4a'
echo 'mediakit-saved:/out/Song.m4a'
`)
	client := newTestClient(Config{Binary: bin})

	opts := Options{
		Format: "bestaudio/best",
		PostProcessors: []PostProcessor{
			{Key: PostProcessorExtractAudio, PreferredCodec: "m4a", PreferredQuality: "320"},
		},
		MergeOutputFormat: "mp4",
		WriteSubtitles:    true,
		WriteAutomaticSub: true,
		SubtitlesLangs:    []string{"en", "de"},
		EmbedSubs:         true,
		PostProcessorArgs: map[string][]string{"ffmpeg": {"-c:s", "mov_text"}},
	}
	result, err := client.Download(context.Background(), opts, "https://example.com/v/2", nil)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if len(result.Files) != 1 || result.Files[0] != "/out/Song.m4a" {
		t.Fatalf("expected the extracted audio file once, got %v", result.Files)
	}

	raw, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	args := string(raw)
	for _, want := range []string{
		"--extract-audio",
		"--audio-format\nm4a",
		"--audio-quality\n320K",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs\nen,de",
		"--embed-subs",
		"--postprocessor-args\nffmpeg:-c:s mov_text",
	} {
		if !strings.Contains(args, want) {
			t.Errorf("expected %q in args:\n%s", want, args)
		}
	}
	if strings.Contains(args, "--merge-output-format") {
		t.Errorf("audio extraction must not pass --merge-output-format:\n%s", args)
	}
}

func TestDownloadIgnoreErrorsCollectsFailures(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs are not supported on windows")
	}
	bin := testsupport.StubBinary(t, t.TempDir(), "yt-dlp", `#!/bin/sh
echo 'mediakit-saved:/out/One.mp4'
echo 'ERROR: [youtube] b: Video unavailable' >&2
echo 'WARNING: skipping' >&2
echo 'ERROR: [youtube] c: Private video' >&2
exit 1
`)
	client := newTestClient(Config{Binary: bin})

	result, err := client.Download(context.Background(), Options{IgnoreErrors: true}, "https://example.com/list", nil)
	if err != nil {
		t.Fatalf("expected failures to be collected, got error %v", err)
	}
	if len(result.Files) != 1 || result.Files[0] != "/out/One.mp4" {
		t.Fatalf("unexpected files %v", result.Files)
	}
	want := []string{"ERROR: [youtube] b: Video unavailable", "ERROR: [youtube] c: Private video"}
	if len(result.Failures) != len(want) {
		t.Fatalf("expected failures %v, got %v", want, result.Failures)
	}
	for i := range want {
		if result.Failures[i] != want[i] {
			t.Fatalf("expected failures %v, got %v", want, result.Failures)
		}
	}
}

func TestDownloadFailureWithoutIgnoreErrors(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs are not supported on windows")
	}
	bin := testsupport.StubBinary(t, t.TempDir(), "yt-dlp", `#!/bin/sh
echo 'ERROR: [generic] Unable to download webpage: HTTP Error 404' >&2
exit 1
`)
	client := newTestClient(Config{Binary: bin})

	result, err := client.Download(context.Background(), Options{}, "https://example.com/missing", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "HTTP Error 404") {
		t.Fatalf("expected yt-dlp error line, got %q", err.Error())
	}
	if len(result.Failures) != 0 {
		t.Fatalf("failures are only collected with ignoreerrors, got %v", result.Failures)
	}
}

func TestDownloadTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs are not supported on windows")
	}
	bin := testsupport.StubBinary(t, t.TempDir(), "yt-dlp", "#!/bin/sh\nexec sleep 5\n")
	client := newTestClient(Config{Binary: bin, Timeout: 100 * time.Millisecond})

	_, err := client.Download(context.Background(), Options{}, "https://example.com/v/1", nil)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestSavedFiles(t *testing.T) {
	stdout := "[Merger] Merging formats into \"/out/A.mp4\"\nmediakit-saved:/out/A.mp4\n\nmediakit-saved:/out/B C.mp4\nmediakit-saved:/out/A.mp4\n"
	got := savedFiles(stdout)
	if len(got) != 2 || got[0] != "/out/A.mp4" || got[1] != "/out/B C.mp4" {
		t.Fatalf("unexpected saved files %v", got)
	}
	if got := savedFiles(""); len(got) != 0 {
		t.Fatalf("expected no files, got %v", got)
	}
}
