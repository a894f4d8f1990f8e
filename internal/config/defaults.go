package config

const (
	defaultConfigPath      = "~/.config/mediakit/config.toml"
	defaultLogFormat       = "console"
	defaultLogLevel        = "warn"
	defaultPythonBinary    = "python3"
	defaultBGRemoveOutput  = "./output"
	defaultBatchSize       = 5
	defaultProbeWorkers    = 4
	defaultYTDLPBinary     = "yt-dlp"
	defaultYTDLPOutputDir  = "~/Downloads/videos"
	defaultYTDLPTimeoutSec = 0
)

// DefaultSubtitleLanguages are requested when subtitles are enabled and the
// config does not list any.
var DefaultSubtitleLanguages = []string{"en", "zh-CN", "zh-TW", "ja", "ko"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		BGRemove: BGRemove{
			PythonBinary: defaultPythonBinary,
			Output:       defaultBGRemoveOutput,
			BatchSize:    defaultBatchSize,
			ProbeWorkers: defaultProbeWorkers,
		},
		YTDLP: YTDLP{
			Binary:            defaultYTDLPBinary,
			OutputDir:         defaultYTDLPOutputDir,
			SubtitleLanguages: append([]string(nil), DefaultSubtitleLanguages...),
			TimeoutSeconds:    defaultYTDLPTimeoutSec,
		},
	}
}
