// Command vidget downloads video and audio with yt-dlp.
//
// Flags are translated into a yt-dlp option dictionary (format selection,
// audio extraction, subtitles, playlist ranges) which --dry-run prints
// instead of running. yt-dlp is resolved from the config, PATH, or the
// go-ytdlp cache; `vidget install` fetches it.
package main
