// Package vidget turns vidget command-line options into a yt-dlp option
// dictionary and runs the download.
//
// Metadata is always extracted first so the command can print the title,
// answer --json without downloading, and fail early on unsupported URLs.
package vidget
