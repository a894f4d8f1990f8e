// Package ytdlp drives yt-dlp through github.com/lrstanley/go-ytdlp.
//
// Options mirrors the yt-dlp option dictionary and is translated onto the
// go-ytdlp command builder. Client resolves the executable (configured path,
// PATH, or the go-ytdlp cache), extracts metadata, and runs downloads with
// progress callbacks.
package ytdlp
