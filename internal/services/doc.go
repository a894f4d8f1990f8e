// Package services defines shared utilities consumed by the engine wrappers
// and the two command runners.
//
// Key responsibilities:
//   - Context helpers that stamp the history run ID and tool name for logging.
//   - Structured error markers plus the Wrap helper so engine failures carry
//     consistent context.
//   - Exit code mapping used by both main packages.
//
// Engine integrations live in subpackages: carvekit drives the Python
// background-removal library and ytdlp drives the yt-dlp downloader.
package services
