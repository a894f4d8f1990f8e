// Package preflight provides readiness checks for the external engines and
// filesystem paths that mediakit depends on.
//
// The `doctor` subcommand of each tool calls RunAll and renders the results.
// Checks never install or download anything: a missing yt-dlp is reported
// even when auto_install is enabled so the user sees what a run would fetch.
package preflight
