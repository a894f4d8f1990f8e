// Package history persists a record of every bgremove and vidget run in a
// SQLite database under the configured data directory.
//
// A run is opened with Begin before the engine is invoked and closed with
// Finish once it returns. The `history` subcommand of both tools reads the
// table back through List.
package history
