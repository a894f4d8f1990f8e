// Package cli holds the cobra plumbing shared by the bgremove and vidget
// binaries: lazy config and logger construction, the history, doctor, and
// config subcommands, and output helpers for tables, status lines, and JSON.
package cli
