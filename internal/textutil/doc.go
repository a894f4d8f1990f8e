// Package textutil provides file name helpers shared by both tools.
//
// The primary use cases are:
//   - Normalizing user-supplied names to Unicode NFC so names that differ only
//     in composition compare equal
//   - Reducing arbitrary strings to lowercase filesystem-safe tokens
package textutil
