// Package carvekit drives the CarveKit background-removal library through an
// embedded Python driver.
//
// The driver runs under the configured interpreter with two modes: probe
// reports library versions and CUDA availability, process reads a JSON job on
// stdin and emits one JSON event per line on stdout as results are saved.
// Import failures exit with a dedicated status so callers can tell a missing
// installation apart from a processing failure.
package carvekit
