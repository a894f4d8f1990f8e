// Package bgremove turns bgremove command-line options into a CarveKit job.
//
// It validates options, maps mode and quality onto HiInterface parameters,
// discovers input images, plans output names, and runs the engine once for
// the whole list while recording the run in history. The engine itself is
// behind the Engine interface; internal/services/carvekit provides the real
// implementation.
package bgremove
