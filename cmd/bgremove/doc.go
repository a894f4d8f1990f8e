// Command bgremove removes image backgrounds with CarveKit.
//
// It accepts a single image or a directory, maps --mode and --quality onto
// CarveKit's HiInterface parameters, and writes <name>_no_bg images into the
// output directory. The engine runs in the configured Python interpreter via
// an embedded driver script; see `bgremove doctor` to check that it imports.
package main
