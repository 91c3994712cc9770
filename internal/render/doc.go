// Package render holds the media capabilities the pipeline delegates to:
// narration audio, slide frames, thumbnails and final video composition.
//
// Each capability is a small interface with a real implementation and a
// mock that writes a deterministic placeholder artifact. The Registry picks
// one implementation per capability when it is constructed so callers never
// branch on what is installed.
package render
