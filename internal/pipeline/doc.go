// Package pipeline turns one listing into a published marketing video.
//
// Run executes the ten stages in order (initialize, collect, script, slides,
// thumbnail, narration, subtitles, video, publish, finalize), reporting
// progress through a progress.Tracker at the start of each. Rendering
// backends that fail are replaced by their mock variants so a broken
// synthesizer or missing ffmpeg never aborts a run. Any other failure is
// caught once at the Run boundary and becomes a failure Result; when the run
// came from a queue row, exactly one final status is written back.
package pipeline
