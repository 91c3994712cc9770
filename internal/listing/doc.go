// Package listing builds the marketing content for one property: the
// collected property record, the narration script, the slide deck outline,
// and the publish title and description.
package listing
