// Package format renders reports as bounded plain-text summaries suitable
// for a push message.
//
// Output is deterministic: top-level fields and nested keys are emitted in
// sorted order, long arrays are previewed, and the whole text is capped at
// Options.MaxLength runes.
package format
