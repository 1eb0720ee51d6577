// Package snapshot persists device artifacts as backup files.
//
// Each artifact of each device becomes one file in the output directory:
//
//	<instance>_<ip>-<port>_<UTC timestamp>_<artifact>.json
//
// Files are written to a hidden temp file, synced, and then hard-linked
// into place, so a reader never sees a partially written backup and an
// existing backup is never replaced. Optionally every published file is
// mirrored to an S3-compatible bucket.
package snapshot
