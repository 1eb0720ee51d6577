// Package urls provides centralized constants for the documentation URLs
// printed by the CLI.
//
// Usage:
//
//	import "github.com/muurk/wled-backup/internal/urls"
//
//	fmt.Printf("Artifact formats: %s\n", urls.JSONAPI)
package urls
