// Package ui renders run summaries and device lists for the wled-backup CLI.
//
// On a terminal the summary is drawn as a Lipgloss box with colored
// succeeded/failed markers. When stdout is redirected (cron, systemd,
// containers) the same information is printed as plain lines.
package ui
