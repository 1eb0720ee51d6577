package ui

import (
	"fmt"
	"strings"

	"github.com/muurk/wled-backup/internal/discovery"
)

// RenderDevices lists discovered devices, one per line
func RenderDevices(devices []*discovery.Device, styled bool) string {
	if len(devices) == 0 {
		return "No WLED devices found\n"
	}

	var b strings.Builder
	for _, d := range devices {
		line := fmt.Sprintf("%-24s %-22s", d.Instance, d.Key())
		extra := d.Hostname
		if v := d.GetMetadata("ver"); v != "" {
			extra = strings.TrimSpace(extra + " v" + v)
		}
		if styled {
			b.WriteString(ValueStyle.Render(line) + " " + NoteStyle.Render(extra))
		} else {
			b.WriteString(strings.TrimRight(line+" "+extra, " "))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%d device(s) found\n", len(devices))
	return b.String()
}
