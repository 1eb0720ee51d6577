package snapshot

import (
	"strconv"
	"strings"
	"time"

	"github.com/muurk/wled-backup/internal/discovery"
	"github.com/muurk/wled-backup/internal/wled"
)

// TimestampFormat is the UTC run timestamp embedded in every file name
const TimestampFormat = "20060102T150405.000Z"

// FileName returns the backup file name for one artifact of one device:
//
//	<name>_<ip>-<port>_<timestamp>_<artifact>.json
//
// name is the device's self-reported name, or its mDNS instance when the
// name is unknown. Distinct devices never share a name because the address
// and port are part of it; distinct runs never share a name because the run
// timestamp is.
func FileName(device *discovery.Device, runAt time.Time, artifact wled.Artifact) string {
	name := sanitize(device.Name)
	if name == "" {
		name = sanitize(device.Instance)
	}
	if name == "" {
		name = "wled"
	}

	parts := []string{
		name,
		sanitize(device.IP) + "-" + strconv.Itoa(device.Port),
		runAt.UTC().Format(TimestampFormat),
		sanitize(string(artifact)),
	}
	return strings.Join(parts, "_") + ".json"
}

// sanitize keeps [A-Za-z0-9.-] and replaces everything else with '-'.
// Underscore is reserved as the component separator, and IPv6 colons and
// path separators must never reach the file system.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), ".")
}
