package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Device represents a WLED controller discovered on the network
type Device struct {
	// Instance is the advertised mDNS instance name (e.g., "wled-kitchen")
	Instance string

	// Name is the name the controller reports in cfg.json (e.g., "Kitchen").
	// Empty until the configuration has been fetched.
	Name string

	// Hostname is the mDNS hostname (e.g., "wled-kitchen.local.")
	Hostname string

	// IP is the advertised address, IPv4 when available (e.g., "192.168.1.42")
	IP string

	// Port is the HTTP port (typically 80)
	Port int

	// Metadata contains the mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the device was first seen during the run
	DiscoveredAt time.Time
}

// Key returns the uniqueness key of the device: its address and port.
func (d *Device) Key() string {
	return net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("WLED %s at %s", d.Instance, d.Key())
}

// BaseURL returns the HTTP base URL for the device
func (d *Device) BaseURL() string {
	return "http://" + d.Key()
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
