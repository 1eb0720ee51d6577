// Package discovery provides mDNS-based discovery of WLED lighting controllers.
//
// WLED devices advertise themselves as "_wled._tcp" services in the "local."
// domain. A Scanner listens for these advertisements for a bounded window and
// returns every unique device it heard from.
//
// # Discovery Process
//
//  1. Opens a zeroconf resolver (binds the multicast sockets)
//  2. Browses for "_wled._tcp.local." until the window elapses
//  3. Converts each resolved entry into a Device (IPv4 preferred)
//  4. Deduplicates devices by address and port in a Registry
//  5. Returns the devices, ordered by address
//
// Finding no device is a valid outcome. Failing to open or use the listener is
// reported as a *DiscoveryError, which callers treat as fatal.
//
// # Usage Example
//
//	devices, err := discovery.Discover(ctx, 10*time.Second)
//	if err != nil {
//	    return err
//	}
//	for _, device := range devices {
//	    fmt.Printf("Found: %s at %s\n", device.Instance, device.Key())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Devices must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
