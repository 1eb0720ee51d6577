package discovery

import (
	"context"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/wled-backup/internal/logging"
)

const (
	// ServiceType is the mDNS service type WLED controllers advertise
	ServiceType = "_wled._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultSearchWindow is the default discovery window
	DefaultSearchWindow = 10 * time.Second

	// DefaultPort is the default HTTP port for WLED devices
	DefaultPort = 80

	// drainGrace bounds how long Discover waits for the resolver to close its
	// entry channel after the window has elapsed.
	drainGrace = 250 * time.Millisecond
)

// Browser is the part of a zeroconf resolver used for discovery.
// *zeroconf.Resolver satisfies it.
type Browser interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

// BrowserFactory opens a new Browser. Opening binds the multicast sockets.
type BrowserFactory func() (Browser, error)

// NewZeroconfBrowser opens a zeroconf resolver on all multicast interfaces
func NewZeroconfBrowser() (Browser, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, err
	}
	return resolver, nil
}

// Scanner handles mDNS device discovery
type Scanner struct {
	// Service is the mDNS service type to browse for
	Service string

	// Domain is the mDNS browse domain
	Domain string

	// NewBrowser opens the mDNS listener; defaults to NewZeroconfBrowser
	NewBrowser BrowserFactory
}

// NewScanner creates a new mDNS scanner for WLED devices
func NewScanner() *Scanner {
	return &Scanner{
		Service:    ServiceType,
		Domain:     ServiceDomain,
		NewBrowser: NewZeroconfBrowser,
	}
}

// Discover listens for WLED advertisements for the full window and returns
// the unique devices seen, ordered by address. No devices is not an error.
//
// A listener that cannot be opened or used yields a *DiscoveryError. If ctx is
// cancelled before the window elapses, the devices collected so far are
// returned together with ctx.Err().
func (s *Scanner) Discover(ctx context.Context, window time.Duration) ([]*Device, error) {
	newBrowser := s.NewBrowser
	if newBrowser == nil {
		newBrowser = NewZeroconfBrowser
	}

	browser, err := newBrowser()
	if err != nil {
		return nil, &DiscoveryError{Op: "create mDNS resolver", Err: err}
	}

	windowCtx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	registry := NewRegistry()
	entries := make(chan *zeroconf.ServiceEntry)
	drained := make(chan struct{})

	// The collector runs until the resolver closes entries, even after
	// Discover has returned. zeroconf sends entries without watching the
	// context, so a late entry must still be received for the resolver to
	// shut down. The registry is sealed by then and drops it.
	go func() {
		defer close(drained)
		for entry := range entries {
			device := s.parseServiceEntry(entry)
			if device == nil {
				continue
			}
			if registry.Add(device) {
				logging.LogDevice("Device discovered", device.Instance, device.Key())
			}
		}
	}()

	logging.Debug("Browsing for mDNS services",
		zap.String("service", s.Service),
		zap.String("domain", s.Domain),
		zap.Duration("window", window),
	)

	if err := browser.Browse(windowCtx, s.Service, s.Domain, entries); err != nil {
		return nil, &DiscoveryError{Op: "browse for mDNS services", Err: err}
	}

	<-windowCtx.Done()

	// The resolver closes entries once it sees the cancelled context. Do not
	// let a slow shutdown stretch the window.
	timer := time.NewTimer(drainGrace)
	select {
	case <-drained:
	case <-timer.C:
		logging.Debug("mDNS resolver did not close its entry channel in time")
	}
	timer.Stop()

	registry.Seal()
	devices := registry.Devices()

	if err := ctx.Err(); err != nil {
		return devices, err
	}
	return devices, nil
}

// parseServiceEntry converts a zeroconf service entry to a Device
// Returns nil if the entry cannot be reached (no instance or address)
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	if entry == nil || entry.Instance == "" {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// TXT records are in "key=value" format
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	return &Device{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// Discover is a convenience function to scan for WLED devices with the default scanner
func Discover(ctx context.Context, window time.Duration) ([]*Device, error) {
	return NewScanner().Discover(ctx, window)
}
