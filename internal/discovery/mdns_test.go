package discovery

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func wledEntry(instance, ip string, port int) *zeroconf.ServiceEntry {
	entry := zeroconf.NewServiceEntry(instance, ServiceType, ServiceDomain)
	entry.HostName = instance + ".local."
	entry.Port = port
	entry.AddrIPv4 = []net.IP{net.ParseIP(ip)}
	return entry
}

// fakeBrowser replays entries and closes the channel when the context ends,
// the way the zeroconf resolver does.
type fakeBrowser struct {
	entries    []*zeroconf.ServiceEntry
	err        error
	flood      bool // keep re-sending entries until the context ends
	neverClose bool // never close the entry channel

	gotService string
	gotDomain  string
}

func (b *fakeBrowser) Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	b.gotService = service
	b.gotDomain = domain
	if b.err != nil {
		return b.err
	}

	go func() {
		for {
			for _, e := range b.entries {
				select {
				case entries <- e:
				case <-ctx.Done():
					b.finish(entries)
					return
				}
			}
			if !b.flood {
				break
			}
		}
		<-ctx.Done()
		b.finish(entries)
	}()
	return nil
}

func (b *fakeBrowser) finish(entries chan<- *zeroconf.ServiceEntry) {
	if !b.neverClose {
		close(entries)
	}
}

func scannerWith(b Browser) *Scanner {
	s := NewScanner()
	s.NewBrowser = func() (Browser, error) { return b, nil }
	return s
}

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name         string
		entry        *zeroconf.ServiceEntry
		wantNil      bool
		wantInstance string
		wantIP       string
		wantPort     int
	}{
		{
			name:         "valid device with IPv4",
			entry:        wledEntry("wled-kitchen", "192.168.1.42", 80),
			wantInstance: "wled-kitchen",
			wantIP:       "192.168.1.42",
			wantPort:     80,
		},
		{
			name:         "valid device with custom port",
			entry:        wledEntry("wled-porch", "192.168.1.100", 8080),
			wantInstance: "wled-porch",
			wantIP:       "192.168.1.100",
			wantPort:     8080,
		},
		{
			name:         "device with no port specified (should default to 80)",
			entry:        wledEntry("wled-desk", "172.16.0.1", 0),
			wantInstance: "wled-desk",
			wantIP:       "172.16.0.1",
			wantPort:     80,
		},
		{
			name: "IPv6 only device",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "wled-v6"},
				Port:          80,
				AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
			},
			wantInstance: "wled-v6",
			wantIP:       "fe80::1",
			wantPort:     80,
		},
		{
			name: "device with both IPv4 and IPv6 (should prefer IPv4)",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "wled-dual"},
				Port:          80,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6:      []net.IP{net.ParseIP("fe80::2")},
			},
			wantInstance: "wled-dual",
			wantIP:       "192.168.1.50",
			wantPort:     80,
		},
		{
			name: "no IP address",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "wled-ghost"},
				Port:          80,
			},
			wantNil: true,
		},
		{
			name: "empty instance",
			entry: &zeroconf.ServiceEntry{
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if device != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", device)
				}
				return
			}

			if device == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil device")
			}
			if device.Instance != tt.wantInstance {
				t.Errorf("device.Instance = %v, want %v", device.Instance, tt.wantInstance)
			}
			if device.IP != tt.wantIP {
				t.Errorf("device.IP = %v, want %v", device.IP, tt.wantIP)
			}
			if device.Port != tt.wantPort {
				t.Errorf("device.Port = %v, want %v", device.Port, tt.wantPort)
			}
			if time.Since(device.DiscoveredAt) > time.Second {
				t.Errorf("device.DiscoveredAt is not recent: %v", device.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	scanner := NewScanner()

	entry := wledEntry("wled-kitchen", "192.168.1.42", 80)
	entry.Text = []string{"mac=a8032a0b1c2d", "flag"}

	device := scanner.parseServiceEntry(entry)
	if device == nil {
		t.Fatal("parseServiceEntry() = nil, want device")
	}

	if got := device.Metadata["mac"]; got != "a8032a0b1c2d" {
		t.Errorf("device.Metadata[mac] = %q, want a8032a0b1c2d", got)
	}
	if got, ok := device.Metadata["flag"]; !ok || got != "" {
		t.Errorf("device.Metadata[flag] = %q (present %v), want empty value", got, ok)
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner.Service != "_wled._tcp" {
		t.Errorf("scanner.Service = %v, want _wled._tcp", scanner.Service)
	}
	if scanner.Domain != "local." {
		t.Errorf("scanner.Domain = %v, want local.", scanner.Domain)
	}
	if scanner.NewBrowser == nil {
		t.Error("scanner.NewBrowser should not be nil")
	}
}

func TestScanner_Discover_DeduplicatesAdvertisements(t *testing.T) {
	browser := &fakeBrowser{
		entries: []*zeroconf.ServiceEntry{
			wledEntry("wled-a", "192.168.1.10", 80),
			wledEntry("wled-b", "192.168.1.11", 80),
			wledEntry("wled-a", "192.168.1.10", 80),
		},
	}

	devices, err := scannerWith(browser).Discover(context.Background(), 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("Discover() returned %d devices, want 2", len(devices))
	}
	if devices[0].Instance != "wled-a" || devices[1].Instance != "wled-b" {
		t.Errorf("Discover() = [%s %s], want [wled-a wled-b]", devices[0].Instance, devices[1].Instance)
	}
	if browser.gotService != ServiceType || browser.gotDomain != ServiceDomain {
		t.Errorf("Browse(%q, %q), want (%q, %q)", browser.gotService, browser.gotDomain, ServiceType, ServiceDomain)
	}
}

func TestScanner_Discover_NoDevices(t *testing.T) {
	devices, err := scannerWith(&fakeBrowser{}).Discover(context.Background(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Discover() error = %v, want nil", err)
	}
	if len(devices) != 0 {
		t.Errorf("Discover() returned %d devices, want 0", len(devices))
	}
}

func TestScanner_Discover_ListenerFailure(t *testing.T) {
	bindErr := errors.New("listen udp4 224.0.0.251:5353: bind: address already in use")

	tests := []struct {
		name    string
		scanner *Scanner
	}{
		{
			name: "resolver cannot be created",
			scanner: &Scanner{
				Service:    ServiceType,
				Domain:     ServiceDomain,
				NewBrowser: func() (Browser, error) { return nil, bindErr },
			},
		},
		{
			name:    "browse fails",
			scanner: scannerWith(&fakeBrowser{err: bindErr}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			devices, err := tt.scanner.Discover(context.Background(), time.Second)
			if err == nil {
				t.Fatal("Discover() error = nil, want DiscoveryError")
			}

			var discErr *DiscoveryError
			if !errors.As(err, &discErr) {
				t.Fatalf("Discover() error = %T, want *DiscoveryError", err)
			}
			if !errors.Is(err, bindErr) {
				t.Errorf("Discover() error does not wrap the listener error: %v", err)
			}
			if devices != nil {
				t.Errorf("Discover() devices = %v, want nil", devices)
			}
		})
	}
}

func TestScanner_Discover_WindowIsHardBound(t *testing.T) {
	// A resolver that floods advertisements and never closes its channel
	browser := &fakeBrowser{
		entries:    []*zeroconf.ServiceEntry{wledEntry("wled-a", "192.168.1.10", 80)},
		flood:      true,
		neverClose: true,
	}

	window := 200 * time.Millisecond
	start := time.Now()
	devices, err := scannerWith(browser).Discover(context.Background(), window)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(devices) != 1 {
		t.Errorf("Discover() returned %d devices, want 1", len(devices))
	}

	limit := window + drainGrace + 250*time.Millisecond
	if elapsed > limit {
		t.Errorf("Discover() took %v, want at most %v", elapsed, limit)
	}
	if elapsed < window {
		t.Errorf("Discover() returned after %v, before the %v window elapsed", elapsed, window)
	}
}

func TestScanner_Discover_ParentCancelled(t *testing.T) {
	browser := &fakeBrowser{
		entries: []*zeroconf.ServiceEntry{wledEntry("wled-a", "192.168.1.10", 80)},
	}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	devices, err := scannerWith(browser).Discover(ctx, 10*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Discover() error = %v, want context.Canceled", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("Discover() did not return promptly after cancellation")
	}
	if len(devices) != 1 {
		t.Errorf("Discover() returned %d devices, want the 1 collected before cancellation", len(devices))
	}
}

// lateBrowser behaves like a zeroconf resolver that is still resolving an
// answer when the window closes: it sends one more entry without watching
// the context and only then closes the channel.
type lateBrowser struct {
	delay time.Duration
	sent  chan struct{}
}

func (b *lateBrowser) Browse(ctx context.Context, _, _ string, entries chan<- *zeroconf.ServiceEntry) error {
	go func() {
		entries <- wledEntry("wled-a", "192.168.1.10", 80)
		<-ctx.Done()
		time.Sleep(b.delay)
		entries <- wledEntry("wled-late", "192.168.1.99", 80)
		close(entries)
		close(b.sent)
	}()
	return nil
}

func TestScanner_Discover_LateEntryDoesNotBlockResolver(t *testing.T) {
	browser := &lateBrowser{delay: drainGrace + 200*time.Millisecond, sent: make(chan struct{})}

	devices, err := scannerWith(browser).Discover(context.Background(), 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(devices) != 1 || devices[0].Instance != "wled-a" {
		t.Fatalf("Discover() = %v, want only wled-a", devices)
	}

	select {
	case <-browser.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("resolver blocked sending an entry after Discover returned")
	}
}
