package discovery

import (
	"sort"
	"sync"
)

// Registry accumulates the devices seen during one discovery run, keeping the
// first advertisement for each (address, port). Once sealed it rejects
// further additions.
type Registry struct {
	mu      sync.Mutex
	devices map[string]*Device
	sealed  bool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{devices: make(map[string]*Device)}
}

// Add records a device. It returns false if the device is nil, a device with
// the same key is already present, or the registry has been sealed.
func (r *Registry) Add(d *Device) bool {
	if d == nil {
		return false
	}

	key := d.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return false
	}
	if _, exists := r.devices[key]; exists {
		return false
	}
	r.devices[key] = d
	return true
}

// Seal stops the registry from accepting more devices.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Len returns the number of unique devices
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.devices)
}

// Devices returns the recorded devices ordered by key
func (r *Registry) Devices() []*Device {
	r.mu.Lock()
	devices := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		devices = append(devices, d)
	}
	r.mu.Unlock()

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].Key() < devices[j].Key()
	})
	return devices
}

// Dedupe returns devices with duplicate keys and nil entries removed, ordered by key.
func Dedupe(devices []*Device) []*Device {
	r := NewRegistry()
	for _, d := range devices {
		r.Add(d)
	}
	return r.Devices()
}
