package wled

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/muurk/wled-backup/internal/discovery"
)

// Fetcher retrieves artifacts from discovered devices, sharing one HTTP
// client (and its connection pool) across devices. Timeouts come from the
// caller's context.
type Fetcher struct {
	HTTPClient *http.Client
	Dialer     *websocket.Dialer
}

// NewFetcher creates a Fetcher with its own transport
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
		Dialer:     &websocket.Dialer{Proxy: http.ProxyFromEnvironment},
	}
}

// Fetch retrieves one artifact from the device
func (f *Fetcher) Fetch(ctx context.Context, device *discovery.Device, artifact Artifact) ([]byte, error) {
	client := NewClientWithURL(device.BaseURL())
	if f.HTTPClient != nil {
		client.HTTPClient = f.HTTPClient
	}
	if f.Dialer != nil {
		client.Dialer = f.Dialer
	}
	return client.Fetch(ctx, artifact)
}

// CloseIdleConnections releases pooled connections once a run is done
func (f *Fetcher) CloseIdleConnections() {
	if f.HTTPClient != nil {
		f.HTTPClient.CloseIdleConnections()
	}
}
