package wled

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/wled-backup/internal/discovery"
	"github.com/muurk/wled-backup/internal/logging"
	"github.com/muurk/wled-backup/internal/version"
)

const (
	// DefaultTimeout is the default HTTP request timeout when the caller's
	// context carries no deadline
	DefaultTimeout = 10 * time.Second

	// MaxPayloadSize caps the size of a single artifact. WLED keeps its
	// configuration in a few kilobytes of flash; anything larger is not a
	// WLED response.
	MaxPayloadSize = 4 << 20

	// StatePath is the websocket endpoint that pushes the device state
	StatePath = "/ws"
)

// Client retrieves configuration documents from a single WLED device.
// It only issues GET requests and websocket reads; it has no way to change
// device settings.
type Client struct {
	// BaseURL is the base URL for the device (e.g., "http://192.168.1.42:80")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// Dialer opens the state websocket
	Dialer *websocket.Dialer
}

// NewClient creates a new device client
// ip: Device IP address (e.g., "192.168.1.42")
// port: Device HTTP port (typically 80)
func NewClient(ip string, port int) *Client {
	return NewClientWithURL((&discovery.Device{IP: ip, Port: port}).BaseURL())
}

// NewClientWithURL creates a new client with a full base URL
// baseURL: Full base URL (e.g., "http://192.168.1.42:80")
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		Dialer:     &websocket.Dialer{HandshakeTimeout: DefaultTimeout, Proxy: http.ProxyFromEnvironment},
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// Fetch retrieves one artifact, validated but otherwise verbatim
func (c *Client) Fetch(ctx context.Context, artifact Artifact) ([]byte, error) {
	start := time.Now()

	var (
		payload []byte
		err     error
	)
	switch artifact {
	case ArtifactConfig:
		payload, err = c.Config(ctx)
	case ArtifactPresets:
		payload, err = c.Presets(ctx)
	case ArtifactState:
		payload, err = c.State(ctx)
	default:
		return nil, fmt.Errorf("unknown artifact %q", artifact)
	}
	if err != nil {
		return nil, c.annotate(err, artifact)
	}

	logging.LogFetch(c.host(), string(artifact), len(payload), time.Since(start))
	return payload, nil
}

// Config retrieves /cfg.json. The payload must carry a non-blank id.name.
func (c *Client) Config(ctx context.Context) ([]byte, error) {
	body, err := c.get(ctx, ArtifactConfig.Path())
	if err != nil {
		return nil, err
	}
	if _, err := DeviceName(body); err != nil {
		return nil, err
	}
	return body, nil
}

// Presets retrieves /presets.json
func (c *Client) Presets(ctx context.Context) ([]byte, error) {
	body, err := c.get(ctx, ArtifactPresets.Path())
	if err != nil {
		return nil, err
	}
	if err := validateJSON(ArtifactPresets, body); err != nil {
		return nil, err
	}
	return body, nil
}

// get performs a single GET request and returns the response body
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, NewNetworkError("failed to create GET request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, NewNetworkError("GET request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Drain a little so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("GET %s returned status %d", path, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxPayloadSize+1))
	if err != nil {
		return nil, NewNetworkError("failed to read response body", err)
	}
	if len(body) > MaxPayloadSize {
		return nil, NewParseError(fmt.Sprintf("response to GET %s exceeds %d bytes", path, MaxPayloadSize), nil)
	}

	return body, nil
}

// annotate records the device and artifact on a FetchError
func (c *Client) annotate(err error, artifact Artifact) error {
	if fetchErr, ok := err.(*FetchError); ok {
		fetchErr.Device = c.host()
		fetchErr.Artifact = artifact
		return fetchErr
	}
	return err
}

// host returns the host:port part of BaseURL
func (c *Client) host() string {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return c.BaseURL
	}
	return u.Host
}
