package wled

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/muurk/wled-backup/internal/version"
)

// State reads the JSON document a WLED device pushes to every new websocket
// client. Nothing is sent to the device; the connection is closed after the
// first text message.
func (c *Client) State(ctx context.Context) ([]byte, error) {
	wsURL, err := c.stateURL()
	if err != nil {
		return nil, NewNetworkError("invalid websocket URL", err)
	}

	dialer := c.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	header := http.Header{"User-Agent": []string{version.UserAgent()}}
	conn, resp, err := dialer.DialContext(ctx, wsURL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("websocket handshake returned status %d", resp.StatusCode))
		}
		return nil, NewNetworkError("websocket dial failed", err)
	}
	defer func() { _ = conn.Close() }()

	// Unblock the read below if the context ends first
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}
	conn.SetReadLimit(MaxPayloadSize)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, NewNetworkError("websocket read interrupted", ctxErr)
			}
			return nil, NewNetworkError("websocket read failed", err)
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if err := validateJSON(ArtifactState, data); err != nil {
			return nil, err
		}
		return data, nil
	}
}

// stateURL derives the websocket URL from BaseURL
func (c *Client) stateURL() (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = StatePath
	return u.String(), nil
}
