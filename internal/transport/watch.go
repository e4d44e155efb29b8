package transport

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/useradmin/internal/model"
)

const (
	eventsPath       = "users/events"
	handshakeTimeout = 10 * time.Second
	eventBuffer      = 16
)

// EventsURL returns the WebSocket URL of the change feed.
func (c *Client) EventsURL() string {
	u := c.baseURL.ResolveReference(&url.URL{Path: eventsPath})
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String()
}

// Watch subscribes to the change feed. The returned channel is closed when
// ctx is done or the connection drops.
func (c *Client) Watch(ctx context.Context) (<-chan model.ChangeEvent, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	conn, resp, err := dialer.DialContext(ctx, c.EventsURL(), nil)
	if err != nil {
		if resp != nil {
			return nil, &Error{Status: resp.StatusCode, Err: fmt.Errorf("dial change feed: %w", err)}
		}
		return nil, requestError("dial change feed", err)
	}

	c.logger.Debug("change feed connected", zap.String("url", c.EventsURL()))

	events := make(chan model.ChangeEvent, eventBuffer)
	done := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	go func() {
		defer close(events)
		defer close(done)
		defer func() { _ = conn.Close() }()

		for {
			var event model.ChangeEvent
			if err := conn.ReadJSON(&event); err != nil {
				if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.logger.Warn("change feed closed", zap.Error(err))
				}
				return
			}

			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}
