// Package realtime keeps an actor's websocket subscription to timeline events.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/totegamma/concrnt-loadtest"
)

const (
	listenType       = "listen"
	handshakeTimeout = 10 * time.Second
	closeGracePeriod = time.Second
)

// FrameHandler receives every frame the server pushes. messageType is websocket.TextMessage
// or websocket.BinaryMessage.
type FrameHandler func(messageType int, data []byte)

// NopHandler discards inbound frames.
func NopHandler(int, []byte) {}

type Dialer struct {
	url     string
	dialer  *websocket.Dialer
	handler FrameHandler
}

func NewDialer(url string, handler FrameHandler) *Dialer {
	if handler == nil {
		handler = NopHandler
	}
	return &Dialer{
		url: url,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: handshakeTimeout,
		},
		handler: handler,
	}
}

// Dial returns once the connection is open.
func (d *Dialer) Dial(ctx context.Context) (*Subscription, error) {
	conn, resp, err := d.dialer.DialContext(ctx, d.url, nil)
	if err != nil {
		if resp != nil {
			return nil, errors.Wrapf(err, "failed to open realtime stream (status %d)", resp.StatusCode)
		}
		return nil, errors.Wrap(err, "failed to open realtime stream")
	}

	s := &Subscription{
		conn:    conn,
		handler: d.handler,
		done:    make(chan struct{}),
	}
	go s.readPump()
	return s, nil
}

// Subscription is one open realtime connection. Listen and Close must be called from a
// single goroutine; inbound frames are handled on an internal one.
type Subscription struct {
	conn      *websocket.Conn
	handler   FrameHandler
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func (s *Subscription) readPump() {
	defer close(s.done)
	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		s.handler(messageType, data)
	}
}

// Listen subscribes to channels.
func (s *Subscription) Listen(channels []string) error {
	if channels == nil {
		channels = []string{}
	}
	err := s.conn.WriteJSON(concrnt.ListenRequest{
		Type:     listenType,
		Channels: channels,
	})
	if err != nil {
		return errors.Wrap(err, "failed to send listen frame")
	}
	return nil
}

// Close performs a normal closure. Later calls are no-ops.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))

		select {
		case <-s.done:
		case <-time.After(closeGracePeriod):
		}

		s.closeErr = s.conn.Close()
		<-s.done
	})
	return s.closeErr
}
