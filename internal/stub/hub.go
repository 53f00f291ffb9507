package stub

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/totegamma/concrnt-loadtest"
)

type subscriber struct {
	conn     *websocket.Conn
	writeMu  sync.Mutex
	channels map[string]struct{}
}

// hub fans committed items out to realtime subscribers listening on their timeline.
type hub struct {
	handler *Handler

	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

func newHub(h *Handler) *hub {
	return &hub{handler: h, subs: make(map[*subscriber]struct{})}
}

func (b *hub) serve(conn *websocket.Conn) {
	sub := &subscriber{conn: conn, channels: map[string]struct{}{}}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.subs, sub)
		b.mu.Unlock()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.handler.count(func(s *Stats) { s.Closes++ })
			}
			return
		}

		var req concrnt.ListenRequest
		if err := json.Unmarshal(data, &req); err != nil {
			b.handler.logger.Debug("invalid realtime frame", zap.Error(err))
			continue
		}
		if req.Type != "listen" {
			continue
		}

		b.handler.count(func(s *Stats) { s.Listens = append(s.Listens, req.Channels) })

		channels := make(map[string]struct{}, len(req.Channels))
		for _, ch := range req.Channels {
			channels[ch] = struct{}{}
		}
		b.mu.Lock()
		sub.channels = channels
		b.mu.Unlock()
	}
}

func (b *hub) publish(items []concrnt.TimelineItem) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, item := range items {
		item := item
		event, err := json.Marshal(concrnt.Event{Timeline: item.TimelineID, Item: &item})
		if err != nil {
			continue
		}
		for sub := range b.subs {
			if _, ok := sub.channels[item.TimelineID]; !ok {
				continue
			}
			sub.writeMu.Lock()
			err := sub.conn.WriteMessage(websocket.TextMessage, event)
			sub.writeMu.Unlock()
			if err != nil {
				b.handler.logger.Debug("failed to push event", zap.Error(err))
			}
		}
	}
}
