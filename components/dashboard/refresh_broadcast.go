package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const subscriberBuffer = 16

// EventFilter selects which widget events a subscriber receives. A nil filter matches everything.
type EventFilter func(WidgetEvent) bool

// ForWidget matches events of a single widget instance.
func ForWidget(widgetID string) EventFilter {
	return func(event WidgetEvent) bool {
		return widgetID == "" || event.WidgetID == widgetID
	}
}

// BroadcastHook fans widget events out to in-process subscribers. Slow
// subscribers drop events instead of blocking the widget refresh.
type BroadcastHook struct {
	Logger zerolog.Logger

	mu     sync.RWMutex
	subs   map[int]subscriber
	next   int
	closed bool
}

type subscriber struct {
	ch     chan WidgetEvent
	filter EventFilter
}

// NewBroadcastHook creates a broadcast hook.
func NewBroadcastHook() *BroadcastHook {
	return &BroadcastHook{subs: make(map[int]subscriber)}
}

// WidgetUpdated satisfies RefreshHook.
func (h *BroadcastHook) WidgetUpdated(_ context.Context, event WidgetEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, sub := range h.subs {
		if sub.filter != nil && !sub.filter(event) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			h.Logger.Debug().Int("subscriber", id).Str("widget_id", event.WidgetID).Msg("dropping widget event for slow subscriber")
		}
	}
	return nil
}

// Subscribe returns a channel of widget events and a cancel func.
func (h *BroadcastHook) Subscribe(filter EventFilter) (<-chan WidgetEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan WidgetEvent, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.next
	h.next++
	h.subs[id] = subscriber{ch: ch, filter: filter}
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub.ch)
		}
	}
	return ch, cancel
}

// Subscribers reports the number of live subscriptions.
func (h *BroadcastHook) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription.
func (h *BroadcastHook) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.ch)
	}
	h.closed = true
}

// Stream forwards events matching filter to send until ctx ends or the hook
// closes. A send error stops it early.
func (h *BroadcastHook) Stream(ctx context.Context, filter EventFilter, send func(WidgetEvent) error) error {
	events, cancel := h.Subscribe(filter)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := send(event); err != nil {
				return err
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the request and streams widget events as JSON. The
// "widget" query parameter narrows the stream to one widget.
func (h *BroadcastHook) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	filter := ForWidget(r.URL.Query().Get("widget"))
	err = h.Stream(r.Context(), filter, func(event WidgetEvent) error {
		return conn.WriteJSON(event)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		h.Logger.Debug().Err(err).Msg("websocket stream closed")
	}
}

// ServeSSE provides a Server-Sent Events endpoint for widget events.
func (h *BroadcastHook) ServeSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	filter := ForWidget(r.URL.Query().Get("widget"))
	_ = h.Stream(r.Context(), filter, func(event WidgetEvent) error {
		if err := writeSSE(w, event); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
}

func writeSSE(w http.ResponseWriter, event WidgetEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Reason, payload)
	return err
}
