// Package notify pushes appointment events to the dashboards of the users
// involved over websocket connections.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"appointment-booking-server/internal/models"
)

// ClientGauge is told how many streams are open after every change.
type ClientGauge interface {
	SetStreamClients(n int)
}

type delivery struct {
	userID string
	msg    []byte
}

// Hub tracks open streams per user. All map access happens on the Run goroutine.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	done       chan struct{}

	total  atomic.Int64
	logger *slog.Logger
	gauge  ClientGauge
	origin string
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithGauge reports the open stream count to g.
func WithGauge(g ClientGauge) Option {
	return func(h *Hub) { h.gauge = g }
}

// WithAllowedOrigin restricts browser upgrades to origin.
func WithAllowedOrigin(origin string) Option {
	return func(h *Hub) { h.origin = origin }
}

// NewHub creates a hub. Run must be started before streams are served.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		done:       make(chan struct{}),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "notify")
	return h
}

// Run serves registrations and deliveries until ctx is cancelled, then
// closes every open stream.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = map[string]map[*Client]struct{}{}
			h.setTotal(0)
			return
		case c := <-h.register:
			set, ok := h.clients[c.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[c.userID] = set
			}
			set[c] = struct{}{}
			h.setTotal(h.total.Load() + 1)
			h.logger.Debug("stream opened", "user_id", c.userID)
		case c := <-h.unregister:
			h.remove(c)
		case d := <-h.deliver:
			for c := range h.clients[d.userID] {
				select {
				case c.send <- d.msg:
				default:
					h.logger.Warn("dropping slow stream", "user_id", c.userID)
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(c *Client) {
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
	h.setTotal(h.total.Load() - 1)
	h.logger.Debug("stream closed", "user_id", c.userID)
}

func (h *Hub) setTotal(n int64) {
	h.total.Store(n)
	if h.gauge != nil {
		h.gauge.SetStreamClients(int(n))
	}
}

// Clients returns the number of open streams.
func (h *Hub) Clients() int { return int(h.total.Load()) }

// Publish queues evt for every stream userID has open. It never blocks a
// request: when the queue is full or the hub has stopped the event is dropped.
func (h *Hub) Publish(userID string, evt models.AppointmentEvent) {
	msg, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("encode event", "error", err, "type", evt.Type)
		return
	}
	select {
	case <-h.done:
	case h.deliver <- delivery{userID: userID, msg: msg}:
	default:
		h.logger.Warn("event queue full, dropping event", "user_id", userID, "type", evt.Type)
	}
}
