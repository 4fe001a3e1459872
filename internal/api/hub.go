package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"tamio-engine/internal/observability"
	"tamio-engine/internal/queue"
)

// HubConfig configures WebSocket subscriber behavior.
type HubConfig struct {
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is how long a subscriber may stay silent, pongs included.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// SendBuffer is the number of queued messages per subscriber before it
	// is dropped as too slow.
	SendBuffer int
}

// DefaultHubConfig returns default WebSocket configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		PingInterval: 30 * time.Second,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
		SendBuffer:   16,
	}
}

// QueueMessage is pushed to subscribers whenever a user's queue is rebuilt.
type QueueMessage struct {
	Type   string      `json:"type"` // always "queue"
	UserID string      `json:"user_id"`
	Queue  queue.Queue `json:"queue"`
}

// Subscription is one registered queue subscriber. Until it is served,
// updates are held and only the latest is kept.
type Subscription struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once

	held   bool // guarded by Hub.mu
	latest []byte
}

func (s *Subscription) close() {
	s.once.Do(func() { close(s.send) })
}

// Hub fans recomputed queues out to the WebSocket subscribers of each user.
// It implements engine.Notifier.
type Hub struct {
	config   HubConfig
	upgrader websocket.Upgrader
	log      *logrus.Logger
	metrics  *observability.Metrics

	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

// NewHub creates a hub. A nil config uses DefaultHubConfig.
func NewHub(config *HubConfig, log *logrus.Logger, metrics *observability.Metrics) *Hub {
	cfg := DefaultHubConfig()
	if config != nil {
		cfg = *config
	}
	return &Hub{
		config: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log:     log,
		metrics: metrics,
		subs:    make(map[string]map[*Subscription]struct{}),
	}
}

// Subscribers returns the number of open subscriptions for a user.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

// QueueUpdated encodes q once and queues it for every subscriber of userID.
// Subscribers whose buffer is full are disconnected.
func (h *Hub) QueueUpdated(userID string, q queue.Queue) {
	msg, err := json.Marshal(QueueMessage{Type: "queue", UserID: userID, Queue: q})
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("Failed to encode queue message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[userID] {
		if s.held {
			s.latest = msg
			continue
		}
		select {
		case s.send <- msg:
		default:
			h.log.WithField("user_id", userID).Warn("Dropping slow queue subscriber")
			h.removeLocked(s)
		}
	}
}

// Subscribe registers a held subscription for userID. Register before
// reading the snapshot passed to Serve so no rebuild in between is lost.
func (h *Hub) Subscribe(userID string) *Subscription {
	s := &Subscription{userID: userID, send: make(chan []byte, max(h.config.SendBuffer, 2)), held: true}

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Subscription]struct{})
	}
	h.subs[userID][s] = struct{}{}
	h.mu.Unlock()
	h.metrics.AddWSClients(1)
	return s
}

// Cancel unregisters a subscription that will not be served.
func (h *Hub) Cancel(s *Subscription) {
	h.remove(s)
}

// Serve upgrades the request for s, sends snapshot followed by the latest
// update held since Subscribe, and then streams updates.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, s *Subscription, snapshot queue.Queue) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.log.WithError(err).WithField("user_id", s.userID).Warn("WebSocket upgrade failed")
		h.remove(s)
		return
	}
	s.conn = conn

	msg, err := json.Marshal(QueueMessage{Type: "queue", UserID: s.userID, Queue: snapshot})
	if err != nil {
		h.log.WithError(err).WithField("user_id", s.userID).Error("Failed to encode queue snapshot")
		h.remove(s)
		conn.Close()
		return
	}

	h.mu.Lock()
	if _, ok := h.subs[s.userID][s]; !ok {
		// Closed while upgrading.
		h.mu.Unlock()
		conn.Close()
		return
	}
	s.send <- msg
	if s.latest != nil {
		s.send <- s.latest
		s.latest = nil
	}
	s.held = false
	h.mu.Unlock()
	h.log.WithField("user_id", s.userID).Debug("Queue subscriber connected")

	go h.writeLoop(s)
	go h.readLoop(s)
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(s)
}

func (h *Hub) removeLocked(s *Subscription) {
	set, ok := h.subs[s.userID]
	if !ok {
		return
	}
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, s.userID)
	}
	s.close()
	h.metrics.AddWSClients(-1)
}

// readLoop discards client frames and keeps the read deadline moving on
// pongs. It unregisters the subscriber when the connection fails.
func (h *Hub) readLoop(s *Subscription) {
	defer h.remove(s)

	s.conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop is the only writer on the connection.
func (h *Hub) writeLoop(s *Subscription) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(s)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(s)
				return
			}
		}
	}
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.subs {
		for s := range set {
			h.removeLocked(s)
		}
	}
}
