// Package console carries the streaming console: a websocket hub that fans
// output lines out to connected viewers, and the executor that hands
// approved commands to the game server.
package console

import (
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"gamepanel/internal/constants"
	"gamepanel/internal/logger"
	"gamepanel/internal/metrics"
)

// Message is one frame sent to a viewer.
type Message struct {
	Type      string `json:"type"`
	Line      string `json:"line"`
	Timestamp int64  `json:"timestamp"`
}

// Message types
const (
	MessageHistory = "history"
	MessageLine    = "line"
	MessageHello   = "hello"
)

// NewUpgrader returns a websocket upgrader that accepts same-origin
// browsers and non-browser clients (no Origin header).
func NewUpgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  constants.WSReadBufferSize,
		WriteBufferSize: constants.WSWriteBufferSize,
		CheckOrigin:     sameOrigin,
	}
}

func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// Client is a single connected viewer.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan Message
	username string
}

// Username returns the identity the connection was bound to at handshake.
func (c *Client) Username() string {
	return c.username
}

// Hub keeps the set of connected viewers and a bounded history of recent lines.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	history []Message
	maxHist int
	closed  bool

	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewHub creates a hub retaining up to historyLines lines for new viewers.
func NewHub(historyLines int, log *logger.Logger, m *metrics.Metrics) *Hub {
	if historyLines <= 0 {
		historyLines = constants.ConsoleHistoryLines
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		maxHist: historyLines,
		logger:  log,
		metrics: m,
		now:     time.Now,
	}
}

// Count returns the number of connected viewers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// History returns a copy of the retained lines, oldest first.
func (h *Hub) History() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Message, len(h.history))
	copy(out, h.history)
	return out
}

// Broadcast records line in the history and queues it for every viewer.
// Viewers whose buffer is full are dropped.
func (h *Hub) Broadcast(line string) {
	msg := Message{Type: MessageLine, Line: line, Timestamp: h.now().Unix()}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.history = append(h.history, msg)
	if over := len(h.history) - h.maxHist; over > 0 {
		h.history = append(h.history[:0:0], h.history[over:]...)
	}

	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			h.logger.Warn("Console: dropping slow viewer %s", client.username)
			h.removeLocked(client)
		}
	}
}

// Serve binds an upgraded connection to username, replays the history and
// starts the read and write pumps. It returns immediately.
func (h *Hub) Serve(conn *websocket.Conn, username string) *Client {
	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan Message, constants.ConsoleClientBufferSize),
		username: username,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return client
	}
	client.send <- Message{Type: MessageHello, Line: username, Timestamp: h.now().Unix()}
	for _, msg := range h.tail(constants.ConsoleClientBufferSize - 1) {
		msg.Type = MessageHistory
		client.send <- msg
	}
	h.clients[client] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.ConsoleClientsChanged(n)
	h.logger.Info("Console: viewer %s connected (%d total)", username, n)

	go client.writePump()
	go client.readPump()
	return client
}

// tail returns at most n of the newest history lines. Caller holds mu.
func (h *Hub) tail(n int) []Message {
	if len(h.history) <= n {
		return h.history
	}
	return h.history[len(h.history)-n:]
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	removed := h.removeLocked(c)
	n := len(h.clients)
	h.mu.Unlock()

	if removed {
		h.metrics.ConsoleClientsChanged(n)
		h.logger.Info("Console: viewer %s disconnected (%d total)", c.username, n)
	}
}

// removeLocked closes the client's queue once. Caller holds mu.
func (h *Hub) removeLocked(c *Client) bool {
	if _, ok := h.clients[c]; !ok {
		return false
	}
	delete(h.clients, c)
	close(c.send)
	return true
}

// Disconnect closes every connection bound to username and returns how many
// were closed. Used when the user's credentials or role change.
func (h *Hub) Disconnect(username string) int {
	h.mu.Lock()
	dropped := 0
	for client := range h.clients {
		if client.username == username && h.removeLocked(client) {
			dropped++
		}
	}
	n := len(h.clients)
	h.mu.Unlock()

	if dropped > 0 {
		h.metrics.ConsoleClientsChanged(n)
		h.logger.Info("Console: disconnected %d viewer(s) of %s (%d total)", dropped, username, n)
	}
	return dropped
}

// Usernames returns the distinct users with an open connection, sorted.
func (h *Hub) Usernames() []string {
	h.mu.Lock()
	seen := make(map[string]struct{}, len(h.clients))
	for client := range h.clients {
		seen[client.username] = struct{}{}
	}
	h.mu.Unlock()

	out := make([]string, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// Close disconnects every viewer and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for client := range h.clients {
		h.removeLocked(client)
	}
	h.mu.Unlock()
	h.metrics.ConsoleClientsChanged(0)
}

// writePump sends queued messages and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(constants.WSPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(constants.WSWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(constants.WSWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; viewers send commands over HTTP.
// It exists to process control frames and notice disconnects.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(constants.WSMaxMessageBytes)
	c.conn.SetReadDeadline(time.Now().Add(constants.WSPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(constants.WSPongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("Console: read error for %s: %v", c.username, err)
			}
			return
		}
	}
}
