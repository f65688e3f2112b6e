package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Manager is the hub for live contest updates. Handlers push events in,
// connected browsers get them without polling the feed.
type Manager struct {
	clients    map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

type Client struct {
	conn    *websocket.Conn
	userID  string
	send    chan []byte
	manager *Manager

	mu       sync.Mutex
	contests map[string]bool // contest ids this client watches
}

// envelope pairs a serialized event with the contest it belongs to, so the
// hub can skip clients watching other contests. An empty contestID goes to
// everyone.
type envelope struct {
	contestID string
	data      []byte
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (m *Manager) Start() {
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			m.clients[client] = true
			m.mu.Unlock()
			log.Printf("WebSocket client registered. Total clients: %d", len(m.clients))

		case client := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				close(client.send)
			}
			m.mu.Unlock()
			log.Printf("WebSocket client unregistered. Total clients: %d", len(m.clients))

		case env := <-m.broadcast:
			// Write lock: a client with a full send buffer gets dropped here.
			m.mu.Lock()
			for client := range m.clients {
				if !client.watches(env.contestID) {
					continue
				}
				select {
				case client.send <- env.data:
				default:
					close(client.send)
					delete(m.clients, client)
				}
			}
			m.mu.Unlock()
		}
	}
}

func (m *Manager) emit(contestID, eventType string, payload map[string]interface{}) {
	data := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}

	msg, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error marshaling WebSocket event %s: %v", eventType, err)
		return
	}

	m.broadcast <- envelope{contestID: contestID, data: msg}
}

// BroadcastNewPost announces a freshly logged entry to a contest's watchers.
func (m *Manager) BroadcastNewPost(contestID string, post map[string]interface{}) {
	m.emit(contestID, "new_post", post)
}

// BroadcastReactionUpdate pushes a post's recomputed reaction state.
func (m *Manager) BroadcastReactionUpdate(contestID string, payload map[string]interface{}) {
	m.emit(contestID, "reaction_update", payload)
}

// BroadcastCommentAdded announces a new comment on a post.
func (m *Manager) BroadcastCommentAdded(contestID string, payload map[string]interface{}) {
	m.emit(contestID, "comment_added", payload)
}

// BroadcastContestUpdated announces schedule or metadata changes, which also
// tells clients to re-derive the phase.
func (m *Manager) BroadcastContestUpdated(contestID string, payload map[string]interface{}) {
	m.emit(contestID, "contest_updated", payload)
}

func (m *Manager) GetConnectedUsers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func (c *Client) watches(contestID string) bool {
	if contestID == "" {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contests[contestID]
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ValidateTokenFunc resolves a bearer token to a user id. The middleware
// package provides the implementation; taking a func keeps this package off
// the JWT dependency.
type ValidateTokenFunc func(token string) (string, error)

func WebSocketHandler(manager *Manager, validate ValidateTokenFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			log.Printf("WebSocket connection rejected: no token provided")
			http.Error(w, "Token required", http.StatusUnauthorized)
			return
		}

		userID, err := validate(token)
		if err != nil {
			log.Printf("WebSocket connection rejected: %v", err)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		client := &Client{
			conn:     conn,
			userID:   userID,
			send:     make(chan []byte, 256),
			manager:  manager,
			contests: make(map[string]bool),
		}

		manager.register <- client

		// Send connection success message
		welcomeMsg := map[string]interface{}{
			"type": "connected",
			"payload": map[string]interface{}{
				"userId": userID,
				"time":   time.Now().Unix(),
			},
		}
		msg, _ := json.Marshal(welcomeMsg)
		client.send <- msg

		// Start goroutines for this client
		go client.writePump()
		go client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.manager.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var data map[string]interface{}
		if err := json.Unmarshal(message, &data); err != nil {
			log.Printf("WebSocket message unmarshal error: %v", err)
			continue
		}

		switch data["type"] {
		case "watch_contest":
			c.handleWatchContest(data, true)
		case "unwatch_contest":
			c.handleWatchContest(data, false)
		case "ping":
			c.sendPong()
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleWatchContest(data map[string]interface{}, watch bool) {
	payload, ok := data["payload"].(map[string]interface{})
	if !ok {
		return
	}

	contestID, ok := payload["contestId"].(string)
	if !ok || contestID == "" {
		return
	}

	c.mu.Lock()
	if watch {
		c.contests[contestID] = true
	} else {
		delete(c.contests, contestID)
	}
	c.mu.Unlock()

	eventType := "contest_watched"
	if !watch {
		eventType = "contest_unwatched"
	}

	response := map[string]interface{}{
		"type": eventType,
		"payload": map[string]interface{}{
			"contestId": contestID,
			"userId":    c.userID,
			"time":      time.Now().Unix(),
		},
	}

	msg, err := json.Marshal(response)
	if err != nil {
		log.Printf("Error marshaling watch response: %v", err)
		return
	}

	c.send <- msg
}

func (c *Client) sendPong() {
	response := map[string]interface{}{
		"type": "pong",
		"payload": map[string]interface{}{
			"time": time.Now().Unix(),
		},
	}

	msg, err := json.Marshal(response)
	if err != nil {
		log.Printf("Error marshaling pong: %v", err)
		return
	}

	c.send <- msg
}
