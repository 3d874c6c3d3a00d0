package hub

import (
	"encoding/json"
	"sync"

	"github.com/taskhub/chat-service/internal/config"
	"github.com/taskhub/chat-service/pkg/log"
)

// Hub maps projects to broadcast rooms. A connection may be joined to any
// number of rooms; all memberships are dropped on unregister.
type Hub struct {
	clients    map[string]*Client            // clientID -> client
	rooms      map[string]map[string]*Client // projectID -> clientID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *roomMessage
	mu         sync.RWMutex
	config     config.WebSocketConfig

	// Typing holds the ephemeral typing-indicator state for connections
	// managed by this hub.
	Typing *TypingTracker
}

type roomMessage struct {
	projectID string
	payload   []byte
	exclude   string // client ID to exclude
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomMessage, 256),
		config:     cfg,
		Typing:     NewTypingTracker(),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.L().Debug().Str(log.FieldClientID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				for projectID, members := range h.rooms {
					delete(members, client.ID)
					if len(members) == 0 {
						delete(h.rooms, projectID)
					}
				}
				delete(h.clients, client.ID)
				client.closeSend()
			}
			h.mu.Unlock()
			log.L().Debug().Str(log.FieldClientID, client.ID).Msg("client unregistered")

		case msg := <-h.broadcast:
			h.mu.RLock()
			if members, ok := h.rooms[msg.projectID]; ok {
				for clientID, client := range members {
					if clientID == msg.exclude {
						continue
					}
					select {
					case client.Send <- msg.payload:
					default:
						// Slow consumer: drop the connection rather than block
						// the room.
						go h.removeClient(client)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Join adds the connection to the project's room. Idempotent.
func (h *Hub) Join(client *Client, projectID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[projectID]; !ok {
		h.rooms[projectID] = make(map[string]*Client)
	}
	h.rooms[projectID][client.ID] = client
	log.L().Info().
		Str(log.FieldClientID, client.ID).
		Str(log.FieldProjectID, projectID).
		Msg("client joined project room")
}

// Leave removes the connection from the project's room. Idempotent.
func (h *Hub) Leave(client *Client, projectID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[projectID]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, projectID)
		}
	}
	log.L().Info().
		Str(log.FieldClientID, client.ID).
		Str(log.FieldProjectID, projectID).
		Msg("client left project room")
}

// Broadcast delivers payload to every connection currently in the project's
// room, except excludeClientID when non-empty. Best-effort: no delivery
// acknowledgment, slow receivers are dropped.
func (h *Hub) Broadcast(projectID string, payload interface{}, excludeClientID string) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	h.broadcast <- &roomMessage{
		projectID: projectID,
		payload:   data,
		exclude:   excludeClientID,
	}
	return nil
}

// RoomSize returns the number of connections in the project's room.
func (h *Hub) RoomSize(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[projectID])
}

func (h *Hub) removeClient(client *Client) {
	h.unregister <- client
}
