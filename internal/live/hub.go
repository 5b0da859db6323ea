package live

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Message is one full-state snapshot pushed to subscribers of a topic.
type Message struct {
	Topic     string      `json:"topic"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub maintains the live view subscribers, keyed by topic, and fans
// snapshots out to them. Unregister is idempotent: closing a connection
// twice or after a broadcast drop is safe.
type Hub struct {
	clients    map[string]map[*Client]bool // topic -> clients
	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Publish queues a snapshot for every subscriber of topic.
func (h *Hub) Publish(topic string, data interface{}) {
	h.broadcast <- &Message{Topic: topic, Data: data, Timestamp: time.Now()}
}

// Run processes register/unregister/broadcast events. Start it once.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.topic] == nil {
				h.clients[client.topic] = make(map[*Client]bool)
			}
			h.clients[client.topic][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.drop(client)

		case message := <-h.broadcast:
			payload, err := json.Marshal(message)
			if err != nil {
				log.Printf("live: marshal %s snapshot failed: %v", message.Topic, err)
				continue
			}

			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients[message.Topic]))
			for client := range h.clients[message.Topic] {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			for _, client := range clients {
				select {
				case client.send <- payload:
				default:
					// Subscriber is not draining; cut it loose.
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[client.topic]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)
			if len(clients) == 0 {
				delete(h.clients, client.topic)
			}
		}
	}
}
