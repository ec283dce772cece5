package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

type Topic string

const (
	TopicImports     Topic = "imports"
	TopicDiagnostics Topic = "diagnostics"
)

// ParseTopic accepts only the topics the hub publishes on.
func ParseTopic(s string) (Topic, bool) {
	switch t := Topic(s); t {
	case TopicImports, TopicDiagnostics:
		return t, true
	default:
		return "", false
	}
}

// Event is one message published on a topic
type Event struct {
	Topic   Topic  `json:"topic"`
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type Client struct {
	ID     string
	Send   chan []byte
	topics map[Topic]struct{}
	mu     sync.RWMutex
}

func NewClient(id string, bufferSize int) *Client {
	return &Client{
		ID:     id,
		Send:   make(chan []byte, bufferSize),
		topics: make(map[Topic]struct{}),
	}
}

func (c *Client) HasTopic(topic Topic) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.topics[topic]
	return ok
}

func (c *Client) addTopics(topics []Topic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range topics {
		c.topics[t] = struct{}{}
	}
}

func (c *Client) removeTopics(topics []Topic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range topics {
		delete(c.topics, t)
	}
}

func (c *Client) Topics() []Topic {
	c.mu.RLock()
	defer c.mu.RUnlock()
	topics := make([]Topic, 0, len(c.topics))
	for t := range c.topics {
		topics = append(topics, t)
	}
	return topics
}

type Hub struct {
	mu           sync.RWMutex
	clients      map[*Client]struct{}
	topicClients map[Topic]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan Event

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:      make(map[*Client]struct{}),
		topicClients: make(map[Topic]map[*Client]struct{}),
		register:     make(chan *Client, 16),
		unregister:   make(chan *Client, 16),
		broadcast:    make(chan Event, 256),
		logger:       logger.With("component", "hub"),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.ID, "total", total)

		case client := <-h.unregister:
			h.removeClient(client)

		case event := <-h.broadcast:
			h.fanout(event)
		}
	}
}

func (h *Hub) Subscribe(client *Client, topics []Topic) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.addTopics(topics)

	for _, t := range topics {
		if h.topicClients[t] == nil {
			h.topicClients[t] = make(map[*Client]struct{})
		}
		h.topicClients[t][client] = struct{}{}
	}
}

func (h *Hub) Unsubscribe(client *Client, topics []Topic) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.removeTopics(topics)
	h.dropFromTopics(client, topics)
}

// Publish queues event for delivery. Events are dropped when the queue is
// full.
func (h *Hub) Publish(event Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event", "topic", event.Topic, "type", event.Type)
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) SubscriberCount(topic Topic) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topicClients[topic])
}

func (h *Hub) fanout(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := h.topicClients[event.Topic]
	if len(clients) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event", "topic", event.Topic, "error", err)
		return
	}

	for client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Debug("client send buffer full", "client_id", client.ID)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}

	h.dropFromTopics(client, client.Topics())
	delete(h.clients, client)
	close(client.Send)
	h.logger.Debug("client unregistered", "client_id", client.ID, "total", len(h.clients))
}

func (h *Hub) dropFromTopics(client *Client, topics []Topic) {
	for _, t := range topics {
		if h.topicClients[t] != nil {
			delete(h.topicClients[t], client)
			if len(h.topicClients[t]) == 0 {
				delete(h.topicClients, t)
			}
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.Send)
	}
	h.clients = make(map[*Client]struct{})
	h.topicClients = make(map[Topic]map[*Client]struct{})
}
