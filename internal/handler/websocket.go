package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"planpro/internal/domain"
	"planpro/internal/hub"
	"planpro/internal/importer"
	"planpro/internal/store"
)

type WSHandler struct {
	hub     *hub.Hub
	store   *store.Store
	origins []string
	logger  *slog.Logger
}

func NewWSHandler(h *hub.Hub, s *store.Store, origins []string, logger *slog.Logger) *WSHandler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &WSHandler{hub: h, store: s, origins: origins, logger: logger.With("component", "websocket")}
}

type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type TopicsPayload struct {
	Topics []string `json:"topics"`
}

type SnapshotMessage struct {
	Type    string          `json:"type"`
	Payload SnapshotPayload `json:"payload"`
}

type SnapshotPayload struct {
	Topics      []hub.Topic           `json:"topics"`
	Import      *store.Meta           `json:"import,omitempty"`
	Counts      *domain.Counts        `json:"counts,omitempty"`
	Diagnostics []importer.Diagnostic `json:"diagnostics,omitempty"`
}

type PongMessage struct {
	Type string `json:"type"`
}

func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := hub.NewClient(clientID, 256)

	h.hub.Register(client)
	ServerStats.IncWSConnections()
	defer ServerStats.DecWSConnections()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.writeLoop(ctx, conn, client)

	h.readLoop(ctx, conn, client)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				h.logger.Debug("websocket read error", "client_id", client.ID, "error", err)
			}
			return
		}
		ServerStats.IncWSMessagesIn()

		if msgType != websocket.MessageText {
			continue
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("invalid message format", "client_id", client.ID, "error", err)
			continue
		}

		switch msg.Type {
		case "subscribe":
			topics, ok := parseTopics(msg.Payload)
			if !ok {
				continue
			}
			h.hub.Subscribe(client, topics)
			h.sendSnapshot(client, topics)

		case "unsubscribe":
			topics, ok := parseTopics(msg.Payload)
			if !ok {
				continue
			}
			h.hub.Unsubscribe(client, topics)

		case "ping":
			h.send(client, PongMessage{Type: "pong"})
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
			ServerStats.IncWSMessagesOut()

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// parseTopics drops unknown topic names and reports whether any remain.
func parseTopics(raw json.RawMessage) ([]hub.Topic, bool) {
	var payload TopicsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, false
	}
	topics := make([]hub.Topic, 0, len(payload.Topics))
	for _, s := range payload.Topics {
		if t, ok := hub.ParseTopic(s); ok {
			topics = append(topics, t)
		}
	}
	return topics, len(topics) > 0
}

func (h *WSHandler) sendSnapshot(client *hub.Client, topics []hub.Topic) {
	payload := SnapshotPayload{Topics: topics}
	stats := h.store.GetStats()

	for _, t := range topics {
		switch t {
		case hub.TopicImports:
			if stats.IsLoaded {
				meta := h.store.Meta()
				payload.Import = &meta
				payload.Counts = &stats.Counts
			}
		case hub.TopicDiagnostics:
			payload.Diagnostics = h.store.Diagnostics("")
		}
	}

	h.send(client, SnapshotMessage{Type: "snapshot", Payload: payload})
}

func (h *WSHandler) send(client *hub.Client, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case client.Send <- data:
	default:
		h.logger.Debug("client send buffer full", "client_id", client.ID)
	}
}
