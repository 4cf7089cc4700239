package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/xswkr/chartpattern-backend/internal/auth"
	"github.com/xswkr/chartpattern-backend/internal/middleware"
	"github.com/xswkr/chartpattern-backend/internal/models"
	"github.com/xswkr/chartpattern-backend/internal/store"
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// ChatHandler runs the analysis chat over WebSocket: one connection per
// record, question in, answer out, history persisted and replayed.
type ChatHandler struct {
	access *auth.Access
	chats  chatStore
	vision visionChat
}

// chatStore is the slice of chat persistence the handler needs.
// Implemented by store.ChatStore.
type chatStore interface {
	Append(ctx context.Context, msg models.ChatMessage) error
	History(ctx context.Context, recordID string, limit int64) ([]models.ChatMessage, error)
}

// visionChat is the slice of the vision service the chat needs.
type visionChat interface {
	AskAboutChart(ctx context.Context, imageBase64 string, analysis json.RawMessage, question string, history []models.ChatMessage) (string, error)
	FetchImageBase64(ctx context.Context, imageURL string) (string, error)
}

func NewChatHandler(access *auth.Access, chats chatStore, vision visionChat) *ChatHandler {
	return &ChatHandler{access: access, chats: chats, vision: vision}
}

type chatClientMessage struct {
	Type string `json:"type"` // "question", "ping"
	Text string `json:"text,omitempty"`
}

type chatServerMessage struct {
	Type     string               `json:"type"` // "history", "answer", "error", "pong"
	Text     string               `json:"text,omitempty"`
	Messages []models.ChatMessage `json:"messages,omitempty"`
}

// ServeWS handles GET /ws/analysis?id=<recordID>. Access follows the record
// read rule: owners always, anyone once shared.
func (h *ChatHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	recordID, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	callerID := middleware.UserID(r.Context())
	rec, err := h.access.Get(r.Context(), recordID, callerID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			http.Error(w, "record not found", http.StatusNotFound)
		case errors.Is(err, auth.ErrForbidden):
			http.Error(w, "access denied", http.StatusForbidden)
		default:
			http.Error(w, "server error", http.StatusInternalServerError)
		}
		return
	}

	conn, err := chatUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	history, err := h.chats.History(ctx, rec.ID.String(), 100)
	if err != nil {
		log.Printf("chat history load failed: %v", err)
	}
	_ = conn.WriteJSON(chatServerMessage{Type: "history", Messages: history})

	// The image is fetched once per connection and reused for every turn.
	var imageBase64 string

	conn.SetReadLimit(64 * 1024)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(10 * time.Minute))

		var msg chatClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "ping":
			_ = conn.WriteJSON(chatServerMessage{Type: "pong"})

		case "question":
			if msg.Text == "" {
				_ = conn.WriteJSON(chatServerMessage{Type: "error", Text: "question text is required"})
				continue
			}

			if imageBase64 == "" {
				imageBase64, err = h.vision.FetchImageBase64(ctx, rec.ImageURL)
				if err != nil {
					log.Printf("chart image fetch failed: %v", err)
					_ = conn.WriteJSON(chatServerMessage{Type: "error", Text: "failed to load chart image"})
					continue
				}
			}

			askCtx, askCancel := context.WithTimeout(ctx, 90*time.Second)
			answer, err := h.vision.AskAboutChart(askCtx, imageBase64, rec.Result, msg.Text, history)
			askCancel()
			if err != nil {
				log.Printf("chat answer failed: %v", err)
				_ = conn.WriteJSON(chatServerMessage{Type: "error", Text: "failed to answer question"})
				continue
			}

			userMsg := models.ChatMessage{
				RecordID:  rec.ID.String(),
				SenderID:  senderID(callerID),
				Role:      models.ChatRoleUser,
				Text:      msg.Text,
				Timestamp: time.Now().UTC(),
			}
			modelMsg := models.ChatMessage{
				RecordID:  rec.ID.String(),
				Role:      models.ChatRoleModel,
				Text:      answer,
				Timestamp: time.Now().UTC(),
			}
			if err := h.chats.Append(ctx, userMsg); err != nil {
				log.Printf("chat append failed: %v", err)
			}
			if err := h.chats.Append(ctx, modelMsg); err != nil {
				log.Printf("chat append failed: %v", err)
			}
			history = append(history, userMsg, modelMsg)

			_ = conn.WriteJSON(chatServerMessage{Type: "answer", Text: answer})

		default:
			_ = conn.WriteJSON(chatServerMessage{Type: "error", Text: "unknown message type"})
		}
	}
}

func senderID(callerID uuid.UUID) string {
	if callerID == auth.Anonymous {
		return ""
	}
	return callerID.String()
}
