package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SG-STD/ofox-backend/internal/models"
)

type messageResponse struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

type chatResponse struct {
	ID           string           `json:"id"`
	Participants []string         `json:"participants"`
	CreatedAt    time.Time        `json:"createdAt"`
	LastMessage  *messageResponse `json:"lastMessage,omitempty"`
}

func toMessageResponse(m models.Message) messageResponse {
	return messageResponse{
		ID:        m.ID,
		ChatID:    m.ChatID,
		Sender:    m.Sender,
		Text:      m.Text,
		Timestamp: m.Timestamp,
		Status:    m.Status,
	}
}

func toChatResponse(chat models.Chat) chatResponse {
	resp := chatResponse{
		ID:           chat.ID,
		Participants: chat.Participants,
		CreatedAt:    chat.CreatedAt,
	}
	if chat.LastMessage != nil {
		m := toMessageResponse(*chat.LastMessage)
		resp.LastMessage = &m
	}
	return resp
}

func limitParam(c *gin.Context, def, max int) int {
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= max {
		return v
	}
	return def
}

type openChatRequest struct {
	Peer string `json:"peer" binding:"required"`
}

func (h HandlerSet) OpenChat(c *gin.Context) {
	user, exists := currentUser(c)
	if !exists {
		return
	}
	var req openChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "handlers.open_chat", err)
		return
	}

	chat, err := h.chats.Open(c.Request.Context(), user, req.Peer)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, toChatResponse(chat))
}

func (h HandlerSet) RecentChats(c *gin.Context) {
	user, exists := currentUser(c)
	if !exists {
		return
	}
	chats, err := h.chats.Recent(c.Request.Context(), user, limitParam(c, 50, 200))
	if err != nil {
		fail(c, err)
		return
	}
	items := make([]chatResponse, 0, len(chats))
	for _, chat := range chats {
		items = append(items, toChatResponse(chat))
	}
	ok(c, gin.H{"items": items})
}

func (h HandlerSet) ListMessages(c *gin.Context) {
	user, exists := currentUser(c)
	if !exists {
		return
	}
	msgs, err := h.chats.Messages(c.Request.Context(), user, c.Param("id"), limitParam(c, 100, 500))
	if err != nil {
		fail(c, err)
		return
	}
	items := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, toMessageResponse(m))
	}
	ok(c, gin.H{"items": items})
}

type sendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h HandlerSet) SendMessage(c *gin.Context) {
	user, exists := currentUser(c)
	if !exists {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "handlers.send_message", err)
		return
	}
	msg, err := h.chats.Send(c.Request.Context(), user, c.Param("id"), req.Text)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, toMessageResponse(msg))
}
