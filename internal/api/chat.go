package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"membership-platform/backend/internal/service"
	"membership-platform/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// ChatSender runs one chat turn
type ChatSender interface {
	SendMessage(ctx context.Context, creds service.Credentials, req service.SendMessageRequest) (*service.SendMessageResult, error)
}

// ChatHandler serves the AI chat endpoint
type ChatHandler struct {
	chat        ChatSender
	cookieName  string
	maxBodySize int64
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat ChatSender, cookieName string, maxBodySize int64) *ChatHandler {
	return &ChatHandler{chat: chat, cookieName: cookieName, maxBodySize: maxBodySize}
}

// RegisterRoutes registers the chat route on the given group
func (h *ChatHandler) RegisterRoutes(group *gin.RouterGroup, mw ...gin.HandlerFunc) {
	group.POST("/chat", append(mw, h.SendMessage)...)
}

// SendMessage handles POST /chat.
// The body is decoded leniently: authentication and configuration are checked before
// the request shape, so a malformed body surfaces as a missing-field error.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req service.SendMessageRequest
	body := io.Reader(c.Request.Body)
	if h.maxBodySize > 0 {
		body = io.LimitReader(body, h.maxBodySize)
	}
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		req = service.SendMessageRequest{}
	}

	session, _ := c.Cookie(h.cookieName)
	creds := service.Credentials{
		BearerToken:  middleware.BearerToken(c),
		SessionToken: session,
	}

	res, err := h.chat.SendMessage(c.Request.Context(), creds, req)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, res)
}
