// Package handler provides HTTP handlers for the chat service.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/iranzithierry/cognova-backend/internal/chat/biz"
	"github.com/iranzithierry/cognova-backend/internal/model"
	apperrors "github.com/iranzithierry/cognova-backend/pkg/errors"
	"github.com/iranzithierry/cognova-backend/pkg/llm"
)

// BotStore is the persistence surface the chat handler needs beyond the
// orchestrator's own store.
type BotStore interface {
	GetBot(ctx context.Context, botID string) (*model.Bot, error)
	CreateBot(ctx context.Context, bot *model.Bot) error
	GetMessages(ctx context.Context, conversationID string) ([]*model.Message, error)
}

// ChatHandler handles chat HTTP requests.
type ChatHandler struct {
	store        BotStore
	orchestrator *biz.Orchestrator
	provider     llm.ChatProvider
}

// NewChatHandler creates a chat handler.
func NewChatHandler(store BotStore, orchestrator *biz.Orchestrator, provider llm.ChatProvider) *ChatHandler {
	return &ChatHandler{
		store:        store,
		orchestrator: orchestrator,
		provider:     provider,
	}
}

// SuccessResponse is a standard success response.
type SuccessResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ChatRequest is the chat endpoint request body. SourceIDs optionally
// restricts retrieval tool calls to a subset of the bot's sources.
type ChatRequest struct {
	Message        string   `json:"message" binding:"required"`
	ConversationID string   `json:"conversation_id"`
	SourceIDs      []string `json:"source_ids"`
}

// Chat streams a chat completion as server-sent events.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}

	bot, err := h.store.GetBot(c.Request.Context(), c.Param("bot_id"))
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrBotNotFound.Code) {
			c.JSON(http.StatusNotFound, ErrorResponse{Code: 404, Message: "bot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	send := func(frame []byte) error {
		if _, err := c.Writer.Write(frame); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	}

	if err := h.orchestrator.Stream(c.Request.Context(), &biz.ChatRequest{
		Bot:            bot,
		ConversationID: req.ConversationID,
		Message:        req.Message,
		SourceIDs:      req.SourceIDs,
		Provider:       h.provider,
	}, send); err != nil {
		// The failure already went to the client as an SSE error event.
		logger.Warnw("chat stream ended with error",
			"bot_id", bot.ID,
			"error", err.Error())
	}
}

// CreateBotRequest is the bot creation request body.
type CreateBotRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	Model        string `json:"model"`
	Provider     string `json:"provider"`
	SystemPrompt string `json:"system_prompt"`
}

// CreateBot registers a new bot.
func (h *ChatHandler) CreateBot(c *gin.Context) {
	var req CreateBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}

	bot := &model.Bot{
		Name:         req.Name,
		Description:  req.Description,
		Model:        req.Model,
		Provider:     req.Provider,
		SystemPrompt: req.SystemPrompt,
	}
	if err := h.store.CreateBot(c.Request.Context(), bot); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: bot})
}

// GetBot returns a bot by ID.
func (h *ChatHandler) GetBot(c *gin.Context) {
	bot, err := h.store.GetBot(c.Request.Context(), c.Param("bot_id"))
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrBotNotFound.Code) {
			c.JSON(http.StatusNotFound, ErrorResponse{Code: 404, Message: "bot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: bot})
}

// Messages returns the turns of a conversation in order.
func (h *ChatHandler) Messages(c *gin.Context) {
	messages, err := h.store.GetMessages(c.Request.Context(), c.Param("conversation_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}
	if messages == nil {
		messages = []*model.Message{}
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: messages})
}
