package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/neurotutor-backend/internal/domain"
	"github.com/yungbote/neurotutor-backend/internal/http/response"
	"github.com/yungbote/neurotutor-backend/internal/services"
)

type ConversationHandler struct {
	conversations services.ConversationService
}

func NewConversationHandler(conversations services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

type conversationSummary struct {
	ID        uuid.UUID `json:"id"`
	Topic     string    `json:"topic"`
	CreatedAt time.Time `json:"created_at"`
}

// POST /api/conversations
// body (optional): { "message": "first learner message" }
func (h *ConversationHandler) Create(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondErr(c, "invalid_request", bindError(err))
			return
		}
	}
	s, err := h.conversations.Create(requestCtx(c), req.Message)
	if err != nil {
		response.RespondErr(c, "create_conversation_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{
		"conversation_id": s.ID,
		"topic":           s.Topic,
		"created_at":      s.CreatedAt,
	})
}

// GET /api/conversations?limit=&offset=
func (h *ConversationHandler) List(c *gin.Context) {
	limit, offset, err := pageParams(c)
	if err != nil {
		response.RespondErr(c, "invalid_request", err)
		return
	}
	sessions, err := h.conversations.List(requestCtx(c), limit, offset)
	if err != nil {
		response.RespondErr(c, "list_conversations_failed", err)
		return
	}
	out := make([]conversationSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, conversationSummary{ID: s.ID, Topic: s.Topic, CreatedAt: s.CreatedAt})
	}
	response.RespondOK(c, gin.H{"conversations": out})
}

// GET /api/conversations/:id?limit=10&offset=0
func (h *ConversationHandler) Get(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondErr(c, "invalid_request", err)
		return
	}
	limit, offset, err := pageParams(c)
	if err != nil {
		response.RespondErr(c, "invalid_request", err)
		return
	}
	page, err := h.conversations.Get(requestCtx(c), id, limit, offset)
	if err != nil {
		response.RespondErr(c, "get_conversation_failed", err)
		return
	}
	messages := page.Turns
	if messages == nil {
		messages = []*domain.Turn{}
	}
	response.RespondOK(c, gin.H{
		"conversation_id": page.Session.ID,
		"topic":           page.Session.Topic,
		"messages":        messages,
		"total_messages":  page.Total,
	})
}
