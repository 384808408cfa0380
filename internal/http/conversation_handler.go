package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pathfinder-llm/internal/domain"
	"pathfinder-llm/internal/service"
)

// ConversationHandler expone el orquestador sobre HTTP.
type ConversationHandler struct {
	logger  *zap.Logger
	orch    *service.Orchestrator
	limiter service.MessageRateLimiter
}

// NewConversationHandler acepta limiter nil: sin limite de mensajes.
func NewConversationHandler(logger *zap.Logger, orch *service.Orchestrator, limiter service.MessageRateLimiter) *ConversationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversationHandler{logger: logger, orch: orch, limiter: limiter}
}

// conversationView agrega al agregado los derivados que la UI necesita.
type conversationView struct {
	domain.Conversation
	Completeness float64               `json:"completeness"`
	TopTraits    []service.RankedTrait `json:"top_traits"`
}

func newConversationView(conv domain.Conversation) conversationView {
	agg := service.NewProfileAggregator(&conv.Profile)
	return conversationView{
		Conversation: conv,
		Completeness: agg.Completeness(),
		TopTraits:    agg.TopTraits(5),
	}
}

// Start maneja POST /conversations.
func (h *ConversationHandler) Start(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	conv, err := h.orch.Start(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err, "could not start conversation")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"conversation": newConversationView(conv)})
}

// List maneja GET /conversations.
func (h *ConversationHandler) List(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	convs, err := h.orch.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err, "could not list conversations")
		return
	}
	out := make([]gin.H, 0, len(convs))
	for _, conv := range convs {
		out = append(out, gin.H{
			"id":         conv.ID,
			"status":     conv.Status,
			"phase":      conv.Phase,
			"updated_at": conv.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"conversations": out})
}

// Get maneja GET /conversations/:id.
func (h *ConversationHandler) Get(c *gin.Context) {
	conv, ok := h.owned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": newConversationView(conv)})
}

// PostMessage maneja POST /conversations/:id/messages.
func (h *ConversationHandler) PostMessage(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid post message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	conv, ok := h.owned(c)
	if !ok {
		return
	}
	if h.limiter != nil && !h.limiter.Allow(conv.UserID) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many messages"})
		return
	}

	result, err := h.orch.ProcessTurn(c.Request.Context(), conv.ID, req.Content)
	if errors.Is(err, service.ErrTurnFailed) {
		// El usuario solo ve la disculpa, nunca el error interno.
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "turn failed",
			"reply": gin.H{"role": domain.RoleAssistant, "content": service.ApologyMessage},
		})
		return
	}
	if err != nil {
		h.writeError(c, err, "could not process message")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"reply":           result.Reply,
		"recommendations": result.Recommendations,
		"confirmed":       result.Confirmed,
		"conversation":    newConversationView(result.Conversation),
	})
}

func (h *ConversationHandler) Pause(c *gin.Context) {
	h.changeStatus(c, h.orch.Pause)
}

func (h *ConversationHandler) Resume(c *gin.Context) {
	h.changeStatus(c, h.orch.Resume)
}

func (h *ConversationHandler) Abandon(c *gin.Context) {
	h.changeStatus(c, h.orch.Abandon)
}

// React maneja POST /conversations/:id/recommendations/:occupationID/reaction.
func (h *ConversationHandler) React(c *gin.Context) {
	var req struct {
		Reaction string `json:"reaction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid reaction request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	conv, ok := h.owned(c)
	if !ok {
		return
	}
	updated, err := h.orch.React(c.Request.Context(), conv.ID, c.Param("occupationID"), req.Reaction)
	if err != nil {
		h.writeError(c, err, "could not save reaction")
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": updated.Recommendations})
}

func (h *ConversationHandler) changeStatus(c *gin.Context, change func(context.Context, string) (domain.Conversation, error)) {
	conv, ok := h.owned(c)
	if !ok {
		return
	}
	updated, err := change(c.Request.Context(), conv.ID)
	if err != nil {
		h.writeError(c, err, "could not change status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": newConversationView(updated)})
}

func (h *ConversationHandler) userID(c *gin.Context) (string, bool) {
	userID, ok := AuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return userID, true
}

// owned carga la conversacion del path y verifica que sea del usuario autenticado.
// Una conversacion ajena responde 404 para no revelar que existe.
func (h *ConversationHandler) owned(c *gin.Context) (domain.Conversation, bool) {
	userID, ok := h.userID(c)
	if !ok {
		return domain.Conversation{}, false
	}
	conv, err := h.orch.Get(c.Request.Context(), c.Param("id"))
	if err == nil && conv.UserID != userID {
		err = service.ErrConversationNotFound
	}
	if err != nil {
		h.writeError(c, err, "could not load conversation")
		return domain.Conversation{}, false
	}
	return conv, true
}

// writeError traduce los errores del servicio a status HTTP sin exponer detalles internos.
func (h *ConversationHandler) writeError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrConversationNotFound), errors.Is(err, service.ErrRecommendationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrConversationNotActive):
		c.JSON(http.StatusConflict, gin.H{"error": "conversation not active"})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid status transition"})
	case errors.Is(err, service.ErrConversationBusy):
		h.logger.Warn(msg, zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusConflict, gin.H{"error": "conversation busy"})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	default:
		h.logger.Error(msg, zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
