package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/vaultvoice-backend/internal/http/middleware"
	"github.com/yungbote/vaultvoice-backend/internal/http/response"
	"github.com/yungbote/vaultvoice-backend/internal/orchestrator"
	"github.com/yungbote/vaultvoice-backend/internal/platform/ctxutil"
	"github.com/yungbote/vaultvoice-backend/internal/types"
)

type TurnService interface {
	Handle(ctx context.Context, userID, message string, history []types.ConversationTurn) orchestrator.Result
	Route(ctx context.Context, message string) types.AgentID
}

type TurnHandler struct {
	turns TurnService
}

func NewTurnHandler(turns TurnService) *TurnHandler {
	return &TurnHandler{turns: turns}
}

type turnReq struct {
	Message string                   `json:"message"`
	History []types.ConversationTurn `json:"history"`
}

// POST /api/turn
// body: { "message": "...", "history": [{ "role": "user", "content": "..." }] }
func (h *TurnHandler) Turn(c *gin.Context) {
	var req turnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("message is required"))
		return
	}
	userID := ctxutil.UserID(c.Request.Context())
	res := h.turns.Handle(c.Request.Context(), userID, req.Message, req.History)
	c.Set(middleware.AgentKey, string(res.AgentID))
	response.RespondOK(c, res)
}

// POST /api/route
// body: { "message": "..." }
func (h *TurnHandler) Route(c *gin.Context) {
	var req turnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	id := h.turns.Route(c.Request.Context(), req.Message)
	c.Set(middleware.AgentKey, string(id))
	response.RespondOK(c, gin.H{"agent_id": id})
}
