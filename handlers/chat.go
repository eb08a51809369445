package handlers

import (
	"errors"
	"net/http"
	"time"

	"meetingagent/models"
	"meetingagent/services/session"
	"meetingagent/services/workflow"
	"meetingagent/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatHandler exposes the conversational scheduling endpoints.
type ChatHandler struct {
	Service *session.Service
	Logger  *zap.Logger
}

func NewChatHandler(svc *session.Service, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{Service: svc, Logger: logger}
}

// HandleChat processes one external turn: {session_id, message} in, the
// assistant's reply plus the full serialized workflow state out.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Logger.Error("Invalid chat request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	resp, err := h.Service.HandleTurn(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		if workflow.IsTransient(err) {
			h.Logger.Warn("transient failure handling turn",
				zap.String("sessionID", req.SessionID), zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "assistant temporarily unavailable",
				"details": "please retry this message",
			})
			return
		}
		h.Logger.Error("failed to handle turn",
			zap.String("sessionID", req.SessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to handle turn", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetSessionState returns the stored state for a session, for external
// debugging and resumption.
func (h *ChatHandler) GetSessionState(c *gin.Context) {
	sessionID := c.Param("sessionID")
	sess, err := h.Service.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load session", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sess)
}

// HealthHandler reports liveness plus the latest dependency snapshot.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"health":    utils.GetHealthStatus(),
		"checkedAt": time.Now(),
	})
}
