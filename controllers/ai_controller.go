package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/config"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/services"
	"go.uber.org/zap"
)

// maxStudyMessages bounds the conversation forwarded to the gateway
const maxStudyMessages = 50

// AIStudyRequest represents the ai-study body
type AIStudyRequest struct {
	Messages []services.ChatMessage `json:"messages"`
	Mode     string                 `json:"mode"`
}

// AIStudy handles POST /api/v1/ai-study
func AIStudy(c *gin.Context) {
	var req AIStudyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	// Only user and assistant turns reach the gateway; the mode prompt is the sole system turn
	messages := make([]services.ChatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if role != "user" && role != "assistant" {
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		messages = append(messages, services.ChatMessage{Role: role, Content: m.Content})
	}
	if len(messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages are required"})
		return
	}
	if len(messages) > maxStudyMessages {
		messages = messages[len(messages)-maxStudyMessages:]
	}

	assistant := services.GetAIGateway()
	if assistant == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": services.ErrAIGatewayNotConfigured.Error()})
		return
	}

	reply, err := assistant.Complete(c.Request.Context(), req.Mode, messages)
	if err != nil {
		config.GetLogger().Error("AI study request failed", zap.String("mode", req.Mode), zap.Error(err))
		message := "Erro ao processar sua solicitação"
		if errors.Is(err, services.ErrAIGatewayNotConfigured) {
			message = err.Error()
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
