package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/intentlab/intent-backend/internal/services"
)

type AIHandler struct {
	intentService services.IntentService
	chatService   services.ChatService
}

func NewAIHandler(intentService services.IntentService, chatService services.ChatService) *AIHandler {
	return &AIHandler{intentService: intentService, chatService: chatService}
}

func (ah *AIHandler) Chat(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	intentID, ok := pathUUID(c, "intentId")
	if !ok {
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.Message == "" {
		RespondError(c, http.StatusBadRequest, "missing_fields", errors.New("message is required"))
		return
	}

	if _, err := ah.intentService.GetOwnedIntent(c.Request.Context(), intentID, userID); err != nil {
		RespondServiceError(c, err)
		return
	}
	reply, err := ah.chatService.Chat(c.Request.Context(), intentID, req.Message)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"response": reply})
}
