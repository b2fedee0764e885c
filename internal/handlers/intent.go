package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/intentlab/intent-backend/internal/requestdata"
	"github.com/intentlab/intent-backend/internal/services"
)

type IntentHandler struct {
	intentService services.IntentService
}

func NewIntentHandler(intentService services.IntentService) *IntentHandler {
	return &IntentHandler{intentService: intentService}
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthenticated", errors.New("missing request identity"))
		return uuid.Nil, false
	}
	return rd.UserID, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return uuid.Nil, false
	}
	return id, true
}

func (ih *IntentHandler) Create(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		UserInput string `json:"user_input"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.UserInput == "" {
		RespondError(c, http.StatusBadRequest, "missing_fields", errors.New("user_input is required"))
		return
	}
	profile, err := ih.intentService.CreateIntent(c.Request.Context(), userID, req.UserInput)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, profile)
}

func (ih *IntentHandler) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	intents, err := ih.intentService.ListIntents(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"intents": intents})
}

func (ih *IntentHandler) Get(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	intentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	profile, err := ih.intentService.GetIntentProfile(c.Request.Context(), intentID, userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, profile)
}

func (ih *IntentHandler) Delete(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	intentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := ih.intentService.DeleteIntent(c.Request.Context(), intentID, userID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "intent deleted"})
}

func (ih *IntentHandler) Verify(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	intentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	result, err := ih.intentService.VerifyIntent(c.Request.Context(), intentID, userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

func (ih *IntentHandler) Track(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	intentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	result, err := ih.intentService.TrackIntent(c.Request.Context(), intentID, userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

func (ih *IntentHandler) UpdateStatus(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	intentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := ih.intentService.UpdateStatus(c.Request.Context(), intentID, userID, req.Status); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "status updated"})
}
