package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/intentlab/intent-backend/internal/repos"
	"github.com/intentlab/intent-backend/internal/services"
)

type MarketplaceHandler struct {
	marketplaceService services.MarketplaceService
}

func NewMarketplaceHandler(marketplaceService services.MarketplaceService) *MarketplaceHandler {
	return &MarketplaceHandler{marketplaceService: marketplaceService}
}

func (mh *MarketplaceHandler) Publish(c *gin.Context) {
	sellerID, ok := callerID(c)
	if !ok {
		return
	}
	intentID, ok := pathUUID(c, "intentId")
	if !ok {
		return
	}
	var req struct {
		Price           *float64 `json:"price"`
		TransactionType string   `json:"transaction_type"`
	}
	// Body is optional; price and transaction type have defaults.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	listing, err := mh.marketplaceService.Publish(c.Request.Context(), intentID, sellerID, req.Price, req.TransactionType)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "intent listed", "listing": listing})
}

func (mh *MarketplaceHandler) Browse(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}
	filters := repos.BrowseFilters{Category: c.Query("category")}
	if raw := c.Query("min_credibility"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_filter", err)
			return
		}
		filters.MinCredibility = &v
	}
	listings, err := mh.marketplaceService.Browse(c.Request.Context(), filters)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"listings": listings})
}

func (mh *MarketplaceHandler) Purchase(c *gin.Context) {
	buyerID, ok := callerID(c)
	if !ok {
		return
	}
	targetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	intentID, err := mh.marketplaceService.Purchase(c.Request.Context(), targetID, buyerID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "purchase completed", "intentId": intentID})
}
