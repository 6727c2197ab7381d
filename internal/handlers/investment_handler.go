package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "finsight/internal/errors"
	"finsight/internal/pagination"
	"finsight/internal/services"
)

// InvestmentHandler handles holding and portfolio requests.
type InvestmentHandler struct {
	investmentService services.InvestmentServicer
	auditService      services.AuditServicer
}

// NewInvestmentHandler creates a new InvestmentHandler.
func NewInvestmentHandler(investmentService services.InvestmentServicer, auditService services.AuditServicer) *InvestmentHandler {
	return &InvestmentHandler{investmentService: investmentService, auditService: auditService}
}

// CreateHoldingRequest represents the request payload for creating a holding
type CreateHoldingRequest struct {
	AccountID     string  `json:"account_id" binding:"required,uuid"`
	Symbol        string  `json:"symbol" binding:"required,ticker_symbol"`
	Name          string  `json:"name" binding:"omitempty,max=100"`
	Shares        float64 `json:"shares" binding:"required,gt=0"`
	PricePerShare int64   `json:"price_per_share" binding:"required,gt=0"`
	Currency      string  `json:"currency" binding:"omitempty,iso4217"`
}

// TradeRequest represents the request payload for a purchase or sale.
type TradeRequest struct {
	Shares        float64 `json:"shares" binding:"required,gt=0"`
	PricePerShare int64   `json:"price_per_share" binding:"required,gt=0"`
}

// CreateHolding records a new position in an investment account.
func (h *InvestmentHandler) CreateHolding(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateHoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	holding, err := h.investmentService.CreateHolding(userID, req.AccountID, req.Symbol, req.Name, req.Shares, req.PricePerShare, req.Currency)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_HOLDING", "holding", holding.ID, c.ClientIP(),
		map[string]interface{}{"symbol": req.Symbol, "shares": req.Shares})

	c.JSON(http.StatusCreated, gin.H{"holding": holding})
}

// ListHoldings returns the authenticated user's holdings with current prices.
func (h *InvestmentHandler) ListHoldings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	holdings, err := h.investmentService.GetUserHoldings(c.Request.Context(), userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, holdings)
}

// GetHolding returns a single holding by ID.
func (h *InvestmentHandler) GetHolding(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	holdingID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	holding, err := h.investmentService.GetHoldingByID(userID, holdingID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"holding": holding})
}

// RecordPurchase adds shares to a holding at the weighted-average cost basis.
func (h *InvestmentHandler) RecordPurchase(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	holdingID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	holding, err := h.investmentService.RecordPurchase(userID, holdingID, req.Shares, req.PricePerShare)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "RECORD_PURCHASE", "holding", holdingID, c.ClientIP(),
		map[string]interface{}{"shares": req.Shares, "price_per_share": req.PricePerShare})

	c.JSON(http.StatusOK, gin.H{"holding": holding})
}

// RecordSale removes shares from a holding, leaving the cost basis unchanged.
func (h *InvestmentHandler) RecordSale(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	holdingID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	holding, err := h.investmentService.RecordSale(userID, holdingID, req.Shares, req.PricePerShare)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "RECORD_SALE", "holding", holdingID, c.ClientIP(),
		map[string]interface{}{"shares": req.Shares, "price_per_share": req.PricePerShare})

	c.JSON(http.StatusOK, gin.H{"holding": holding})
}

// DeleteHolding removes a holding.
func (h *InvestmentHandler) DeleteHolding(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	holdingID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.investmentService.DeleteHolding(userID, holdingID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_HOLDING", "holding", holdingID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// GetPortfolio returns the aggregated portfolio summary across all holdings.
func (h *InvestmentHandler) GetPortfolio(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	portfolio, err := h.investmentService.GetPortfolio(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolio": portfolio})
}
