package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skillvest/referral-backend/internal/middleware"
	"github.com/skillvest/referral-backend/internal/services"
)

// InvestmentHandler handles investment HTTP requests
type InvestmentHandler struct {
	investmentService *services.InvestmentService
}

// NewInvestmentHandler creates a new InvestmentHandler
func NewInvestmentHandler(investmentService *services.InvestmentService) *InvestmentHandler {
	return &InvestmentHandler{investmentService: investmentService}
}

// investmentRequest is the payload for POST /investments
type investmentRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

// Create handles POST /investments
func (h *InvestmentHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req investmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.investmentService.RecordInvestment(c, userID, req.Amount); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process investment: " + err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Investment processed successfully"})
}
