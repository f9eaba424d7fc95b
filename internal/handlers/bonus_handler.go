package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skillvest/referral-backend/internal/services"
)

// BonusHandler handles bonus administration HTTP requests
type BonusHandler struct {
	bonusService *services.BonusService
}

// NewBonusHandler creates a new BonusHandler
func NewBonusHandler(bonusService *services.BonusService) *BonusHandler {
	return &BonusHandler{bonusService: bonusService}
}

// RunMonthlyCycle handles POST /admin/bonuses/run-monthly. Month and
// year default to the current period when omitted.
func (h *BonusHandler) RunMonthlyCycle(c *gin.Context) {
	now := time.Now()
	month, err := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month"})
		return
	}
	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year"})
		return
	}

	summary, err := h.bonusService.RunMonthlyCycle(c, month, year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run monthly cycle: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetLastCycle handles GET /admin/bonuses/last-cycle
func (h *BonusHandler) GetLastCycle(c *gin.Context) {
	record, err := h.bonusService.LastMonthlyCycle(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load last cycle: " + err.Error()})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No monthly cycle has run yet"})
		return
	}
	c.JSON(http.StatusOK, record)
}
