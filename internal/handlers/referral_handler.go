package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skillvest/referral-backend/internal/middleware"
	"github.com/skillvest/referral-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReferralHandler handles referral-related HTTP requests
type ReferralHandler struct {
	referralService *services.ReferralService
}

// NewReferralHandler creates a new ReferralHandler
func NewReferralHandler(referralService *services.ReferralService) *ReferralHandler {
	return &ReferralHandler{referralService: referralService}
}

// IssueCode handles POST /referrals/code
func (h *ReferralHandler) IssueCode(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	code, err := h.referralService.IssueReferralCode(c, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrCodeGenerationExhausted):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue code: " + err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"referralCode": code})
}

// ValidateCode handles GET /referrals/validate/:code
func (h *ReferralHandler) ValidateCode(c *gin.Context) {
	referrer, err := h.referralService.ResolveReferralCode(c, c.Param("code"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidReferralCode) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate code: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referrer": gin.H{
			"username":     referrer.Username,
			"referralCode": referrer.ReferralCode,
		},
	})
}

// signupRequest is the payload for POST /referrals/signup
type signupRequest struct {
	UserID       string `json:"userId" binding:"required"`
	ReferralCode string `json:"referralCode" binding:"required"`
}

// Signup handles POST /referrals/signup
func (h *ReferralHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	if err := h.referralService.CompleteSignup(c, userID, req.ReferralCode); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidReferralCode),
			errors.Is(err, services.ErrCircularReferral):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrAlreadyReferred):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete signup: " + err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Referral signup processed"})
}

// GetStats handles GET /referrals/stats
func (h *ReferralHandler) GetStats(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	stats, err := h.referralService.GetStats(c, userID)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get stats: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetNetwork handles GET /referrals/tree
func (h *ReferralHandler) GetNetwork(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	edges, err := h.referralService.GetNetwork(c, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get network: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, edges)
}
