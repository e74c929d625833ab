package controllers

import (
	"errors"
	"net/http"

	"backend/services"

	"github.com/gin-gonic/gin"
)

type WaterController struct {
	Svc *services.WaterService
}

func NewWaterController(svc *services.WaterService) *WaterController {
	return &WaterController{Svc: svc}
}

func (h *WaterController) GetWaterLevel(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	level, err := h.Svc.CurrentLevel(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"water_level": level})
}

type WaterLevelInput struct {
	Action string `json:"action"`
	Amount int    `json:"amount"`
}

// UpdateWaterLevel echoes the requested action without mutating anything;
// kept for compatibility with the original client script.
func (h *WaterController) UpdateWaterLevel(c *gin.Context) {
	input := WaterLevelInput{Amount: 5}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "action": input.Action, "amount": input.Amount})
}

func (h *WaterController) Refill(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var input services.ConservationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.Svc.ApplyConservation(userID, input)
	if errors.Is(err, services.ErrNoActionSelected) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please select at least one action"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        res.Summary,
		"previous_level": res.Before,
		"water_level":    res.After,
		"gained":         res.Gained,
	})
}

type TrackChatbotInput struct {
	Message string `json:"message"`
	Reply   string `json:"reply"`
}

func (h *WaterController) TrackChatbot(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var input TrackChatbotInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.Svc.ApplyChatDepletion(userID, input.Message, input.Reply)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_words":     res.UserWords,
		"reply_words":    res.ReplyWords,
		"total_words":    res.TotalWords,
		"volume_ml":      res.VolumeML,
		"previous_level": res.Before,
		"water_level":    res.After,
	})
}

// --- helpers ---

func userIDFromCtx(c *gin.Context) (uint, bool) {
	v, ok := c.Get("userID")
	if !ok {
		return 0, false
	}
	switch id := v.(type) {
	case uint:
		return id, true
	case int:
		return uint(id), true
	case int64:
		return uint(id), true
	default:
		return 0, false
	}
}
