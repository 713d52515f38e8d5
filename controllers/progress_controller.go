package controllers

import (
	"net/http"
	"strconv"

	"github.com/mkucukkoc/fitcal-backend/services"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	progress *services.ProgressService
}

func NewProgressController(progress *services.ProgressService) *ProgressController {
	return &ProgressController{progress: progress}
}

func (pc *ProgressController) GetDaily(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := pc.progress.GetOrCreate(user, c.Query("date"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (pc *ProgressController) GetWeekly(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	days := 0
	if v := c.Query("days"); v != "" {
		days, _ = strconv.Atoi(v)
	}

	week, err := pc.progress.GetWeeklyStats(user, c.Query("end_date"), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, week)
}

type LogWaterInput struct {
	AmountMl float64 `json:"amount_ml" binding:"required,gt=0"`
	Date     string  `json:"date"`
}

func (pc *ProgressController) LogWater(c *gin.Context) {
	var input LogWaterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := pc.progress.LogWater(user, input.Date, input.AmountMl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}
