package controllers

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"

	"github.com/mkucukkoc/fitcal-backend/config"
	"github.com/mkucukkoc/fitcal-backend/models"
	"github.com/mkucukkoc/fitcal-backend/services"
	"github.com/mkucukkoc/fitcal-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type MealController struct {
	images   *services.ImageService
	analysis *services.MealAnalysisService
	progress *services.ProgressService
}

func NewMealController(images *services.ImageService, analysis *services.MealAnalysisService, progress *services.ProgressService) *MealController {
	return &MealController{images: images, analysis: analysis, progress: progress}
}

type CreateMealInput struct {
	Source      string  `json:"source" binding:"required,oneof=camera manual"`
	Name        string  `json:"name"`
	ImageBase64 string  `json:"image_base64"` // raw base64 or a data URL
	ImageMime   string  `json:"image_mime"`
	Date        string  `json:"date"` // civil date, defaults to today
	Calories    float64 `json:"calories"`
	ProteinG    float64 `json:"protein_g"`
	CarbsG      float64 `json:"carbs_g"`
	FatG        float64 `json:"fat_g"`
}

// CreateMeal opens a draft meal from a photo upload or a manual entry.
func (mc *MealController) CreateMeal(c *gin.Context) {
	var input CreateMealInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	date := input.Date
	if date == "" {
		date = utils.Today(user.Timezone)
	}

	meal := models.Meal{
		UserID:    user.ID,
		Source:    input.Source,
		Status:    models.MealStatusDraft,
		Name:      input.Name,
		LocalDate: date,
		Calories:  input.Calories,
		ProteinG:  input.ProteinG,
		CarbsG:    input.CarbsG,
		FatG:      input.FatG,
	}

	if input.ImageBase64 != "" {
		data, mimeType, err := services.DecodeDataURL(input.ImageBase64)
		if err != nil {
			// not a data URL, try plain base64 with the declared mime
			data, err = base64.StdEncoding.DecodeString(input.ImageBase64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "image_base64 is not decodable"})
				return
			}
			mimeType = input.ImageMime
		}

		stored, err := mc.images.Store(c.Request.Context(), data, mimeType, user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		meal.ImageURL = stored.URL
		meal.ImageInline = stored.Inline
		meal.ImageMime = stored.Mime
	} else if input.Source == models.MealSourceCamera {
		c.JSON(http.StatusBadRequest, gin.H{"error": "camera meals require image_base64"})
		return
	}

	if err := config.DB.Create(&meal).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, meal)
}

func (mc *MealController) ListMeals(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	q := config.DB.Preload("Items").Where("user_id = ?", user.ID)
	if date := c.Query("date"); date != "" {
		q = q.Where("local_date = ?", date)
	}

	var meals []models.Meal
	if err := q.Order("created_at DESC").Find(&meals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, meals)
}

func (mc *MealController) GetMeal(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	meal, ok := mc.ownedMeal(c, user)
	if !ok {
		return
	}

	var results []models.AnalysisResult
	config.DB.Where("meal_id = ?", meal.ID).Order("created_at DESC").Find(&results)

	c.JSON(http.StatusOK, gin.H{"meal": meal, "analysis_results": results})
}

type AnalyzeMealInput struct {
	Model    string `json:"model"`
	Language string `json:"language"`
}

func (mc *MealController) AnalyzeMeal(c *gin.Context) {
	var input AnalyzeMealInput
	_ = c.ShouldBindJSON(&input) // body is optional

	user, ok := currentUser(c)
	if !ok {
		return
	}
	meal, ok := mc.ownedMeal(c, user)
	if !ok {
		return
	}

	if input.Language == "" {
		input.Language = user.Locale
	}
	if input.Model == "" {
		input.Model = config.LoadGeminiConfig().VisionModel
	}

	result, err := mc.analysis.Analyze(c.Request.Context(), meal.ID, input.Model, input.Language)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, result)
	case errors.Is(err, services.ErrImageUnavailable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "meal image cannot be fetched for analysis"})
	case errors.Is(err, services.ErrModelNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analysis is not available"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "meal not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type ConfirmMealInput struct {
	AnalysisResultID *uint `json:"analysis_result_id"`
}

// ConfirmMeal finalizes the meal and rolls its totals into the day's stats.
// Confirmation is meal-scoped; the aggregation is this caller's job.
func (mc *MealController) ConfirmMeal(c *gin.Context) {
	var input ConfirmMealInput
	_ = c.ShouldBindJSON(&input)

	user, ok := currentUser(c)
	if !ok {
		return
	}
	meal, ok := mc.ownedMeal(c, user)
	if !ok {
		return
	}

	totals, err := mc.analysis.Confirm(c.Request.Context(), meal.ID, input.AnalysisResultID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "analysis result not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stats, err := mc.progress.Increment(user, meal.LocalDate, services.StatDelta{
		Calories: totals.Calories,
		ProteinG: totals.ProteinG,
		CarbsG:   totals.CarbsG,
		FatG:     totals.FatG,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"totals": totals, "daily_stats": stats})
}

func (mc *MealController) ownedMeal(c *gin.Context, user *models.User) (*models.Meal, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meal id"})
		return nil, false
	}

	var meal models.Meal
	if err := config.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&meal).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "meal not found"})
		return nil, false
	}
	return &meal, true
}
