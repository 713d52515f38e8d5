package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mkucukkoc/fitcal-backend/logger"
	"github.com/mkucukkoc/fitcal-backend/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrImageUnavailable means the meal's photo was only ever stored as a local
// placeholder and cannot be resolved to bytes for analysis.
var ErrImageUnavailable = errors.New("meal image is not fetchable")

// MealTotals is what confirmation hands back for the caller to roll into
// daily stats. Confirmation itself never touches stats.
type MealTotals struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// MealAnalysisService turns a stored meal photo into structured nutrition data
// and reconciles a confirmation into meal totals and line items.
type MealAnalysisService struct {
	db     *gorm.DB
	model  VisionModel
	vision *VisionService // optional label tagger
	client *http.Client
}

func NewMealAnalysisService(db *gorm.DB, model VisionModel, vision *VisionService) *MealAnalysisService {
	return &MealAnalysisService{
		db:     db,
		model:  model,
		vision: vision,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Analyze resolves the meal's image bytes, invokes the model and persists a
// new selected analysis result. The meal record itself is not mutated.
func (s *MealAnalysisService) Analyze(ctx context.Context, mealID uint, modelName, language string) (*models.AnalysisResult, error) {
	var meal models.Meal
	if err := s.db.First(&meal, mealID).Error; err != nil {
		return nil, err // gorm.ErrRecordNotFound surfaces as 404 upstream
	}

	data, mimeType, err := s.resolveImage(ctx, &meal)
	if err != nil {
		return nil, err
	}

	var labels []string
	if s.vision != nil {
		labels, err = s.vision.DetectLabels(ctx, data)
		if err != nil {
			logger.Warn("vision labels unavailable", zap.Uint("meal_id", mealID), zap.Error(err))
			labels = nil
		}
	}

	analysis, err := s.model.AnalyzeImage(ctx, data, mimeType, language)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(analysis)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize analysis: %w", err)
	}

	// the freshest result becomes the sole selected one
	if err := s.db.Model(&models.AnalysisResult{}).
		Where("meal_id = ?", meal.ID).
		Update("is_selected", false).Error; err != nil {
		return nil, err
	}

	result := &models.AnalysisResult{
		MealID:     meal.ID,
		ModelName:  modelName,
		Confidence: analysis.Confidence,
		IsSelected: true,
		RawJSON:    string(raw),
		Labels:     strings.Join(labels, ","),
	}
	if err := s.db.Create(result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// Confirm marks the meal confirmed, writes its totals from the selected
// analysis result (or keeps whatever totals already sit on the record, which
// covers the manual-entry path) and materializes one item per analysis entry.
func (s *MealAnalysisService) Confirm(ctx context.Context, mealID uint, resultID *uint) (*MealTotals, error) {
	var meal models.Meal
	if err := s.db.First(&meal, mealID).Error; err != nil {
		return nil, err
	}

	result, err := s.selectResult(&meal, resultID)
	if err != nil {
		return nil, err
	}

	totals := &MealTotals{
		Calories: meal.Calories,
		ProteinG: meal.ProteinG,
		CarbsG:   meal.CarbsG,
		FatG:     meal.FatG,
	}

	var analysis *FoodAnalysis
	if result != nil {
		analysis = &FoodAnalysis{}
		if err := json.Unmarshal([]byte(result.RawJSON), analysis); err != nil {
			return nil, fmt.Errorf("stored analysis is not valid JSON: %w", err)
		}
		if analysis.TotalMacros != nil {
			totals.Calories = analysis.TotalCalories
			totals.ProteinG = analysis.TotalMacros.ProteinG
			totals.CarbsG = analysis.TotalMacros.CarbsG
			totals.FatG = analysis.TotalMacros.FatG
		}
		if analysis.Name != "" && meal.Name == "" {
			meal.Name = analysis.Name
		}
	}

	meal.Status = models.MealStatusConfirmed
	meal.Calories = totals.Calories
	meal.ProteinG = totals.ProteinG
	meal.CarbsG = totals.CarbsG
	meal.FatG = totals.FatG
	if err := s.db.Save(&meal).Error; err != nil {
		return nil, err
	}

	if analysis != nil && len(analysis.Items) > 0 {
		items := make([]models.MealItem, 0, len(analysis.Items))
		for _, it := range analysis.Items {
			unit := it.Unit
			if unit == "" {
				unit = "g"
			}
			items = append(items, models.MealItem{
				MealID:   meal.ID,
				Name:     it.Name,
				Amount:   it.Amount,
				Unit:     unit,
				Calories: it.Calories,
				ProteinG: it.ProteinG,
				CarbsG:   it.CarbsG,
				FatG:     it.FatG,
			})
		}
		if err := s.db.Create(&items).Error; err != nil {
			return nil, err
		}
	}

	return totals, nil
}

// selectResult returns the authoritative analysis result: the explicitly
// chosen one (marked selected), else the most recently created, else nil when
// the meal was never analyzed.
func (s *MealAnalysisService) selectResult(meal *models.Meal, resultID *uint) (*models.AnalysisResult, error) {
	var result models.AnalysisResult

	if resultID != nil {
		if err := s.db.Where("id = ? AND meal_id = ?", *resultID, meal.ID).First(&result).Error; err != nil {
			return nil, err
		}
		if err := s.db.Model(&models.AnalysisResult{}).
			Where("meal_id = ?", meal.ID).
			Update("is_selected", false).Error; err != nil {
			return nil, err
		}
		result.IsSelected = true
		if err := s.db.Save(&result).Error; err != nil {
			return nil, err
		}
		return &result, nil
	}

	err := s.db.Where("meal_id = ?", meal.ID).Order("created_at DESC").First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// resolveImage tries, in order: the inline stored payload, a decodable data
// URL, a remote fetch of the stored URL.
func (s *MealAnalysisService) resolveImage(ctx context.Context, meal *models.Meal) ([]byte, string, error) {
	if meal.ImageInline != "" {
		data, err := base64.StdEncoding.DecodeString(meal.ImageInline)
		if err != nil {
			return nil, "", fmt.Errorf("stored inline image is corrupt: %w", err)
		}
		return data, meal.ImageMime, nil
	}

	if strings.HasPrefix(meal.ImageURL, "data:") {
		return DecodeDataURL(meal.ImageURL)
	}

	if strings.HasPrefix(meal.ImageURL, "http://") || strings.HasPrefix(meal.ImageURL, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, meal.ImageURL, nil)
		if err != nil {
			return nil, "", err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, "", fmt.Errorf("failed to fetch meal image: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, "", fmt.Errorf("meal image fetch returned %d", resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, "", err
		}
		mimeType := resp.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = meal.ImageMime
		}
		return data, mimeType, nil
	}

	return nil, "", fmt.Errorf("%w: %q", ErrImageUnavailable, meal.ImageURL)
}
