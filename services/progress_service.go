package services

import (
	"errors"
	"math"

	"github.com/mkucukkoc/fitcal-backend/models"
	"github.com/mkucukkoc/fitcal-backend/utils"

	"gorm.io/gorm"
)

// StatDelta carries the six incrementable fields of a day record. Negative
// values are clamped to zero: daily stats only ever grow.
type StatDelta struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
	WaterMl  float64 `json:"water_ml"`
	Steps    float64 `json:"steps"`
}

// WeeklyStats aggregates a date window. Averages divide by the number of day
// records that exist, not the window length.
type WeeklyStats struct {
	From        string              `json:"from"`
	To          string              `json:"to"`
	AvgCalories float64             `json:"avg_calories"`
	AvgProteinG float64             `json:"avg_protein_g"`
	AvgCarbsG   float64             `json:"avg_carbs_g"`
	AvgFatG     float64             `json:"avg_fat_g"`
	AvgWaterMl  float64             `json:"avg_water_ml"`
	StreakDays  int                 `json:"streak_days"` // days with calories consumed
	DaysTracked int                 `json:"days_tracked"`
	Days        []models.DailyStats `json:"days"`
}

// ProgressService reads and increments per-day nutrition aggregates.
type ProgressService struct {
	db *gorm.DB
}

func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{db: db}
}

// GetOrCreate returns the user's record for the local date, lazily creating a
// zeroed one with goals snapshotted from the current profile. An existing
// record is returned unchanged: a day's goals are frozen at first touch even
// if the profile changed since.
func (s *ProgressService) GetOrCreate(user *models.User, date string) (*models.DailyStats, error) {
	if date == "" {
		date = utils.Today(user.Timezone)
	}

	var stats models.DailyStats
	err := s.db.Where("user_id = ? AND date = ?", user.ID, date).First(&stats).Error
	if err == nil {
		return &stats, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	targets := utils.CalculateTargets(
		user.WeightKg, user.HeightCm, utils.CalculateAge(user.Birthday),
		user.Gender, user.ActivityLevel, user.Goal,
	)
	stats = models.DailyStats{
		UserID:       user.ID,
		Date:         date,
		CaloriesGoal: targets.Calories,
		ProteinGoalG: targets.ProteinG,
		CarbsGoalG:   targets.CarbsG,
		FatGoalG:     targets.FatG,
	}
	if err := s.db.Create(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

// Increment adds the delta onto the day record. This is read-then-add-then-
// write without concurrency control: two simultaneous confirmations for the
// same user and date can lose an update. Accepted, since the dominant pattern
// is one confirmation at a time per user.
func (s *ProgressService) Increment(user *models.User, date string, delta StatDelta) (*models.DailyStats, error) {
	stats, err := s.GetOrCreate(user, date)
	if err != nil {
		return nil, err
	}

	stats.CaloriesConsumed += nonNegative(delta.Calories)
	stats.ProteinG += nonNegative(delta.ProteinG)
	stats.CarbsG += nonNegative(delta.CarbsG)
	stats.FatG += nonNegative(delta.FatG)
	stats.WaterMl += nonNegative(delta.WaterMl)
	stats.Steps += nonNegative(delta.Steps)

	if err := s.db.Save(stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// LogWater records a drink against the day.
func (s *ProgressService) LogWater(user *models.User, date string, ml float64) (*models.DailyStats, error) {
	return s.Increment(user, date, StatDelta{WaterMl: ml})
}

// GetWeeklyStats aggregates the `days`-wide window ending at endDate (both in
// the user's zone; defaults: today, 7 days).
func (s *ProgressService) GetWeeklyStats(user *models.User, endDate string, days int) (*WeeklyStats, error) {
	if endDate == "" {
		endDate = utils.Today(user.Timezone)
	}
	if days <= 0 {
		days = 7
	}
	dates := utils.RecentDates(endDate, user.Timezone, days)

	var rows []models.DailyStats
	if err := s.db.
		Where("user_id = ? AND date IN ?", user.ID, dates).
		Order("date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := &WeeklyStats{
		From:        dates[0],
		To:          dates[len(dates)-1],
		DaysTracked: len(rows),
		Days:        rows,
	}
	if len(rows) == 0 {
		return out, nil
	}

	var cals, prot, carbs, fat, water float64
	for _, r := range rows {
		cals += r.CaloriesConsumed
		prot += r.ProteinG
		carbs += r.CarbsG
		fat += r.FatG
		water += r.WaterMl
		if r.CaloriesConsumed > 0 {
			out.StreakDays++
		}
	}

	n := float64(len(rows))
	out.AvgCalories = math.Round(cals / n)
	out.AvgProteinG = math.Round(prot / n)
	out.AvgCarbsG = math.Round(carbs / n)
	out.AvgFatG = math.Round(fat / n)
	out.AvgWaterMl = math.Round(water / n)
	return out, nil
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
