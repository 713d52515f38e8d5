package services

import (
	"errors"
	"time"

	"github.com/mkucukkoc/fitcal-backend/config"
	"github.com/mkucukkoc/fitcal-backend/models"
	"github.com/mkucukkoc/fitcal-backend/utils"
)

type ProfileInput struct {
	FullName      string  `json:"full_name"`
	Birthday      string  `json:"birthday"` // YYYY-MM-DD
	Gender        string  `json:"gender"`
	HeightCm      float64 `json:"height_cm"`
	WeightKg      float64 `json:"weight_kg"`
	Goal          string  `json:"goal"`
	ActivityLevel string  `json:"activity_level"`
	Locale        string  `json:"locale"`
	Timezone      string  `json:"timezone"`
	Onboarded     bool    `json:"onboarded"`
}

// applyProfileDefaults fills the fields the mobile app expects to always be
// present. New profiles get sensible defaults rather than empty enums.
func applyProfileDefaults(user *models.User) bool {
	changed := false
	if user.Goal == "" {
		user.Goal = "maintain"
		changed = true
	}
	if user.ActivityLevel == "" {
		user.ActivityLevel = "moderate"
		changed = true
	}
	if user.Locale == "" {
		user.Locale = "tr"
		changed = true
	}
	if user.Timezone == "" {
		user.Timezone = "Europe/Istanbul"
		changed = true
	}
	return changed
}

// GetUser loads a user by id, lazily filling profile defaults on first access.
func GetUser(userID uint) (*models.User, error) {
	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		return nil, errors.New("user not found")
	}
	if applyProfileDefaults(&user) {
		if err := config.DB.Save(&user).Error; err != nil {
			return nil, err
		}
	}
	return &user, nil
}

// GetUserProfile renders the profile together with the derived values the app
// shows on the dashboard.
func GetUserProfile(userID uint) (map[string]interface{}, error) {
	user, err := GetUser(userID)
	if err != nil {
		return nil, err
	}

	targets := utils.CalculateTargets(
		user.WeightKg, user.HeightCm, utils.CalculateAge(user.Birthday),
		user.Gender, user.ActivityLevel, user.Goal,
	)
	bmi := utils.BMI(user.HeightCm, user.WeightKg)

	return map[string]interface{}{
		"id":             user.ID,
		"email":          user.Email,
		"full_name":      user.FullName,
		"birthday":       user.Birthday.Format("2006-01-02"),
		"age":            utils.CalculateAge(user.Birthday),
		"gender":         user.Gender,
		"height_cm":      user.HeightCm,
		"weight_kg":      user.WeightKg,
		"goal":           user.Goal,
		"activity_level": user.ActivityLevel,
		"locale":         user.Locale,
		"timezone":       user.Timezone,
		"onboarded":      user.Onboarded,
		"bmi":            bmi,
		"bmi_category":   utils.BMICategory(bmi),
		"targets":        targets,
	}, nil
}

// UpdateUserProfile applies the provided fields. Targets snapshotted onto
// existing daily-stats records are deliberately not recomputed.
func UpdateUserProfile(userID uint, input ProfileInput) (*models.User, error) {
	user, err := GetUser(userID)
	if err != nil {
		return nil, err
	}

	if input.FullName != "" {
		user.FullName = input.FullName
	}
	if input.Birthday != "" {
		if birthday, err := time.Parse("2006-01-02", input.Birthday); err == nil {
			user.Birthday = birthday
		}
	}
	if input.Gender != "" {
		user.Gender = input.Gender
	}
	if input.HeightCm > 0 {
		user.HeightCm = input.HeightCm
	}
	if input.WeightKg > 0 {
		user.WeightKg = input.WeightKg
	}
	if input.Goal != "" {
		user.Goal = input.Goal
	}
	if input.ActivityLevel != "" {
		user.ActivityLevel = input.ActivityLevel
	}
	if input.Locale != "" {
		user.Locale = input.Locale
	}
	if input.Timezone != "" {
		user.Timezone = input.Timezone
	}
	user.Onboarded = input.Onboarded

	if err := config.DB.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}
