package utils

import (
	"math"
	"time"
)

// Daily nutrition targets derived from the user profile.
type Targets struct {
	Calories float64 `json:"calories_goal"`
	ProteinG float64 `json:"protein_goal_g"`
	CarbsG   float64 `json:"carbs_goal_g"`
	FatG     float64 `json:"fat_goal_g"`
}

// Defaults applied when biometrics are missing.
const (
	defaultWeightKg = 70
	defaultHeightCm = 170
	defaultAgeYears = 30

	minDailyCalories = 1200
)

var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// CalculateTargets computes daily calorie and macro goals from biometrics.
// Mifflin–St Jeor basal rate × activity multiplier, ±15% for lose/gain,
// floored at 1200 kcal. Macro split is 30% protein / 40% carbs / 30% fat by
// calorie share (4/4/9 kcal per gram). Pure: all inputs are defaulted, no I/O.
func CalculateTargets(weightKg, heightCm float64, ageYears int, gender, activity, goal string) Targets {
	if weightKg <= 0 {
		weightKg = defaultWeightKg
	}
	if heightCm <= 0 {
		heightCm = defaultHeightCm
	}
	if ageYears <= 0 {
		ageYears = defaultAgeYears
	}

	bmr := 10*weightKg + 6.25*heightCm - 5*float64(ageYears)
	switch gender {
	case "male":
		bmr += 5
	case "female":
		bmr -= 161
	default:
		bmr -= 78
	}

	mult, ok := activityMultipliers[activity]
	if !ok {
		mult = activityMultipliers["moderate"]
	}
	calories := bmr * mult

	switch goal {
	case "lose":
		calories *= 0.85
	case "gain":
		calories *= 1.15
	}

	if calories < minDailyCalories {
		calories = minDailyCalories
	}
	calories = math.Round(calories)

	return Targets{
		Calories: calories,
		ProteinG: math.Round(calories * 0.30 / 4),
		CarbsG:   math.Round(calories * 0.40 / 4),
		FatG:     math.Round(calories * 0.30 / 9),
	}
}

// CalculateAge returns full years elapsed since the birthday.
func CalculateAge(birthday time.Time) int {
	if birthday.IsZero() {
		return 0
	}
	now := time.Now()
	age := now.Year() - birthday.Year()
	if now.YearDay() < birthday.YearDay() {
		age--
	}
	if age < 0 {
		age = 0
	}
	return age
}
