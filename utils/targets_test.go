package utils

import (
	"math"
	"testing"
)

func TestCalculateTargetsInvariants(t *testing.T) {
	activities := []string{"sedentary", "light", "moderate", "active", "very_active"}
	goals := []string{"lose", "maintain", "gain"}
	genders := []string{"male", "female", "other"}

	for _, activity := range activities {
		for _, goal := range goals {
			for _, gender := range genders {
				got := CalculateTargets(70, 170, 30, gender, activity, goal)

				if got.Calories < 1200 {
					t.Errorf("%s/%s/%s: calories %.0f below floor", gender, activity, goal, got.Calories)
				}

				macroKcal := got.ProteinG*4 + got.CarbsG*4 + got.FatG*9
				if math.Abs(macroKcal-got.Calories) > 10 {
					t.Errorf("%s/%s/%s: macro kcal %.1f vs calories %.0f", gender, activity, goal, macroKcal, got.Calories)
				}
			}
		}
	}
}

func TestCalculateTargetsDefaults(t *testing.T) {
	defaulted := CalculateTargets(0, 0, 0, "male", "moderate", "maintain")
	explicit := CalculateTargets(70, 170, 30, "male", "moderate", "maintain")
	if defaulted != explicit {
		t.Errorf("defaulted %+v != explicit %+v", defaulted, explicit)
	}
}

func TestCalculateTargetsGoalAdjustment(t *testing.T) {
	lose := CalculateTargets(80, 180, 30, "male", "moderate", "lose")
	maintain := CalculateTargets(80, 180, 30, "male", "moderate", "maintain")
	gain := CalculateTargets(80, 180, 30, "male", "moderate", "gain")

	if !(lose.Calories < maintain.Calories && maintain.Calories < gain.Calories) {
		t.Errorf("calories not ordered: lose %.0f, maintain %.0f, gain %.0f",
			lose.Calories, maintain.Calories, gain.Calories)
	}
}

func TestCalculateTargetsFloor(t *testing.T) {
	got := CalculateTargets(30, 140, 30, "female", "sedentary", "lose")
	if got.Calories != 1200 {
		t.Errorf("calories = %.0f, want floor 1200", got.Calories)
	}
}

func TestCalculateTargetsMifflinStJeor(t *testing.T) {
	// 10*70 + 6.25*170 - 5*30 + 5 = 1617.5; ×1.2 = 1941
	got := CalculateTargets(70, 170, 30, "male", "sedentary", "maintain")
	if got.Calories != 1941 {
		t.Errorf("calories = %.0f, want 1941", got.Calories)
	}
}
