package services

import (
	"testing"

	"github.com/mkucukkoc/fitcal-backend/models"
	"github.com/mkucukkoc/fitcal-backend/utils"
)

func TestGetOrCreateSnapshotsTargets(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	svc := NewProgressService(db)

	stats, err := svc.GetOrCreate(user, "2025-03-10")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	want := utils.CalculateTargets(
		user.WeightKg, user.HeightCm, utils.CalculateAge(user.Birthday),
		user.Gender, user.ActivityLevel, user.Goal,
	)
	if stats.CaloriesGoal != want.Calories || stats.ProteinGoalG != want.ProteinG {
		t.Errorf("goals = %.0f/%.0f, want %.0f/%.0f",
			stats.CaloriesGoal, stats.ProteinGoalG, want.Calories, want.ProteinG)
	}
	if stats.CaloriesConsumed != 0 || stats.WaterMl != 0 {
		t.Errorf("fresh record is not zeroed: %+v", stats)
	}
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	svc := NewProgressService(db)

	first, err := svc.GetOrCreate(user, "2025-03-10")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.GetOrCreate(user, "2025-03-10")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Errorf("second call created a new record: %d vs %d", first.ID, second.ID)
	}

	var count int64
	db.Model(&models.DailyStats{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Errorf("have %d records, want 1", count)
	}
}

func TestGoalsFrozenAfterProfileChange(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	svc := NewProgressService(db)

	before, err := svc.GetOrCreate(user, "2025-03-10")
	if err != nil {
		t.Fatal(err)
	}

	user.WeightKg = 95
	user.Goal = "gain"
	if err := db.Save(user).Error; err != nil {
		t.Fatal(err)
	}

	after, err := svc.GetOrCreate(user, "2025-03-10")
	if err != nil {
		t.Fatal(err)
	}
	if after.CaloriesGoal != before.CaloriesGoal {
		t.Errorf("day goal moved after profile change: %.0f -> %.0f", before.CaloriesGoal, after.CaloriesGoal)
	}

	// a new day picks up the new profile
	fresh, err := svc.GetOrCreate(user, "2025-03-11")
	if err != nil {
		t.Fatal(err)
	}
	if fresh.CaloriesGoal <= before.CaloriesGoal {
		t.Errorf("next day goal %.0f not above old %.0f for a heavier gain profile", fresh.CaloriesGoal, before.CaloriesGoal)
	}
}

func TestIncrementAddsAndClampsNegatives(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	svc := NewProgressService(db)

	stats, err := svc.Increment(user, "2025-03-10", StatDelta{Calories: 500, ProteinG: 30, CarbsG: 40, FatG: 10})
	if err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if stats.CaloriesConsumed != 500 || stats.ProteinG != 30 {
		t.Errorf("after first increment: %+v", stats)
	}

	stats, err = svc.Increment(user, "2025-03-10", StatDelta{Calories: 250, ProteinG: -999, WaterMl: -1})
	if err != nil {
		t.Fatal(err)
	}
	if stats.CaloriesConsumed != 750 {
		t.Errorf("calories = %.0f, want 750", stats.CaloriesConsumed)
	}
	if stats.ProteinG != 30 || stats.WaterMl != 0 {
		t.Errorf("negative deltas not clamped: protein %.0f, water %.0f", stats.ProteinG, stats.WaterMl)
	}
}

func TestLogWater(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	svc := NewProgressService(db)

	if _, err := svc.LogWater(user, "2025-03-10", 250); err != nil {
		t.Fatal(err)
	}
	stats, err := svc.LogWater(user, "2025-03-10", 500)
	if err != nil {
		t.Fatal(err)
	}
	if stats.WaterMl != 750 {
		t.Errorf("water = %.0f, want 750", stats.WaterMl)
	}
}

func TestGetWeeklyStats(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	svc := NewProgressService(db)

	seed := []models.DailyStats{
		{UserID: user.ID, Date: "2025-03-08", CaloriesConsumed: 2000, ProteinG: 120, WaterMl: 2000},
		{UserID: user.ID, Date: "2025-03-09", CaloriesConsumed: 1800, ProteinG: 90, WaterMl: 1500},
		{UserID: user.ID, Date: "2025-03-10", CaloriesConsumed: 0, ProteinG: 0, WaterMl: 500},
		// outside the window
		{UserID: user.ID, Date: "2025-03-01", CaloriesConsumed: 9999},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatal(err)
		}
	}

	week, err := svc.GetWeeklyStats(user, "2025-03-10", 7)
	if err != nil {
		t.Fatalf("GetWeeklyStats failed: %v", err)
	}

	if week.From != "2025-03-04" || week.To != "2025-03-10" {
		t.Errorf("window = %s..%s", week.From, week.To)
	}
	if week.DaysTracked != 3 {
		t.Errorf("days tracked = %d, want 3", week.DaysTracked)
	}
	if week.AvgCalories != 1267 { // round(3800/3)
		t.Errorf("avg calories = %.0f, want 1267", week.AvgCalories)
	}
	if week.AvgProteinG != 70 {
		t.Errorf("avg protein = %.0f, want 70", week.AvgProteinG)
	}
	if week.StreakDays != 2 { // the zero-calorie day does not count
		t.Errorf("streak = %d, want 2", week.StreakDays)
	}
	if len(week.Days) != 3 {
		t.Errorf("returned %d day rows, want 3", len(week.Days))
	}
}

func TestGetWeeklyStatsEmptyWindow(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	svc := NewProgressService(db)

	week, err := svc.GetWeeklyStats(user, "2025-03-10", 7)
	if err != nil {
		t.Fatal(err)
	}
	if week.DaysTracked != 0 || week.AvgCalories != 0 || week.StreakDays != 0 {
		t.Errorf("empty window aggregated to %+v", week)
	}
}
