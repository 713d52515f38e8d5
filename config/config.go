package config

import (
	"fmt"
	"log"
	"os"

	"github.com/mkucukkoc/fitcal-backend/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := AutoMigrate(DB); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}
}

// AutoMigrate is shared with the test setup, which runs against sqlite.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Meal{},
		&models.MealItem{},
		&models.AnalysisResult{},
		&models.DailyStats{},
		&models.ChatSession{},
		&models.ChatMessage{},
		&models.MemorySummary{},
	)
}

// GetEnv returns the env var value or the fallback when unset.
func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GeminiConfig collects the model-client settings at construction time instead
// of reading the environment on every call. Precedence: operation-specific
// override env → family-wide default env → hardcoded default.
type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	ChatModel   string
	VisionModel string
	Env         string // "production" disables all mock fallbacks
}

func LoadGeminiConfig() GeminiConfig {
	family := GetEnv("GEMINI_MODEL", "gemini-2.0-flash")
	return GeminiConfig{
		APIKey:      os.Getenv("GEMINI_API_KEY"),
		BaseURL:     GetEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		ChatModel:   GetEnv("GEMINI_CHAT_MODEL", family),
		VisionModel: GetEnv("GEMINI_VISION_MODEL", family),
		Env:         GetEnv("APP_ENV", "development"),
	}
}
