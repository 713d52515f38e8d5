package main

import (
	"github.com/mkucukkoc/fitcal-backend/config"
	"github.com/mkucukkoc/fitcal-backend/controllers"
	"github.com/mkucukkoc/fitcal-backend/logger"
	"github.com/mkucukkoc/fitcal-backend/routes"
	"github.com/mkucukkoc/fitcal-backend/services"

	"go.uber.org/zap"
)

func main() {
	logger.Init()
	defer logger.Close()

	config.InitDB()

	gemini := services.NewGeminiService(config.LoadGeminiConfig())
	images := services.NewImageService()
	hub := services.NewRealtimeHub()

	vision, err := services.NewVisionService()
	if err != nil {
		logger.Warn("vision labels disabled", zap.Error(err))
		vision = nil
	}

	progress := services.NewProgressService(config.DB)
	analysis := services.NewMealAnalysisService(config.DB, gemini, vision)
	chat := services.NewChatService(config.DB, gemini, progress, hub, nil)

	r := routes.SetupRouter(routes.Deps{
		Meals:    controllers.NewMealController(images, analysis, progress),
		Progress: controllers.NewProgressController(progress),
		Chat:     controllers.NewChatController(chat),
		Realtime: controllers.NewRealtimeController(hub),
	})

	addr := ":" + config.GetEnv("PORT", "8080")
	if err := r.Run(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
