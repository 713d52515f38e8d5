package routes

import (
	"github.com/mkucukkoc/fitcal-backend/controllers"
	"github.com/mkucukkoc/fitcal-backend/middlewares"

	"github.com/gin-gonic/gin"
)

// Deps bundles the constructed controllers; cmd/main wires them once at boot.
type Deps struct {
	Meals    *controllers.MealController
	Progress *controllers.ProgressController
	Chat     *controllers.ChatController
	Realtime *controllers.RealtimeController
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.Default()

	// Public auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
	}

	// Protected user routes
	user := r.Group("/user")
	user.Use(middlewares.AuthMiddleware())
	{
		user.GET("/profile", controllers.GetProfile)
		user.PUT("/profile", controllers.UpdateProfile)
	}

	meals := r.Group("/meals")
	meals.Use(middlewares.AuthMiddleware())
	{
		meals.POST("", d.Meals.CreateMeal)
		meals.GET("", d.Meals.ListMeals)
		meals.GET("/:id", d.Meals.GetMeal)
		meals.POST("/:id/analyze", d.Meals.AnalyzeMeal)
		meals.POST("/:id/confirm", d.Meals.ConfirmMeal)
	}

	progress := r.Group("/progress")
	progress.Use(middlewares.AuthMiddleware())
	{
		progress.GET("/daily", d.Progress.GetDaily)
		progress.GET("/weekly", d.Progress.GetWeekly)
		progress.POST("/water", d.Progress.LogWater)
	}

	chat := r.Group("/chat")
	chat.Use(middlewares.AuthMiddleware())
	{
		chat.POST("/message", d.Chat.SendMessage)
		chat.POST("/message/stream", d.Chat.SendMessageStream)
		chat.GET("/sessions/:id/messages", d.Chat.GetHistory)
	}

	ws := r.Group("/ws")
	ws.Use(middlewares.AuthMiddleware())
	{
		ws.GET("", d.Realtime.ChatWS)
	}

	return r
}
