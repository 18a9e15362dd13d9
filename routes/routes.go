package routes

import (
	"net/http"

	"whatstrumps/handlers"
	"whatstrumps/middleware"
	"whatstrumps/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	playerHandler *handlers.PlayerHandler,
	gameHandler *handlers.GameHandler,
	authService *services.AuthService,
	logger *zap.Logger,
) {
	requireAuth := middleware.AuthMiddleware(authService, logger)

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		protected := api.Group("/")
		protected.Use(requireAuth)
		{
			protected.POST("/auth/logout", authHandler.Logout)
			protected.GET("/auth/profile", authHandler.GetProfile)
			protected.PUT("/auth/profile", authHandler.UpdateProfile)

			players := protected.Group("/players")
			{
				players.GET("", playerHandler.ListPlayers)
				players.POST("", playerHandler.CreatePlayer)
				players.GET("/:id", playerHandler.GetPlayer)
				players.DELETE("/:id", playerHandler.DeletePlayer)
			}

			games := protected.Group("/games")
			{
				games.GET("", gameHandler.ListGames)
				games.POST("", gameHandler.CreateGame)
				games.GET("/:id", gameHandler.GetGame)
				games.DELETE("/:id", gameHandler.DeleteGame)
				games.GET("/:id/standings", gameHandler.GetStandings)
				games.GET("/:id/history", gameHandler.GetHistory)
				games.PUT("/:id/rounds/:round/bids", gameHandler.SubmitBids)
				games.PUT("/:id/rounds/:round/scores", gameHandler.SubmitScores)
			}
		}
	}

	router.GET("/ws/games/:id", requireAuth, gameHandler.WatchGame)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
