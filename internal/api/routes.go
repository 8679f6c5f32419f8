package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"strengthlab/fitness-app/internal/domain"
	"strengthlab/fitness-app/internal/service"
)

// SetupRoutes wires every handler into the router. includeDebug controls
// whether generation responses carry the diagnostics side channel.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	programService service.ProgramService,
	historyService service.HistoryService,
	analysisService service.AnalysisService,
	catalogService service.CatalogService,
	includeDebug bool,
) {
	authHandler := NewAuthHandler(authService)
	programHandler := NewProgramHandler(programService, includeDebug)
	historyHandler := NewHistoryHandler(historyService)
	analysisHandler := NewAnalysisHandler(analysisService)
	catalogHandler := NewCatalogHandler(catalogService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.POST("/auth/upgrade", authHandler.Upgrade)

		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			tier, _ := getUserTierFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userID.Hex(), "tier": tier})
		})

		// --- Workout Generation and Management ---
		workoutGroup := protected.Group("/workouts")
		{
			// POST /api/v1/workouts/generate - the main generation endpoint.
			// Free-tier callers are capped; over the cap it answers 403 with
			// the machine-readable limit reason.
			workoutGroup.POST("/generate", programHandler.Generate)

			workoutGroup.GET("", programHandler.List)
			workoutGroup.GET("/quota", programHandler.Quota)
			workoutGroup.GET("/:id", programHandler.Get)
			workoutGroup.PUT("/:id/cycles/:cycleKey/days/:dayKey", programHandler.UpdateDay)
			workoutGroup.POST("/:id/publish", programHandler.Publish)
			workoutGroup.DELETE("/:id", programHandler.Delete)
		}

		// --- Merged History (current + legacy backends) ---
		historyGroup := protected.Group("/history")
		{
			historyGroup.GET("", historyHandler.History)
			historyGroup.POST("/migrate", historyHandler.Migrate)
		}

		// --- Exercise Catalog (read-only) ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.GET("", catalogHandler.List)
			exerciseGroup.GET("/:id", catalogHandler.Get)
		}

		// --- Video Form Analysis (pro tier only) ---
		analysisGroup := protected.Group("/analyses")
		analysisGroup.Use(TierMiddleware(domain.TierPro))
		{
			analysisGroup.POST("/upload-url", analysisHandler.RequestUploadURL)
			analysisGroup.GET("", analysisHandler.List)
			analysisGroup.GET("/:id", analysisHandler.Get)
			analysisGroup.POST("/:id/confirm", analysisHandler.ConfirmUpload)
			analysisGroup.POST("/:id/analyze", analysisHandler.Analyze)
			analysisGroup.GET("/:id/video", analysisHandler.VideoURL)
		}
	}
}
