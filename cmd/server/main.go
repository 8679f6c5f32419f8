package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"strengthlab/fitness-app/internal/api"
	"strengthlab/fitness-app/internal/config"
	"strengthlab/fitness-app/internal/llm"
	"strengthlab/fitness-app/internal/repository"
	"strengthlab/fitness-app/internal/repository/mongo"
	"strengthlab/fitness-app/internal/repository/postgres"
	"strengthlab/fitness-app/internal/service"
	"strengthlab/fitness-app/internal/storage"
)

// @title StrengthLab API
// @version 1.0
// @description API for generating workout programs, program history, and video form analysis.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	log.Println("Starting StrengthLab Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureExerciseIndexes(ctx, appDB.Collection("exercises"))
		mongo.EnsureProgramIndexes(ctx, appDB.Collection("programs"))
		mongo.EnsureAnalysisIndexes(ctx, appDB.Collection("form_analyses"))
		log.Println("Index creation process completed.")
	}()

	// --- Legacy Database (optional, read-only) ---
	var legacyRepo repository.LegacyProgramRepository
	if cfg.Legacy.Enabled {
		log.Println("Connecting legacy database...")
		legacyDB, err := postgres.Open(cfg.Legacy.DSN)
		if err != nil {
			log.Fatalf("FATAL: Could not connect legacy database: %v", err)
		}
		defer legacyDB.Close()
		legacyRepo = postgres.NewLegacyProgramRepository(legacyDB)
		log.Println("Legacy database connected.")
	} else {
		log.Println("Legacy database disabled; history reads documents only.")
	}

	// --- Initialize Storage ---
	log.Println("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Model Client ---
	chatClient := llm.NewClient(cfg.LLM)
	log.Printf("Model client ready (model: %s)", cfg.LLM.Model)

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	exerciseRepo := mongo.NewMongoExerciseRepository(appDB)
	programRepo := mongo.NewMongoProgramRepository(appDB)
	analysisRepo := mongo.NewMongoAnalysisRepository(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	programService := service.NewProgramService(userRepo, programRepo, chatClient, cfg.Generation.FreeTierLimit)
	historyService := service.NewHistoryService(programRepo, legacyRepo)
	analysisService := service.NewAnalysisService(analysisRepo, fileStorage, chatClient)
	catalogService := service.NewCatalogService(exerciseRepo)

	// --- Seed Exercise Catalog ---
	if cfg.Catalog.File != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		seeded, err := catalogService.SeedFromFile(ctx, cfg.Catalog.File)
		cancel()
		if err != nil {
			// The catalog improves prompts but nothing hard-depends on it.
			log.Printf("WARN: Could not seed exercise catalog: %v", err)
		} else if seeded > 0 {
			log.Printf("Seeded %d catalog exercises.", seeded)
		}
	}

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(
		router,
		cfg.JWT.Secret,
		authService,
		programService,
		historyService,
		analysisService,
		catalogService,
		cfg.Generation.IncludeDebug,
	)

	// --- Start HTTP Server ---
	// WriteTimeout has to outlast the model call budget; generation holds the
	// response open until the model answers.
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.LLM.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the requests it is currently handling
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
