package main

import (
	"alcyxob/gym-membership/internal/api" // Import API package
	"alcyxob/gym-membership/internal/cache"
	"alcyxob/gym-membership/internal/config"
	"alcyxob/gym-membership/internal/domain"
	"alcyxob/gym-membership/internal/email"
	"alcyxob/gym-membership/internal/repository"
	"alcyxob/gym-membership/internal/repository/mongo"
	"alcyxob/gym-membership/internal/service"
	"alcyxob/gym-membership/internal/storage"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
)

// @title Gym Membership API
// @version 1.0
// @description API for facility access, meal and workout plans, and gym administration.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	configPath := pflag.String("config", ".", "directory containing config.yaml and an optional .env")
	pflag.Parse()

	log.Println("Starting Gym Membership Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(*configPath)
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
	// Synchronous: the one-open-plan rule depends on the partial unique index.
	log.Println("Ensuring database indexes...")
	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 1*time.Minute)
	mongo.EnsureIndexes(indexCtx, appDB)
	cancelIndexes()

	// --- Initialize Storage ---
	log.Println("Initializing file storage service...")
	storageCtx, cancelStorage := context.WithTimeout(context.Background(), 30*time.Second)
	fileStorage, err := storage.NewS3Storage(storageCtx, cfg.S3)
	cancelStorage()
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	tx := mongo.NewTransactor(dbClient)
	userRepo := mongo.NewMongoUserRepository(appDB)
	profileRepo := mongo.NewMongoTrainerProfileRepository(appDB)
	accessLogRepo := mongo.NewMongoAccessLogRepository(appDB)
	planRepo := mongo.NewMongoPlanRepository(appDB)
	planItemRepo := mongo.NewMongoPlanItemRepository(appDB)
	feedbackRepo := mongo.NewMongoPlanFeedbackRepository(appDB)
	notificationRepo := mongo.NewMongoNotificationRepository(appDB)
	reportRepo := mongo.NewMongoReportRepository(appDB)
	facilityRepo := facilityRepository(cfg.Redis, mongo.NewMongoFacilityRepository(appDB))

	// --- Initialize Services ---
	log.Println("Initializing services...")
	var mailer email.Sender
	if cfg.Email.ResendAPIKey != "" {
		mailer = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From)
		log.Println("Email mirror enabled.")
	}

	notificationService := service.NewNotificationService(notificationRepo, userRepo, mailer)
	authService := service.NewAuthService(userRepo, notificationService, cfg.JWT.Secret, cfg.JWT.Expiration)
	accountService := service.NewAccountService(tx, userRepo, profileRepo)
	accessService := service.NewAccessService(tx, userRepo, facilityRepo, accessLogRepo, notificationService,
		service.WithAlertTimeout(cfg.Notifications.DispatchTimeout))
	planService := service.NewPlanService(tx, userRepo, planRepo, planItemRepo, feedbackRepo, notificationService,
		service.WithGeneralPlanRoles(generalPlanRoles(cfg.Plans.GeneralPlanRoles)...),
		service.WithPlanNotifyTimeout(cfg.Notifications.DispatchTimeout))
	reportService := service.NewReportService(accessLogRepo, reportRepo, fileStorage, cfg.S3.ReportPrefix)

	if cfg.Admin.Email != "" {
		bootstrapCtx, cancelBootstrap := context.WithTimeout(context.Background(), 10*time.Second)
		if err := accountService.BootstrapAdmin(bootstrapCtx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			log.Printf("ERROR: Admin bootstrap failed: %v", err)
		}
		cancelBootstrap()
	}

	// --- Initialize Gin Engine ---
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, api.Services{
		Auth:          authService,
		Accounts:      accountService,
		Access:        accessService,
		Plans:         planService,
		Notifications: notificationService,
		Reports:       reportService,
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second, // Report exports stream to S3 within the request
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}

// facilityRepository wraps the Mongo catalog with the Redis cache when one is
// configured and reachable.
func facilityRepository(cfg config.RedisConfig, inner repository.FacilityRepository) repository.FacilityRepository {
	if cfg.Address == "" {
		return inner
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := cache.NewRedisClient(ctx, cfg.Address, cfg.Password, cfg.DB)
	if err != nil {
		log.Printf("WARN: Redis unavailable at %s, facility cache disabled: %v", cfg.Address, err)
		return inner
	}
	log.Printf("Facility cache enabled (ttl %s).", cfg.TTL)
	return cache.NewFacilityCache(inner, client, cfg.TTL)
}

func generalPlanRoles(raw []string) []domain.Role {
	roles := make([]domain.Role, 0, len(raw))
	for _, r := range raw {
		role := domain.Role(r)
		if !role.Valid() {
			log.Fatalf("FATAL: Unknown role %q in plans.general_plan_roles", r)
		}
		roles = append(roles, role)
	}
	return roles
}
