package api

import (
	"alcyxob/gym-membership/internal/domain" // Needed for RoleMiddleware
	"alcyxob/gym-membership/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Services bundles everything the HTTP layer depends on.
type Services struct {
	Auth          service.AuthService
	Accounts      service.AccountService
	Access        service.AccessService
	Plans         service.PlanService
	Notifications service.NotificationService
	Reports       service.ReportService
}

func SetupRoutes(router *gin.Engine, jwtSecret string, svc Services) {
	authHandler := NewAuthHandler(svc.Auth, svc.Accounts)
	facilityHandler := NewFacilityHandler(svc.Access)
	planHandler := NewPlanHandler(svc.Plans)
	notificationHandler := NewNotificationHandler(svc.Notifications)
	trainerHandler := NewTrainerHandler(svc.Accounts)
	adminHandler := NewAdminHandler(svc.Accounts)
	reportHandler := NewReportHandler(svc.Reports)

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
		protected.GET("/me", authHandler.Me)

		// --- Facility access ---
		protected.POST("/facility/scan", facilityHandler.Scan)

		// --- Plans (meal and workout) ---
		planGroup := protected.Group("/plans/:kind")
		{
			planGroup.POST("/request", planHandler.RequestPlan)
			planGroup.POST("/general", planHandler.CreateGeneralPlan) // Allowed roles are configured in the service
			planGroup.GET("/mine", planHandler.ListMyPlans)
			planGroup.GET("/:id", planHandler.GetPlan)
			planGroup.PUT("/:id", planHandler.UpdatePlan)
			planGroup.POST("/:id/feedback", planHandler.AddFeedback)
		}

		// --- Notifications ---
		notificationGroup := protected.Group("/notifications")
		{
			notificationGroup.GET("", notificationHandler.List)
			notificationGroup.GET("/unread-count", notificationHandler.UnreadCount)
			notificationGroup.PATCH("/read-all", notificationHandler.MarkAllRead)
			notificationGroup.PATCH("/:id/read", notificationHandler.MarkRead)
		}

		// --- Trainer Specific Routes ---
		trainerApiGroup := protected.Group("/trainer")
		trainerApiGroup.Use(RoleMiddleware(domain.RoleTrainer))
		{
			trainerApiGroup.GET("/profile", trainerHandler.GetProfile)
			trainerApiGroup.PUT("/profile", trainerHandler.UpdateProfile)
			trainerApiGroup.GET("/requests", planHandler.ListTrainerRequests)
		}

		// --- Admin Routes ---
		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin))
		{
			adminGroup.POST("/users/:id/trainer", adminHandler.PromoteTrainer)
			adminGroup.DELETE("/users/:id/trainer", adminHandler.DemoteTrainer)
			adminGroup.PATCH("/users/:id/tier", adminHandler.UpdateTier)
			adminGroup.PATCH("/users/:id/membership", adminHandler.UpdateMembership)

			adminGroup.POST("/facilities", facilityHandler.CreateFacility)
			adminGroup.GET("/facilities", facilityHandler.ListFacilities)
			adminGroup.GET("/access-logs", facilityHandler.ListAccessLogs)

			adminGroup.DELETE("/plans/:id", planHandler.DeletePlan)

			adminGroup.POST("/reports/access-logs", reportHandler.ExportAccessLogs)
			adminGroup.GET("/reports", reportHandler.ListReports)
			adminGroup.GET("/reports/:id/download", reportHandler.GetDownloadURL)
			adminGroup.DELETE("/reports/:id", reportHandler.DeleteReport)
		}
	}
}
