package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"
	echoSwagger "github.com/swaggo/echo-swagger"

	"fixflow/internal/caching"
	"fixflow/internal/handlers"
	"fixflow/internal/jobs/background"
	"fixflow/internal/middleware"
	"fixflow/internal/models"
	"fixflow/internal/repositories"
	"fixflow/internal/services"
)

const version = "1.0.0"

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret: %s", jwtSecret)
	}
	jwksURL := os.Getenv("IDENTITY_JWKS_URL")

	// Redis configuration
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if s := os.Getenv("REDIS_DB"); s != "" {
		if db, err := strconv.Atoi(s); err == nil {
			redisDB = db
		}
	}

	// MinIO configuration
	minioEndpoint := getEnv("MINIO_ENDPOINT", "localhost:9000")
	minioAccessKey := getEnv("MINIO_ACCESS_KEY", "minioadmin")
	minioSecretKey := getEnv("MINIO_SECRET_KEY", "minioadmin")
	minioUseSSL := os.Getenv("MINIO_USE_SSL") == "true"
	attachmentBucket := getEnv("ATTACHMENT_BUCKET", "fixflow-attachments")

	storageSvc, err := services.NewMinioStorage(minioEndpoint, minioAccessKey, minioSecretKey, minioUseSSL)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}
	if err := storageSvc.EnsureBucketExists(context.Background(), attachmentBucket); err != nil {
		log.Fatalf("Failed to prepare attachment bucket: %v", err)
	}

	// External provider configuration
	identityURL := getEnv("IDENTITY_API_URL", "http://localhost:9100")
	identityKey := os.Getenv("IDENTITY_API_KEY")
	billingURL := getEnv("BILLING_API_URL", "http://localhost:9200")
	billingKey := os.Getenv("BILLING_API_KEY")
	billingWebhookSecret := os.Getenv("BILLING_WEBHOOK_SECRET")
	appBaseURL := getEnv("APP_BASE_URL", "http://localhost:3000")

	// Message channel senders. Without provider credentials messages go
	// to the log, which is what you want in development.
	var emailSender services.EmailSender
	if url := os.Getenv("EMAIL_API_URL"); url != "" {
		emailSender = services.NewHTTPEmailSender(url, os.Getenv("EMAIL_API_KEY"), getEnv("EMAIL_FROM", "noreply@fixflow.app"))
	} else {
		emailSender = services.NewLogEmailSender()
		log.Printf("EMAIL_API_URL not set, email notifications will be logged only")
	}
	var smsSender services.SMSSender
	if url := os.Getenv("SMS_API_URL"); url != "" {
		smsSender = services.NewHTTPSMSSender(url, os.Getenv("SMS_API_KEY"), os.Getenv("SMS_FROM"))
	} else {
		smsSender = services.NewLogSMSSender()
		log.Printf("SMS_API_URL not set, SMS notifications will be logged only")
	}

	// Create repositories
	orgRepo := repositories.NewOrganizationRepo(pool)
	profileRepo := repositories.NewProfileRepo(pool)
	propertyRepo := repositories.NewPropertyRepo(pool)
	unitRepo := repositories.NewUnitRepo(pool)
	requestRepo := repositories.NewRequestRepo(pool)
	invitationRepo := repositories.NewInvitationRepo(pool)
	notificationRepo := repositories.NewNotificationRepo(pool)
	preferenceRepo := repositories.NewPreferenceRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Create services
	directorySvc := services.NewDirectoryService(orgRepo, profileRepo, cacheSvc)
	authzSvc := services.NewAuthzService()
	limitsSvc := services.NewLimitsService(directorySvc, propertyRepo, unitRepo, profileRepo, cacheSvc)
	identitySvc := services.NewIdentityService(identityURL, identityKey)
	billingSvc := services.NewBillingService(billingURL, billingKey, billingWebhookSecret)
	notificationSvc := services.NewNotificationService(notificationRepo, preferenceRepo, directorySvc, limitsSvc, emailSender, smsSender, appBaseURL)
	requestSvc := services.NewRequestService(requestRepo, unitRepo, propertyRepo, directorySvc, authzSvc, notificationSvc, storageSvc, attachmentBucket)
	invitationSvc := services.NewInvitationService(invitationRepo, profileRepo, preferenceRepo, unitRepo, directorySvc, authzSvc, limitsSvc, identitySvc, notificationSvc, emailSender, appBaseURL)
	propertySvc := services.NewPropertyService(propertyRepo, unitRepo, directorySvc, authzSvc, limitsSvc)
	authSvc := services.NewAuthService(orgRepo, profileRepo, preferenceRepo, identitySvc, cacheSvc, jwtSecret)

	// Create handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, directorySvc)
	requestHandlers := handlers.NewRequestHandlers(requestSvc)
	propertyHandlers := handlers.NewPropertyHandlers(propertySvc)
	memberHandlers := handlers.NewMemberHandlers(invitationSvc, profileRepo)
	invitationHandlers := handlers.NewInvitationHandlers(invitationSvc, authSvc)
	notificationHandlers := handlers.NewNotificationHandlers(notificationSvc)
	subscriptionHandlers := handlers.NewSubscriptionHandlers(limitsSvc, billingSvc, authzSvc, directorySvc, orgRepo, cacheSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	authMiddleware := middleware.NewAuthMiddleware(directorySvc, jwtSecret, jwksURL)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.Live)
	e.GET("/health/ready", healthHandlers.Ready)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// API routes
	v1 := e.Group("/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/signup", authHandlers.Signup)
	auth.POST("/login", authHandlers.Login, middleware.RateLimit(cacheSvc, 20, time.Minute))
	auth.POST("/refresh", authHandlers.Refresh)

	v1.POST("/invitations/accept", invitationHandlers.Accept, middleware.RateLimit(cacheSvc, 10, time.Minute))
	v1.GET("/plans", subscriptionHandlers.ListPlans)
	v1.POST("/webhooks/billing", subscriptionHandlers.HandleWebhook)

	// Protected routes
	protected := v1.Group("")
	protected.Use(echojwt.WithConfig(authMiddleware.JWTConfig()))
	protected.Use(authMiddleware.LoadCaller())

	protected.GET("/me", authHandlers.Me)

	// Maintenance requests
	protected.POST("/requests", requestHandlers.Create)
	protected.GET("/requests", requestHandlers.List)
	protected.GET("/requests/:id", requestHandlers.Get)
	protected.PATCH("/requests/:id", requestHandlers.Update)
	protected.POST("/requests/:id/status", requestHandlers.Transition)
	protected.POST("/requests/:id/assign", requestHandlers.Assign)
	protected.POST("/requests/:id/attachments", requestHandlers.AddAttachment)

	// Properties and units
	staffOnly := middleware.RequireRole(models.RoleOwner, models.RoleManager)
	protected.POST("/properties", propertyHandlers.Create, staffOnly)
	protected.GET("/properties", propertyHandlers.List)
	protected.GET("/properties/:id", propertyHandlers.Get)
	protected.PUT("/properties/:id", propertyHandlers.Update, staffOnly)
	protected.DELETE("/properties/:id", propertyHandlers.Delete, staffOnly)
	protected.POST("/properties/:id/units", propertyHandlers.CreateUnit, staffOnly)
	protected.GET("/properties/:id/units", propertyHandlers.ListUnits)
	protected.DELETE("/units/:id/tenant", propertyHandlers.UnassignTenant, staffOnly)

	// Members and invitations
	protected.GET("/members", memberHandlers.ListMembers, staffOnly)
	protected.GET("/members/:id", memberHandlers.GetMember, staffOnly)
	protected.POST("/workers", memberHandlers.InviteWorker, staffOnly)
	protected.POST("/managers", memberHandlers.InviteManager, middleware.RequireRole(models.RoleOwner))
	protected.POST("/tenants", memberHandlers.InviteTenant, staffOnly)

	// Notifications
	protected.GET("/notifications", notificationHandlers.List)
	protected.POST("/notifications/:id/read", notificationHandlers.MarkRead)
	protected.DELETE("/notifications/:id", notificationHandlers.Delete)
	protected.GET("/notification-preferences", notificationHandlers.GetPreferences)
	protected.PUT("/notification-preferences", notificationHandlers.UpdatePreferences)

	// Subscription and billing
	protected.POST("/subscription/check-limit", subscriptionHandlers.CheckLimit)
	protected.POST("/subscription/checkout", subscriptionHandlers.CreateCheckout, middleware.RequireRole(models.RoleOwner))

	// Background jobs
	scheduler := background.NewJobScheduler(invitationSvc, notificationSvc)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start job scheduler: %v", err)
	}

	// Start server with graceful shutdown
	port := 8080
	if s := os.Getenv("PORT"); s != "" {
		if p, err := strconv.Atoi(s); err == nil {
			port = p
		}
	}

	go func() {
		log.Printf("fixflow %s listening on :%d", version, port)
		if err := e.Start(fmt.Sprintf(":%d", port)); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := scheduler.Stop(); err != nil {
		log.Printf("Failed to stop scheduler cleanly: %v", err)
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shut down server cleanly: %v", err)
	}
}
