package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/learnhub-api/handlers"
	assignment_handlers "github.com/learnhub/learnhub-api/handlers/assignment"
	auth_handlers "github.com/learnhub/learnhub-api/handlers/auth"
	certificate_handlers "github.com/learnhub/learnhub-api/handlers/certificate"
	course_handlers "github.com/learnhub/learnhub-api/handlers/course"
	enrollment_handlers "github.com/learnhub/learnhub-api/handlers/enrollment"
	notification_handlers "github.com/learnhub/learnhub-api/handlers/notification"
	progress_handlers "github.com/learnhub/learnhub-api/handlers/progress"
	quiz_handlers "github.com/learnhub/learnhub-api/handlers/quiz"
	review_handlers "github.com/learnhub/learnhub-api/handlers/review"
	"github.com/learnhub/learnhub-api/model"
	"github.com/learnhub/learnhub-api/services"
	"github.com/learnhub/learnhub-api/utils/auth"
	"github.com/learnhub/learnhub-api/utils/cache"
	"github.com/learnhub/learnhub-api/utils/middleware"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Get JWT secret from environment
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "learnhub-api"
	}

	// Initialize JWT manager with config
	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Initialize Redis cache for brute force protection and verification caching
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection and verification caching will be disabled.", err)
	}

	// Initialize brute force protection
	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	// Initialize auth middleware with DB for blacklist checking
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Initialize services
	progressService := services.NewProgressService(db)
	enrollmentService := services.NewEnrollmentService(db)
	quizService := services.NewQuizService(db, progressService)
	assignmentService := services.NewAssignmentService(db, progressService)
	certificateService := services.NewCertificateService(db, redisCache)
	notificationService := services.NewNotificationService(db)

	// Initialize handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)
	courseHandler := course_handlers.NewCourseHandler(db, progressService)
	enrollmentHandler := enrollment_handlers.NewEnrollmentHandler(db, enrollmentService)
	progressHandler := progress_handlers.NewProgressHandler(db, progressService)
	quizHandler := quiz_handlers.NewQuizHandler(db, quizService)
	assignmentHandler := assignment_handlers.NewAssignmentHandler(db, assignmentService)
	certificateHandler := certificate_handlers.NewCertificateHandler(db, certificateService)
	reviewHandler := review_handlers.NewReviewHandler(db)
	notificationHandler := notification_handlers.NewNotificationHandler(notificationService)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", handlers.HealthCheck(db))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)

	// RequireRole reads the claims Required() stores, so it always runs behind it
	instructorOnly := authMiddleware.RequireRole(model.RoleInstructor, model.RoleAdmin)

	// Course catalog and content
	courses := api.Group("/courses")
	courses.Get("/", courseHandler.ListCourses)  // Public: browse published courses
	courses.Get("/:id", courseHandler.GetCourse) // Public: course overview
	courses.Post("/", authMiddleware.Required(), instructorOnly, courseHandler.CreateCourse)
	courses.Put("/:id", authMiddleware.Required(), instructorOnly, courseHandler.UpdateCourse)
	courses.Post("/:id/modules", authMiddleware.Required(), instructorOnly, courseHandler.CreateModule)

	// Enrolled content view with per-lesson lock state
	courses.Get("/:id/content", authMiddleware.Required(), courseHandler.GetCourseContent)
	courses.Get("/:id/progress", authMiddleware.Required(), progressHandler.GetCourseProgress)
	courses.Post("/:id/enroll", authMiddleware.Required(), enrollmentHandler.Enroll)

	// Reviews
	courses.Get("/:id/reviews", reviewHandler.ListReviews) // Public
	courses.Post("/:id/reviews", authMiddleware.Required(), reviewHandler.CreateReview)

	// Certificates nested under courses (student request)
	courses.Post("/:id/certificates", authMiddleware.Required(), certificateHandler.Request)

	// Modules (instructor content management)
	modules := api.Group("/modules", authMiddleware.Required())
	modules.Post("/:id/lessons", instructorOnly, courseHandler.CreateLesson)

	// Lessons
	lessons := api.Group("/lessons", authMiddleware.Required())
	lessons.Get("/:id", courseHandler.GetLesson)
	lessons.Post("/:id/complete", progressHandler.CompleteLesson)
	lessons.Post("/:id/quiz", instructorOnly, quizHandler.CreateQuiz)
	lessons.Post("/:id/assignment", instructorOnly, assignmentHandler.CreateAssignment)

	// Enrollments
	api.Get("/enrollments/me", authMiddleware.Required(), enrollmentHandler.MyEnrollments)

	// Quizzes
	quizzes := api.Group("/quizzes", authMiddleware.Required())
	quizzes.Get("/:id", quizHandler.GetQuiz)
	quizzes.Post("/:id/attempts", quizHandler.SubmitAttempt)
	quizzes.Get("/:id/attempts/best", quizHandler.GetBestAttempt)
	quizzes.Post("/:id/questions", instructorOnly, quizHandler.CreateQuestion)

	// Assignments
	assignments := api.Group("/assignments", authMiddleware.Required())
	assignments.Post("/:id/submissions", assignmentHandler.Submit)
	assignments.Get("/:id/submissions", instructorOnly, assignmentHandler.ListSubmissions)

	submissions := api.Group("/submissions", authMiddleware.Required())
	submissions.Get("/me", assignmentHandler.MySubmissions)
	submissions.Put("/:id/grade", instructorOnly, assignmentHandler.Grade)

	// Certificates
	certificates := api.Group("/certificates")
	certificates.Get("/verify/:code", certificateHandler.Verify) // Public verification
	certificates.Get("/me", authMiddleware.Required(), certificateHandler.MyCertificates)
	certificates.Put("/:id/issue", authMiddleware.Required(), instructorOnly, certificateHandler.Issue)
	certificates.Put("/:id/reject", authMiddleware.Required(), instructorOnly, certificateHandler.Reject)

	// Notifications
	notifications := api.Group("/notifications", authMiddleware.Required())
	notifications.Get("/", notificationHandler.ListNotifications)
	notifications.Get("/unread-count", notificationHandler.UnreadCount)
	notifications.Put("/read-all", notificationHandler.MarkAllRead)
	notifications.Put("/:id/read", notificationHandler.MarkRead)
}
