package router

import (
	"net/http"
	"time"

	"github.com/examguard/examguard-backend/internal/config"
	"github.com/examguard/examguard-backend/internal/handler"
	"github.com/examguard/examguard-backend/internal/middleware"
	"github.com/examguard/examguard-backend/internal/response"
	"github.com/examguard/examguard-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Exam     *handler.ExamHandler
	Attempt  *handler.AttemptHandler
	Incident *handler.IncidentHandler
	Question *handler.QuestionHandler
	User     *handler.UserHandler
	Monitor  *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/signup", handlers.Auth.Signup)
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireJWT(authService, cfg.CookieName), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireJWT(authService, cfg.CookieName), handlers.Auth.Me)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService, cfg.CookieName),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.GET("/exams", handlers.Exam.ListAssigned)
		studentAPI.POST("/exams/:id/enroll", handlers.Exam.Enroll)
		studentAPI.GET("/exams/:id/paper", handlers.Exam.GetPaper)

		studentAPI.POST("/attempts", handlers.Attempt.Start)
		studentAPI.GET("/attempts", handlers.Attempt.ListMine)
		studentAPI.PUT("/attempts/:id/answers", handlers.Attempt.SaveAnswer)
		studentAPI.GET("/attempts/:id/draft", handlers.Attempt.GetDraft)
		studentAPI.PUT("/attempts/:id/draft", handlers.Attempt.SaveDraft)
		studentAPI.POST("/attempts/:id/submit", handlers.Attempt.Submit)
		studentAPI.GET("/attempts/:id/result", handlers.Attempt.GetResult)

		studentAPI.POST("/incidents", handlers.Incident.Report)
	}

	// ─── 3. WebSocket Group (WS Auth via token query) ──────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/monitor/publish", handlers.Monitor.Publish)
		ws.GET("/monitor/watch/:student_id", handlers.Monitor.Watch)
	}

	// ─── 4. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService, cfg.CookieName))
	{
		// Exam management
		adminAPI.POST("/exams", handlers.Exam.Create)
		adminAPI.PUT("/exams/:id", handlers.Exam.Update)
		adminAPI.DELETE("/exams/:id", handlers.Exam.Delete)
		adminAPI.GET("/exams/:id/incidents/:student_id/count", handlers.Incident.CountForStudent)

		// Question bank
		adminAPI.GET("/questions", handlers.Question.List)
		adminAPI.GET("/questions/:id", handlers.Question.Get)
		adminAPI.POST("/questions", handlers.Question.Create)
		adminAPI.PUT("/questions/:id", handlers.Question.Update)
		adminAPI.DELETE("/questions/:id", handlers.Question.Delete)

		// Incident review
		adminAPI.GET("/incidents", handlers.Incident.ListGrouped)

		// Account management
		adminAPI.GET("/users", handlers.User.List)
		adminAPI.DELETE("/users/:id", handlers.User.Delete)
	}

	return router
}
