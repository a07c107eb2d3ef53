package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classhub/quiz-service/internal/config"
	"github.com/classhub/quiz-service/internal/models"
	"github.com/classhub/quiz-service/internal/repositories"
	"github.com/classhub/quiz-service/internal/services"
	"github.com/classhub/quiz-service/internal/utils"
)

type HandlerManager struct {
	serviceManager  services.ServiceManager
	sessionHandler  *SessionHandler
	quizHandler     *QuizHandler
	questionHandler *QuestionHandler
	attemptHandler  *AttemptHandler
	authMiddleware  *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	return &HandlerManager{
		serviceManager:  serviceManager,
		sessionHandler:  NewSessionHandler(serviceManager.Session(), logger),
		quizHandler:     NewQuizHandler(serviceManager.Quiz(), logger),
		questionHandler: NewQuestionHandler(serviceManager.Question(), logger),
		attemptHandler:  NewAttemptHandler(serviceManager.Attempt(), serviceManager.Export(), logger),
		authMiddleware:  NewCasdoorAuthMiddleware(casdoorConfig, userRepo),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	teacherOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Live quiz sessions - any authenticated user
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.CreateSession)
			sessions.GET("/:token", hm.sessionHandler.GetSession)
			sessions.POST("/:token/start", hm.sessionHandler.StartSession)
			sessions.POST("/:token/answer", hm.sessionHandler.SubmitAnswer)
			sessions.POST("/:token/next", hm.sessionHandler.NextQuestion)
			sessions.POST("/:token/prev", hm.sessionHandler.PrevQuestion)
			sessions.POST("/:token/hint", hm.sessionHandler.RevealHint)
			sessions.POST("/:token/finish", hm.sessionHandler.FinishSession)
			sessions.GET("/:token/result", hm.sessionHandler.GetResult)
		}

		// Quiz configuration - Teachers and Admins only
		quizzes := v1.Group("/quizzes")
		{
			quizzes.POST("", teacherOnly, hm.quizHandler.CreateQuiz)
			quizzes.GET("", teacherOnly, hm.quizHandler.ListQuizzes)
			quizzes.GET("/:unit_id/:category", teacherOnly, hm.quizHandler.GetQuiz)
			quizzes.PUT("/:unit_id/:category", teacherOnly, hm.quizHandler.UpdateQuiz)
			quizzes.DELETE("/:unit_id/:category", teacherOnly, hm.quizHandler.DeleteQuiz)
			quizzes.GET("/:unit_id/:category/stats", teacherOnly, hm.quizHandler.GetQuizStats)
		}

		// Question pools - Teachers and Admins only
		questions := v1.Group("/questions")
		questions.Use(teacherOnly)
		{
			questions.POST("", hm.questionHandler.CreateQuestion)
			questions.POST("/batch", hm.questionHandler.CreateQuestionsBatch)
			questions.GET("", hm.questionHandler.ListQuestions)
			questions.GET("/:id", hm.questionHandler.GetQuestion)
			questions.PUT("/:id", hm.questionHandler.UpdateQuestion)
			questions.DELETE("/:id", hm.questionHandler.DeleteQuestion)
		}

		// Attempt history
		attempts := v1.Group("/attempts")
		{
			attempts.GET("", teacherOnly, hm.attemptHandler.ListAttempts)
			attempts.GET("/export", teacherOnly, hm.attemptHandler.ExportAttempts)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
		}

		// Student self-service
		students := v1.Group("/students")
		{
			students.GET("/me/attempts", hm.attemptHandler.ListMyAttempts)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": "quiz-service",
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "quiz-service",
		})
	})
}
