package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classhub/quiz-service/internal/repositories"
	"github.com/classhub/quiz-service/internal/services"
	"github.com/classhub/quiz-service/internal/utils"
)

// QuizHandler manages the per-(unit, category) quiz configuration.
type QuizHandler struct {
	BaseHandler
	quizService services.QuizService
}

func NewQuizHandler(quizService services.QuizService, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		quizService: quizService,
	}
}

// CreateQuiz creates a new quiz configuration.
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req services.QuizCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Creating quiz", "unit_id", req.UnitID, "category", req.Category)

	quiz, err := h.quizService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// GetQuiz returns one quiz configuration.
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quiz, err := h.quizService.GetByKey(c.Request.Context(), c.Param("unit_id"), c.Param("category"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// UpdateQuiz applies a partial update to a quiz configuration.
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	var req services.QuizUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	unitID := c.Param("unit_id")
	category := c.Param("category")
	h.LogRequest(c, "Updating quiz", "unit_id", unitID, "category", category)

	quiz, err := h.quizService.Update(c.Request.Context(), unitID, category, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// DeleteQuiz removes a quiz configuration.
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	unitID := c.Param("unit_id")
	category := c.Param("category")
	h.LogRequest(c, "Deleting quiz", "unit_id", unitID, "category", category)

	if err := h.quizService.Delete(c.Request.Context(), unitID, category); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Quiz deleted"})
}

// ListQuizzes returns quiz configurations with pagination.
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 20)

	filters := repositories.QuizFilters{
		UnitID:   c.Query("unit_id"),
		Category: c.Query("category"),
		Limit:    size,
		Offset:   (page - 1) * size,
	}
	if active := c.Query("active"); active != "" {
		v := active == "true"
		filters.Active = &v
	}

	quizzes, total, err := h.quizService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Data: gin.H{
			"quizzes": quizzes,
			"total":   total,
			"page":    page,
			"size":    size,
		},
	})
}

// GetQuizStats returns the aggregate attempt statistics for one quiz.
func (h *QuizHandler) GetQuizStats(c *gin.Context) {
	stats, err := h.quizService.Stats(c.Request.Context(), c.Param("unit_id"), c.Param("category"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: stats})
}
