package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/classhub/quiz-service/internal/repositories"
	"github.com/classhub/quiz-service/internal/services"
	"github.com/classhub/quiz-service/internal/utils"
)

// AttemptHandler exposes the persisted attempt history.
type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	exportService  services.ExportService
}

func NewAttemptHandler(attemptService services.AttemptService, exportService services.ExportService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		exportService:  exportService,
	}
}

// ListAttempts returns attempts across students. Teacher scope.
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	filters := h.parseAttemptFilters(c)

	attempts, total, err := h.attemptService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Data: gin.H{
			"attempts": attempts,
			"total":    total,
		},
	})
}

// GetAttempt returns one attempt. Students may only read their own.
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	user, err := GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	attempt, err := h.attemptService.GetByID(c.Request.Context(), id, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// ListMyAttempts returns the calling student's own history.
func (h *AttemptHandler) ListMyAttempts(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	filters := h.parseAttemptFilters(c)
	filters.StudentID = ""

	attempts, total, err := h.attemptService.ListOwn(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Data: gin.H{
			"attempts": attempts,
			"total":    total,
		},
	})
}

// ExportAttempts streams the filtered attempt history as an xlsx file.
func (h *AttemptHandler) ExportAttempts(c *gin.Context) {
	filters := h.parseAttemptFilters(c)
	filters.Limit = 0
	filters.Offset = 0

	h.LogRequest(c, "Exporting attempts",
		"unit_id", filters.UnitID,
		"category", filters.Category)

	data, err := h.exportService.ExportAttempts(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("attempts_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		data)
}

func (h *AttemptHandler) parseAttemptFilters(c *gin.Context) repositories.AttemptFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 20)

	filters := repositories.AttemptFilters{
		StudentID: c.Query("student_id"),
		UnitID:    c.Query("unit_id"),
		Category:  c.Query("category"),
		Limit:     size,
		Offset:    (page - 1) * size,
	}

	if from := c.Query("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filters.From = &t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filters.To = &t
		}
	}

	return filters
}
