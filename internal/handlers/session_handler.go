package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classhub/quiz-service/internal/services"
	"github.com/classhub/quiz-service/internal/utils"
)

// SessionHandler exposes the live quiz session lifecycle.
type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
	}
}

type createSessionRequest struct {
	UnitID   string `json:"unit_id" binding:"required"`
	Category string `json:"category" binding:"required"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

// CreateSession bootstraps a session and returns the intro view.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
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

	h.LogRequest(c, "Bootstrapping quiz session",
		"unit_id", req.UnitID,
		"category", req.Category)

	view, err := h.sessionService.Bootstrap(c.Request.Context(), userID, req.UnitID, req.Category)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// GetSession returns the current snapshot.
func (h *SessionHandler) GetSession(c *gin.Context) {
	h.withSession(c, h.sessionService.Snapshot)
}

// StartSession moves the session from intro to active.
func (h *SessionHandler) StartSession(c *gin.Context) {
	h.withSession(c, h.sessionService.Start)
}

// SubmitAnswer records an answer for the current question.
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	token := c.Param("token")
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	view, err := h.sessionService.Answer(c.Request.Context(), token, userID, req.Answer)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// NextQuestion advances to the next question, submitting on the last one.
func (h *SessionHandler) NextQuestion(c *gin.Context) {
	h.withSession(c, h.sessionService.Next)
}

// PrevQuestion moves back one question.
func (h *SessionHandler) PrevQuestion(c *gin.Context) {
	h.withSession(c, h.sessionService.Prev)
}

// RevealHint returns the current question's hint, subject to the session
// hint limit.
func (h *SessionHandler) RevealHint(c *gin.Context) {
	token := c.Param("token")
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	hint, err := h.sessionService.Hint(c.Request.Context(), token, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"hint": hint})
}

// FinishSession submits the attempt explicitly and returns the result.
func (h *SessionHandler) FinishSession(c *gin.Context) {
	token := c.Param("token")
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	result, err := h.sessionService.Finish(c.Request.Context(), token, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetResult returns the graded result of a finished session.
func (h *SessionHandler) GetResult(c *gin.Context) {
	token := c.Param("token")
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	result, err := h.sessionService.Result(c.Request.Context(), token, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *SessionHandler) withSession(c *gin.Context, action func(ctx context.Context, token, studentID string) (*services.SessionView, error)) {
	token := c.Param("token")
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	view, err := action(c.Request.Context(), token, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}
