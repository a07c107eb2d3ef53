package services

import (
	"context"

	"github.com/classhub/quiz-service/internal/engine"
	"github.com/classhub/quiz-service/internal/models"
	"github.com/classhub/quiz-service/internal/repositories"
)

// ServiceManager wires and owns all service instances.
type ServiceManager interface {
	Initialize(ctx context.Context) error

	Quiz() QuizService
	Question() QuestionService
	Session() SessionService
	Attempt() AttemptService
	Export() ExportService

	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// ===== QUIZ CONFIG =====

type QuizCreateRequest struct {
	UnitID           string `json:"unit_id" validate:"required,max=100"`
	Category         string `json:"category" validate:"required,max=100"`
	Active           *bool  `json:"active"`
	QuestionCount    int    `json:"question_count" validate:"required,question_count"`
	TimeLimitSeconds int    `json:"time_limit_seconds" validate:"required,time_limit"`
	AllowRetake      *bool  `json:"allow_retake"`
	CooldownMinutes  int    `json:"cooldown_minutes" validate:"cooldown_range"`
	HintLimit        int    `json:"hint_limit" validate:"hint_limit"`
	RandomOrder      *bool  `json:"random_order"`
}

type QuizUpdateRequest struct {
	Active           *bool `json:"active"`
	QuestionCount    *int  `json:"question_count" validate:"omitempty,question_count"`
	TimeLimitSeconds *int  `json:"time_limit_seconds" validate:"omitempty,time_limit"`
	AllowRetake      *bool `json:"allow_retake"`
	CooldownMinutes  *int  `json:"cooldown_minutes" validate:"omitempty,cooldown_range"`
	HintLimit        *int  `json:"hint_limit" validate:"omitempty,hint_limit"`
	RandomOrder      *bool `json:"random_order"`
}

// QuizService manages the per-(unit, category) session configuration.
type QuizService interface {
	Create(ctx context.Context, req *QuizCreateRequest, creatorID string) (*models.Quiz, error)
	GetByKey(ctx context.Context, unitID, category string) (*models.Quiz, error)
	Update(ctx context.Context, unitID, category string, req *QuizUpdateRequest, updaterID string) (*models.Quiz, error)
	Delete(ctx context.Context, unitID, category string) error
	List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error)

	Stats(ctx context.Context, unitID, category string) (*repositories.AttemptStats, error)
}

// ===== QUESTIONS =====

type QuestionCreateRequest struct {
	UnitID      string              `json:"unit_id" validate:"required,max=100"`
	Category    string              `json:"category" validate:"required,max=100"`
	Type        models.QuestionType `json:"type" validate:"required,question_type"`
	Prompt      string              `json:"prompt" validate:"required,min=1,max=2000"`
	Options     []string            `json:"options" validate:"omitempty,max=26,dive,required,no_delimiter,max=500"`
	Answer      string              `json:"answer" validate:"required,max=2000"`
	Hint        string              `json:"hint" validate:"omitempty,max=1000"`
	HintEnabled bool                `json:"hint_enabled"`
}

type QuestionUpdateRequest struct {
	Prompt      *string  `json:"prompt" validate:"omitempty,min=1,max=2000"`
	Options     []string `json:"options" validate:"omitempty,max=26,dive,required,no_delimiter,max=500"`
	Answer      *string  `json:"answer" validate:"omitempty,max=2000"`
	Hint        *string  `json:"hint" validate:"omitempty,max=1000"`
	HintEnabled *bool    `json:"hint_enabled"`
}

// QuestionService manages the question pools.
type QuestionService interface {
	Create(ctx context.Context, req *QuestionCreateRequest, creatorID string) (*models.Question, error)
	CreateBatch(ctx context.Context, reqs []QuestionCreateRequest, creatorID string) ([]*models.Question, error)
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	Update(ctx context.Context, id uint, req *QuestionUpdateRequest) (*models.Question, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error)
}

// ===== SESSIONS =====

// SessionView is what a student sees of a live session: the snapshot plus the
// current question while the session is active.
type SessionView struct {
	Token    string               `json:"token"`
	UnitID   string               `json:"unit_id"`
	Category string               `json:"category"`
	Snapshot engine.Snapshot      `json:"snapshot"`
	Question *engine.QuestionView `json:"question,omitempty"`
}

// SessionService hosts live engine sessions keyed by token.
type SessionService interface {
	// Bootstrap resolves config, pool and history and returns the intro view.
	// Infrastructure failures surface as a non-startable view with the
	// fetch_failed verdict rather than as an error.
	Bootstrap(ctx context.Context, studentID, unitID, category string) (*SessionView, error)

	Start(ctx context.Context, token, studentID string) (*SessionView, error)
	Answer(ctx context.Context, token, studentID, answer string) (*SessionView, error)
	Next(ctx context.Context, token, studentID string) (*SessionView, error)
	Prev(ctx context.Context, token, studentID string) (*SessionView, error)
	Hint(ctx context.Context, token, studentID string) (string, error)
	Finish(ctx context.Context, token, studentID string) (*engine.Result, error)

	Snapshot(ctx context.Context, token, studentID string) (*SessionView, error)
	Result(ctx context.Context, token, studentID string) (*engine.Result, error)

	// Shutdown closes every live session and stops the sweeper.
	Shutdown()
}

// ===== ATTEMPTS =====

// AttemptListItem decorates an attempt row with the student's display name
// for teacher-facing listings.
type AttemptListItem struct {
	*models.QuizAttempt
	StudentName string `json:"student_name,omitempty"`
}

// AttemptService exposes the attempt history to students and teachers.
type AttemptService interface {
	GetByID(ctx context.Context, id uint, requester *models.User) (*models.QuizAttempt, error)
	ListOwn(ctx context.Context, studentID string, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error)
	List(ctx context.Context, filters repositories.AttemptFilters) ([]*AttemptListItem, int64, error)
}

// ===== EXPORT =====

// ExportService renders attempt history as a spreadsheet.
type ExportService interface {
	ExportAttempts(ctx context.Context, filters repositories.AttemptFilters) ([]byte, error)
}
