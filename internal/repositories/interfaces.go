package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/classhub/quiz-service/internal/models"
)

// QuizRepository manages per-(unit, category) session configuration rows.
// The tx parameter joins an outer transaction when non-nil.
type QuizRepository interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	GetByKey(ctx context.Context, tx *gorm.DB, unitID, category string) (*models.Quiz, error)
	Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB, filters QuizFilters) ([]*models.Quiz, int64, error)
	ExistsByKey(ctx context.Context, tx *gorm.DB, unitID, category string) (bool, error)
}

// QuestionRepository manages the question pools.
type QuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error

	// GetPool returns the full pool for a (unit, category) pair. The session
	// bootstrap path reads through the cache.
	GetPool(ctx context.Context, tx *gorm.DB, unitID, category string) ([]*models.Question, error)

	List(ctx context.Context, tx *gorm.DB, filters QuestionFilters) ([]*models.Question, int64, error)
	CountByKey(ctx context.Context, tx *gorm.DB, unitID, category string) (int64, error)
}

// AttemptRepository manages finished attempts. Rows are append-only.
type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error)

	// GetByStudentAndQuiz returns the full history for one student on one
	// quiz key, most recent first.
	GetByStudentAndQuiz(ctx context.Context, tx *gorm.DB, studentID, unitID, category string) ([]*models.QuizAttempt, error)

	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)
	List(ctx context.Context, tx *gorm.DB, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)

	GetQuizStats(ctx context.Context, tx *gorm.DB, unitID, category string) (*AttemptStats, error)
}

// UserRepository is the read-only identity provider boundary. GetByID backs
// the auth middleware; GetByIDs joins display names onto teacher-facing
// attempt listings and skips IDs it cannot resolve.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
}

// ===== FILTERS =====

type QuizFilters struct {
	UnitID   string
	Category string
	Active   *bool
	Limit    int
	Offset   int
}

type QuestionFilters struct {
	UnitID   string
	Category string
	Type     models.QuestionType
	Limit    int
	Offset   int
}

type AttemptFilters struct {
	StudentID string
	UnitID    string
	Category  string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// ===== STATISTICS =====

// AttemptStats is the aggregate view a teacher sees per quiz.
type AttemptStats struct {
	TotalAttempts    int64   `json:"total_attempts"`
	DistinctStudents int64   `json:"distinct_students"`
	AverageScore     float64 `json:"average_score"`
	TimedOutCount    int64   `json:"timed_out_count"`
}
