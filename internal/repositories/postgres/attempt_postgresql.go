package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/classhub/quiz-service/internal/models"
	"github.com/classhub/quiz-service/internal/repositories"
)

// AttemptPostgreSQL stores finished attempts. Attempts are real-time data and
// are never cached.
type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a *AttemptPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error) {
	db := a.getDB(tx)
	var attempt models.QuizAttempt
	if err := db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("attempt %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByStudentAndQuiz(ctx context.Context, tx *gorm.DB, studentID, unitID, category string) ([]*models.QuizAttempt, error) {
	db := a.getDB(tx)

	var attempts []*models.QuizAttempt
	if err := db.WithContext(ctx).
		Where("student_id = ? AND unit_id = ? AND category = ?", studentID, unitID, category).
		Order("completed_at DESC").
		Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to get attempt history: %w", err)
	}

	return attempts, nil
}

func (a *AttemptPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	filters.StudentID = studentID
	return a.List(ctx, tx, filters)
}

func (a *AttemptPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	db := a.getDB(tx)
	query := db.WithContext(ctx).Model(&models.QuizAttempt{})

	if filters.StudentID != "" {
		query = query.Where("student_id = ?", filters.StudentID)
	}
	if filters.UnitID != "" {
		query = query.Where("unit_id = ?", filters.UnitID)
	}
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.From != nil {
		query = query.Where("completed_at >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("completed_at <= ?", *filters.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count attempts: %w", err)
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var attempts []*models.QuizAttempt
	if err := query.Order("completed_at DESC").Find(&attempts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list attempts: %w", err)
	}

	return attempts, total, nil
}

func (a *AttemptPostgreSQL) GetQuizStats(ctx context.Context, tx *gorm.DB, unitID, category string) (*repositories.AttemptStats, error) {
	db := a.getDB(tx)

	var stats repositories.AttemptStats
	row := db.WithContext(ctx).Model(&models.QuizAttempt{}).
		Select(`COUNT(*) AS total_attempts,
			COUNT(DISTINCT student_id) AS distinct_students,
			COALESCE(AVG(score), 0) AS average_score,
			COUNT(*) FILTER (WHERE completion_reason = ?) AS timed_out_count`,
			models.AttemptTimedOut).
		Where("unit_id = ? AND category = ?", unitID, category).
		Row()

	if err := row.Scan(&stats.TotalAttempts, &stats.DistinctStudents, &stats.AverageScore, &stats.TimedOutCount); err != nil {
		return nil, fmt.Errorf("failed to get attempt stats: %w", err)
	}

	return &stats, nil
}
