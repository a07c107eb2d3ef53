package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/classhub/quiz-service/internal/cache"
	"github.com/classhub/quiz-service/internal/models"
	"github.com/classhub/quiz-service/internal/repositories"
)

type QuizPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuizPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuizRepository {
	return &QuizPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuizPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

// ===== BASIC CRUD OPERATIONS =====

func (q *QuizPostgreSQL) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Create(quiz).Error; err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}

	cache.InvalidateQuizCache(ctx, q.cacheManager, quiz.UnitID, quiz.Category)
	return nil
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	db := q.getDB(tx)
	var quiz models.Quiz
	if err := db.WithContext(ctx).First(&quiz, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("quiz %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return &quiz, nil
}

// GetByKey resolves the config for one (unit, category) pair with caching.
// This is the hot read on every session bootstrap.
func (q *QuizPostgreSQL) GetByKey(ctx context.Context, tx *gorm.DB, unitID, category string) (*models.Quiz, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("key:%s", models.QuizKey(unitID, category))

	var quiz models.Quiz
	err := q.cacheManager.Quiz.CacheOrExecute(ctx, cacheKey, &quiz, cache.QuizCacheConfig.TTL, func() (interface{}, error) {
		var dbQuiz models.Quiz
		if err := db.WithContext(ctx).
			Where("unit_id = ? AND category = ?", unitID, category).
			First(&dbQuiz).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("quiz %s: %w", models.QuizKey(unitID, category), repositories.ErrNotFound)
			}
			return nil, fmt.Errorf("failed to get quiz by key: %w", err)
		}
		return &dbQuiz, nil
	})
	if err != nil {
		return nil, err
	}

	return &quiz, nil
}

func (q *QuizPostgreSQL) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Save(quiz).Error; err != nil {
		return fmt.Errorf("failed to update quiz: %w", err)
	}

	cache.InvalidateQuizCache(ctx, q.cacheManager, quiz.UnitID, quiz.Category)
	return nil
}

func (q *QuizPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := q.getDB(tx)

	var quiz models.Quiz
	if err := db.WithContext(ctx).Select("id, unit_id, category").First(&quiz, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("quiz %d: %w", id, repositories.ErrNotFound)
		}
		return fmt.Errorf("failed to get quiz before delete: %w", err)
	}

	if err := db.WithContext(ctx).Delete(&models.Quiz{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	cache.InvalidateQuizCache(ctx, q.cacheManager, quiz.UnitID, quiz.Category)
	return nil
}

// ===== QUERY OPERATIONS =====

func (q *QuizPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	db := q.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Quiz{})

	if filters.UnitID != "" {
		query = query.Where("unit_id = ?", filters.UnitID)
	}
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.Active != nil {
		query = query.Where("active = ?", *filters.Active)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count quizzes: %w", err)
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var quizzes []*models.Quiz
	if err := query.Order("unit_id ASC, category ASC").Find(&quizzes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list quizzes: %w", err)
	}

	return quizzes, total, nil
}

func (q *QuizPostgreSQL) ExistsByKey(ctx context.Context, tx *gorm.DB, unitID, category string) (bool, error) {
	db := q.getDB(tx)

	var count int64
	if err := db.WithContext(ctx).Model(&models.Quiz{}).
		Where("unit_id = ? AND category = ?", unitID, category).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check quiz existence: %w", err)
	}

	return count > 0, nil
}
