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

type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

// ===== BASIC CRUD OPERATIONS =====

func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	cache.InvalidateQuestionCache(ctx, q.cacheManager, question.UnitID, question.Category)
	return nil
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	var question models.Question
	if err := db.WithContext(ctx).First(&question, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("question %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Save(question).Error; err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}

	cache.InvalidateQuestionCache(ctx, q.cacheManager, question.UnitID, question.Category)
	return nil
}

func (q *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := q.getDB(tx)

	var question models.Question
	if err := db.WithContext(ctx).Select("id, unit_id, category").First(&question, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("question %d: %w", id, repositories.ErrNotFound)
		}
		return fmt.Errorf("failed to get question before delete: %w", err)
	}

	if err := db.WithContext(ctx).Delete(&models.Question{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	cache.InvalidateQuestionCache(ctx, q.cacheManager, question.UnitID, question.Category)
	return nil
}

// ===== BULK OPERATIONS =====

func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	db := q.getDB(tx)
	if err := db.WithContext(ctx).CreateInBatches(questions, 100).Error; err != nil {
		return fmt.Errorf("failed to create questions batch: %w", err)
	}

	invalidated := make(map[string]bool)
	for _, question := range questions {
		key := models.QuizKey(question.UnitID, question.Category)
		if !invalidated[key] {
			cache.InvalidateQuestionCache(ctx, q.cacheManager, question.UnitID, question.Category)
			invalidated[key] = true
		}
	}

	return nil
}

// ===== POOL AND QUERY OPERATIONS =====

// GetPool returns the full pool for a (unit, category) pair with caching.
// The pool is cached as one unit; any edit to a question invalidates it.
func (q *QuestionPostgreSQL) GetPool(ctx context.Context, tx *gorm.DB, unitID, category string) ([]*models.Question, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("pool:%s", models.QuizKey(unitID, category))

	var pool []*models.Question
	err := q.cacheManager.Question.CacheOrExecute(ctx, cacheKey, &pool, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		var dbPool []*models.Question
		if err := db.WithContext(ctx).
			Where("unit_id = ? AND category = ?", unitID, category).
			Order("id ASC").
			Find(&dbPool).Error; err != nil {
			return nil, fmt.Errorf("failed to get question pool: %w", err)
		}
		return dbPool, nil
	})
	if err != nil {
		return nil, err
	}

	return pool, nil
}

func (q *QuestionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	db := q.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Question{})

	if filters.UnitID != "" {
		query = query.Where("unit_id = ?", filters.UnitID)
	}
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.Type != "" {
		query = query.Where("type = ?", filters.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var questions []*models.Question
	if err := query.Order("id ASC").Find(&questions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}

	return questions, total, nil
}

func (q *QuestionPostgreSQL) CountByKey(ctx context.Context, tx *gorm.DB, unitID, category string) (int64, error) {
	db := q.getDB(tx)

	var count int64
	if err := db.WithContext(ctx).Model(&models.Question{}).
		Where("unit_id = ? AND category = ?", unitID, category).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}

	return count, nil
}
