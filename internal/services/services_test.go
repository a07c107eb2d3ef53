package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/classhub/quiz-service/internal/models"
	"github.com/classhub/quiz-service/internal/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRepository is an in-memory repositories.Repository for service tests.
type fakeRepository struct {
	quiz     *fakeQuizRepo
	question *fakeQuestionRepo
	attempt  *fakeAttemptRepo
	user     *fakeUserRepo
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		quiz:     &fakeQuizRepo{quizzes: make(map[string]*models.Quiz)},
		question: &fakeQuestionRepo{},
		attempt:  &fakeAttemptRepo{},
		user:     &fakeUserRepo{users: make(map[string]*models.User)},
	}
}

func (r *fakeRepository) Quiz() repositories.QuizRepository         { return r.quiz }
func (r *fakeRepository) Question() repositories.QuestionRepository { return r.question }
func (r *fakeRepository) Attempt() repositories.AttemptRepository   { return r.attempt }
func (r *fakeRepository) User() repositories.UserRepository         { return r.user }

func (r *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}

func (r *fakeRepository) Ping(ctx context.Context) error { return nil }
func (r *fakeRepository) Close() error                   { return nil }

// ===== QUIZ =====

type fakeQuizRepo struct {
	mu      sync.Mutex
	quizzes map[string]*models.Quiz
	nextID  uint
	err     error
}

func (r *fakeQuizRepo) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	quiz.ID = r.nextID
	stored := *quiz
	r.quizzes[quiz.Key()] = &stored
	return nil
}

func (r *fakeQuizRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.quizzes {
		if q.ID == id {
			out := *q
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeQuizRepo) GetByKey(ctx context.Context, tx *gorm.DB, unitID, category string) (*models.Quiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	q, ok := r.quizzes[models.QuizKey(unitID, category)]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := *q
	return &out, nil
}

func (r *fakeQuizRepo) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *quiz
	r.quizzes[quiz.Key()] = &stored
	return nil
}

func (r *fakeQuizRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, q := range r.quizzes {
		if q.ID == id {
			delete(r.quizzes, key)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *fakeQuizRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Quiz
	for _, q := range r.quizzes {
		copied := *q
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeQuizRepo) ExistsByKey(ctx context.Context, tx *gorm.DB, unitID, category string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.quizzes[models.QuizKey(unitID, category)]
	return ok, nil
}

// ===== QUESTIONS =====

type fakeQuestionRepo struct {
	mu        sync.Mutex
	questions []*models.Question
	nextID    uint
	poolErr   error
}

func (r *fakeQuestionRepo) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	question.ID = r.nextID
	stored := *question
	r.questions = append(r.questions, &stored)
	return nil
}

func (r *fakeQuestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.questions {
		if q.ID == id {
			out := *q
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeQuestionRepo) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, q := range r.questions {
		if q.ID == question.ID {
			stored := *question
			r.questions[i] = &stored
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *fakeQuestionRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, q := range r.questions {
		if q.ID == id {
			r.questions = append(r.questions[:i], r.questions[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *fakeQuestionRepo) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	for _, q := range questions {
		if err := r.Create(ctx, tx, q); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeQuestionRepo) GetPool(ctx context.Context, tx *gorm.DB, unitID, category string) ([]*models.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.poolErr != nil {
		return nil, r.poolErr
	}
	var out []*models.Question
	for _, q := range r.questions {
		if q.UnitID == unitID && q.Category == category {
			copied := *q
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeQuestionRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Question
	for _, q := range r.questions {
		if filters.UnitID != "" && q.UnitID != filters.UnitID {
			continue
		}
		if filters.Category != "" && q.Category != filters.Category {
			continue
		}
		copied := *q
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

func (r *fakeQuestionRepo) CountByKey(ctx context.Context, tx *gorm.DB, unitID, category string) (int64, error) {
	pool, err := r.GetPool(ctx, tx, unitID, category)
	if err != nil {
		return 0, err
	}
	return int64(len(pool)), nil
}

// ===== ATTEMPTS =====

type fakeAttemptRepo struct {
	mu       sync.Mutex
	attempts []*models.QuizAttempt
	nextID   uint
}

func (r *fakeAttemptRepo) Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	attempt.ID = r.nextID
	stored := *attempt
	r.attempts = append(r.attempts, &stored)
	return nil
}

func (r *fakeAttemptRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attempts {
		if a.ID == id {
			out := *a
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeAttemptRepo) GetByStudentAndQuiz(ctx context.Context, tx *gorm.DB, studentID, unitID, category string) ([]*models.QuizAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.QuizAttempt
	for _, a := range r.attempts {
		if a.StudentID == studentID && a.UnitID == unitID && a.Category == category {
			copied := *a
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	return out, nil
}

func (r *fakeAttemptRepo) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	filters.StudentID = studentID
	return r.List(ctx, tx, filters)
}

func (r *fakeAttemptRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*models.QuizAttempt
	for _, a := range r.attempts {
		if filters.StudentID != "" && a.StudentID != filters.StudentID {
			continue
		}
		if filters.UnitID != "" && a.UnitID != filters.UnitID {
			continue
		}
		if filters.Category != "" && a.Category != filters.Category {
			continue
		}
		copied := *a
		matched = append(matched, &copied)
	}
	total := int64(len(matched))

	offset := filters.Offset
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if filters.Limit > 0 && filters.Limit < len(matched) {
		matched = matched[:filters.Limit]
	}
	return matched, total, nil
}

func (r *fakeAttemptRepo) GetQuizStats(ctx context.Context, tx *gorm.DB, unitID, category string) (*repositories.AttemptStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repositories.AttemptStats{}
	students := make(map[string]bool)
	sum := 0
	for _, a := range r.attempts {
		if a.UnitID != unitID || a.Category != category {
			continue
		}
		stats.TotalAttempts++
		students[a.StudentID] = true
		sum += a.Score
		if a.CompletionReason == models.AttemptTimedOut {
			stats.TimedOutCount++
		}
	}
	stats.DistinctStudents = int64(len(students))
	if stats.TotalAttempts > 0 {
		stats.AverageScore = float64(sum) / float64(stats.TotalAttempts)
	}
	return stats, nil
}

// ===== USERS =====

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
	err   error
}

func (r *fakeUserRepo) add(user *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *user
	r.users[user.ID] = &stored
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		u, err := r.GetByID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeAttemptRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attempts)
}
