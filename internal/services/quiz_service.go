package services

import (
	"context"
	"log/slog"

	"github.com/classhub/quiz-service/internal/events"
	"github.com/classhub/quiz-service/internal/models"
	"github.com/classhub/quiz-service/internal/repositories"
	"github.com/classhub/quiz-service/internal/validator"
)

type quizService struct {
	repo      repositories.Repository
	validator *validator.Validator
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewQuizService(repo repositories.Repository, v *validator.Validator, publisher events.EventPublisher, logger *slog.Logger) QuizService {
	return &quizService{
		repo:      repo,
		validator: v,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *quizService) Create(ctx context.Context, req *QuizCreateRequest, creatorID string) (*models.Quiz, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs)
	}

	exists, err := s.repo.Quiz().ExistsByKey(ctx, nil, req.UnitID, req.Category)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrQuizExists
	}

	quiz := &models.Quiz{
		UnitID:           req.UnitID,
		Category:         req.Category,
		Active:           boolOrDefault(req.Active, true),
		QuestionCount:    req.QuestionCount,
		TimeLimitSeconds: req.TimeLimitSeconds,
		AllowRetake:      boolOrDefault(req.AllowRetake, true),
		CooldownMinutes:  req.CooldownMinutes,
		HintLimit:        req.HintLimit,
		RandomOrder:      boolOrDefault(req.RandomOrder, true),
		CreatedBy:        creatorID,
	}

	if err := s.repo.Quiz().Create(ctx, nil, quiz); err != nil {
		return nil, err
	}

	s.logger.Info("quiz created",
		"quiz_key", quiz.Key(),
		"created_by", creatorID)

	s.publishUpdated(ctx, quiz, creatorID)
	return quiz, nil
}

func (s *quizService) GetByKey(ctx context.Context, unitID, category string) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByKey(ctx, nil, unitID, category)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, err
	}
	return quiz, nil
}

func (s *quizService) Update(ctx context.Context, unitID, category string, req *QuizUpdateRequest, updaterID string) (*models.Quiz, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs)
	}

	quiz, err := s.repo.Quiz().GetByKey(ctx, nil, unitID, category)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, err
	}

	if req.Active != nil {
		quiz.Active = *req.Active
	}
	if req.QuestionCount != nil {
		quiz.QuestionCount = *req.QuestionCount
	}
	if req.TimeLimitSeconds != nil {
		quiz.TimeLimitSeconds = *req.TimeLimitSeconds
	}
	if req.AllowRetake != nil {
		quiz.AllowRetake = *req.AllowRetake
	}
	if req.CooldownMinutes != nil {
		quiz.CooldownMinutes = *req.CooldownMinutes
	}
	if req.HintLimit != nil {
		quiz.HintLimit = *req.HintLimit
	}
	if req.RandomOrder != nil {
		quiz.RandomOrder = *req.RandomOrder
	}

	if err := s.repo.Quiz().Update(ctx, nil, quiz); err != nil {
		return nil, err
	}

	s.logger.Info("quiz updated",
		"quiz_key", quiz.Key(),
		"updated_by", updaterID)

	s.publishUpdated(ctx, quiz, updaterID)
	return quiz, nil
}

func (s *quizService) Delete(ctx context.Context, unitID, category string) error {
	quiz, err := s.repo.Quiz().GetByKey(ctx, nil, unitID, category)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuizNotFound
		}
		return err
	}

	if err := s.repo.Quiz().Delete(ctx, nil, quiz.ID); err != nil {
		return err
	}

	s.logger.Info("quiz deleted", "quiz_key", quiz.Key())
	return nil
}

func (s *quizService) List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	return s.repo.Quiz().List(ctx, nil, filters)
}

func (s *quizService) Stats(ctx context.Context, unitID, category string) (*repositories.AttemptStats, error) {
	exists, err := s.repo.Quiz().ExistsByKey(ctx, nil, unitID, category)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrQuizNotFound
	}

	return s.repo.Attempt().GetQuizStats(ctx, nil, unitID, category)
}

// publishUpdated is best-effort; consumers refresh from the API on miss.
func (s *quizService) publishUpdated(ctx context.Context, quiz *models.Quiz, actorID string) {
	if s.publisher == nil {
		return
	}

	event := events.Event{
		Type: events.EventQuizUpdated,
		Data: events.QuizUpdatedEvent{
			UnitID:    quiz.UnitID,
			Category:  quiz.Category,
			Active:    quiz.Active,
			UpdatedBy: actorID,
		},
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish quiz updated event",
			"quiz_key", quiz.Key(),
			"error", err)
	}
}

func boolOrDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
