package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/classhub/quiz-service/internal/models"
	"github.com/classhub/quiz-service/internal/repositories"
	"github.com/classhub/quiz-service/internal/validator"
)

// orderingDelimiter joins an ordering question's canonical sequence into its
// stored answer string. Option tokens must not contain it.
const orderingDelimiter = "||"

type questionService struct {
	repo      repositories.Repository
	validator *validator.Validator
	logger    *slog.Logger
}

func NewQuestionService(repo repositories.Repository, v *validator.Validator, logger *slog.Logger) QuestionService {
	return &questionService{
		repo:      repo,
		validator: v,
		logger:    logger,
	}
}

func (s *questionService) Create(ctx context.Context, req *QuestionCreateRequest, creatorID string) (*models.Question, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs)
	}
	if err := validateAnswerShape(req.Type, req.Options, req.Answer); err != nil {
		return nil, err
	}

	question, err := buildQuestion(req, creatorID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, err
	}

	s.logger.Info("question created",
		"question_id", question.ID,
		"quiz_key", models.QuizKey(question.UnitID, question.Category),
		"type", question.Type)

	return question, nil
}

func (s *questionService) CreateBatch(ctx context.Context, reqs []QuestionCreateRequest, creatorID string) ([]*models.Question, error) {
	questions := make([]*models.Question, 0, len(reqs))
	for i := range reqs {
		req := &reqs[i]
		if errs := s.validator.Validate(req); errs.HasErrors() {
			return nil, NewValidationError(errs)
		}
		if err := validateAnswerShape(req.Type, req.Options, req.Answer); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		question, err := buildQuestion(req, creatorID)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		questions = append(questions, question)
	}

	if err := s.repo.Question().CreateBatch(ctx, nil, questions); err != nil {
		return nil, err
	}

	s.logger.Info("question batch created",
		"count", len(questions),
		"created_by", creatorID)

	return questions, nil
}

func (s *questionService) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return question, nil
}

func (s *questionService) Update(ctx context.Context, id uint, req *QuestionUpdateRequest) (*models.Question, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs)
	}

	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}

	if req.Prompt != nil {
		question.Prompt = *req.Prompt
	}
	if req.Options != nil {
		if err := question.SetOptionList(req.Options); err != nil {
			return nil, err
		}
	}
	if req.Answer != nil {
		question.Answer = *req.Answer
	}
	if req.Hint != nil {
		question.Hint = *req.Hint
	}
	if req.HintEnabled != nil {
		question.HintEnabled = *req.HintEnabled
	}

	// Re-check the cross-field shape after the partial merge.
	if err := validateAnswerShape(question.Type, question.OptionList(), question.Answer); err != nil {
		return nil, err
	}

	if err := s.repo.Question().Update(ctx, nil, question); err != nil {
		return nil, err
	}

	s.logger.Info("question updated", "question_id", question.ID)
	return question, nil
}

func (s *questionService) Delete(ctx context.Context, id uint) error {
	if _, err := s.repo.Question().GetByID(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return err
	}

	if err := s.repo.Question().Delete(ctx, nil, id); err != nil {
		return err
	}

	s.logger.Info("question deleted", "question_id", id)
	return nil
}

func (s *questionService) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	return s.repo.Question().List(ctx, nil, filters)
}

func buildQuestion(req *QuestionCreateRequest, creatorID string) (*models.Question, error) {
	question := &models.Question{
		UnitID:      req.UnitID,
		Category:    req.Category,
		Type:        req.Type,
		Prompt:      req.Prompt,
		Answer:      req.Answer,
		Hint:        req.Hint,
		HintEnabled: req.HintEnabled,
		CreatedBy:   creatorID,
	}
	if err := question.SetOptionList(req.Options); err != nil {
		return nil, err
	}
	return question, nil
}

// validateAnswerShape enforces the per-type coupling between options and the
// canonical answer that tag-level validation cannot express.
func validateAnswerShape(qtype models.QuestionType, options []string, answer string) error {
	fail := func(field, message string) error {
		return NewValidationError(validator.ValidationErrors{
			{Field: field, Message: message, Rule: "answer_shape"},
		})
	}

	switch qtype {
	case models.QuestionChoice:
		if len(options) < 2 {
			return fail("options", "choice questions need at least two options")
		}
		for _, opt := range options {
			if opt == answer {
				return nil
			}
		}
		return fail("answer", "answer must be one of the options")

	case models.QuestionTrueFalse:
		if answer != "true" && answer != "false" {
			return fail("answer", "answer must be \"true\" or \"false\"")
		}
		return nil

	case models.QuestionShortAnswer:
		if strings.TrimSpace(answer) == "" {
			return fail("answer", "answer must not be blank")
		}
		return nil

	case models.QuestionOrdering:
		if len(options) < 2 {
			return fail("options", "ordering questions need at least two steps")
		}
		if answer != strings.Join(options, orderingDelimiter) {
			return fail("answer", "answer must be the options joined in canonical order")
		}
		return nil

	default:
		return fail("type", "unsupported question type")
	}
}
