package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/classhub/quiz-service/internal/engine"
	"github.com/classhub/quiz-service/internal/events"
	"github.com/classhub/quiz-service/internal/models"
	"github.com/classhub/quiz-service/internal/repositories"
)

// attemptRecorder bridges the engine's persistence boundary to the attempt
// repository and the event publisher. One recorder serves one (unit, category)
// pair; the engine passes the student identity per call.
type attemptRecorder struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger

	unitID   string
	category string
}

func newAttemptRecorder(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, unitID, category string) engine.AttemptRecorder {
	return &attemptRecorder{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		unitID:    unitID,
		category:  category,
	}
}

func (r *attemptRecorder) FetchHistory(ctx context.Context, identity, quizKey string) (engine.History, error) {
	attempts, err := r.repo.Attempt().GetByStudentAndQuiz(ctx, nil, identity, r.unitID, r.category)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attempt history: %w", err)
	}

	history := make(engine.History, 0, len(attempts))
	for _, a := range attempts {
		outcomes := a.OutcomeList()
		attempt := engine.Attempt{
			CompletedAt: a.CompletedAt,
			Outcomes:    make([]engine.Outcome, 0, len(outcomes)),
		}
		for _, o := range outcomes {
			attempt.Outcomes = append(attempt.Outcomes, engine.Outcome{
				QuestionID: o.QuestionID,
				Submitted:  o.Submitted,
				Correct:    o.Correct,
			})
		}
		history = append(history, attempt)
	}

	return history, nil
}

func (r *attemptRecorder) Persist(ctx context.Context, identity, quizKey string, result *engine.Result) error {
	attempt := &models.QuizAttempt{
		StudentID:        identity,
		UnitID:           r.unitID,
		Category:         r.category,
		Score:            result.Score,
		CompletionReason: models.CompletionReason(result.Reason),
		CompletedAt:      result.CompletedAt,
	}

	outcomes := make([]models.AnswerOutcome, 0, len(result.PerQuestion))
	for _, o := range result.PerQuestion {
		outcomes = append(outcomes, models.AnswerOutcome{
			QuestionID: o.QuestionID,
			Submitted:  o.Submitted,
			Correct:    o.Correct,
		})
	}
	if err := attempt.SetOutcomeList(outcomes); err != nil {
		return fmt.Errorf("failed to encode outcomes: %w", err)
	}

	if err := r.repo.Attempt().Create(ctx, nil, attempt); err != nil {
		return fmt.Errorf("failed to persist attempt: %w", err)
	}

	// Event publishing is best-effort; the attempt row is already durable.
	if r.publisher != nil {
		event := events.Event{
			Type: events.EventAttemptCompleted,
			Data: events.AttemptCompletedEvent{
				StudentID:        identity,
				UnitID:           r.unitID,
				Category:         r.category,
				Score:            result.Score,
				CompletionReason: string(result.Reason),
				CompletedAt:      result.CompletedAt,
			},
		}
		if err := r.publisher.Publish(ctx, event); err != nil {
			r.logger.Error("failed to publish attempt completed event",
				"student_id", identity,
				"quiz_key", quizKey,
				"error", err)
		}
	}

	return nil
}
