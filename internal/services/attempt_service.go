package services

import (
	"context"
	"log/slog"

	"github.com/classhub/quiz-service/internal/models"
	"github.com/classhub/quiz-service/internal/repositories"
)

type attemptService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewAttemptService(repo repositories.Repository, logger *slog.Logger) AttemptService {
	return &attemptService{
		repo:   repo,
		logger: logger,
	}
}

// GetByID returns a single attempt. Students may only read their own rows;
// teachers and admins may read any.
func (s *attemptService) GetByID(ctx context.Context, id uint, requester *models.User) (*models.QuizAttempt, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}

	if requester == nil {
		return nil, ErrUnauthorized
	}
	if requester.Role == models.RoleStudent && attempt.StudentID != requester.ID {
		return nil, NewPermissionError("read attempt", "attempt belongs to another student")
	}

	return attempt, nil
}

func (s *attemptService) ListOwn(ctx context.Context, studentID string, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	return s.repo.Attempt().GetByStudent(ctx, nil, studentID, filters)
}

// List returns attempts across students with display names joined from the
// identity provider. Teacher scope.
func (s *attemptService) List(ctx context.Context, filters repositories.AttemptFilters) ([]*AttemptListItem, int64, error) {
	attempts, total, err := s.repo.Attempt().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, err
	}

	names := resolveStudentNames(ctx, s.repo.User(), s.logger, attempts)
	items := make([]*AttemptListItem, 0, len(attempts))
	for _, a := range attempts {
		items = append(items, &AttemptListItem{
			QuizAttempt: a,
			StudentName: names[a.StudentID],
		})
	}
	return items, total, nil
}

// resolveStudentNames maps the distinct student IDs in a batch of attempts to
// their display names. Resolution is best-effort: a lookup failure leaves
// names blank rather than failing the listing.
func resolveStudentNames(ctx context.Context, users repositories.UserRepository, logger *slog.Logger, attempts []*models.QuizAttempt) map[string]string {
	if users == nil || len(attempts) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(attempts))
	ids := make([]string, 0, len(attempts))
	for _, a := range attempts {
		if !seen[a.StudentID] {
			seen[a.StudentID] = true
			ids = append(ids, a.StudentID)
		}
	}

	resolved, err := users.GetByIDs(ctx, ids)
	if err != nil {
		logger.Warn("failed to resolve student names", "error", err)
		return nil
	}

	names := make(map[string]string, len(resolved))
	for _, u := range resolved {
		names[u.ID] = u.FullName
	}
	return names
}
