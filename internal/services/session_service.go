package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/classhub/quiz-service/internal/engine"
	"github.com/classhub/quiz-service/internal/events"
	"github.com/classhub/quiz-service/internal/models"
	"github.com/classhub/quiz-service/internal/repositories"
)

// sessionEntry is one live engine session in the registry.
type sessionEntry struct {
	session   *engine.Session
	token     string
	studentID string
	unitID    string
	category  string
	touched   time.Time
}

func (e *sessionEntry) ownerKey() string {
	return e.studentID + "|" + models.QuizKey(e.unitID, e.category)
}

// sessionService hosts live sessions in memory. Sessions are addressed by an
// opaque UUID token; one session per (student, quiz key) — a re-bootstrap
// replaces the previous one, so the latest tab wins.
type sessionService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[string]*sessionEntry // token -> entry
	owners   map[string]string        // student|quizKey -> token

	ttl  time.Duration
	stop chan struct{}
}

// NewSessionService creates the registry and starts the TTL sweeper.
func NewSessionService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, ttl, sweepInterval time.Duration) SessionService {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
	}

	s := &sessionService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		sessions:  make(map[string]*sessionEntry),
		owners:    make(map[string]string),
		ttl:       ttl,
		stop:      make(chan struct{}),
	}

	go s.sweep(sweepInterval)

	return s
}

// ===== BOOTSTRAP =====

func (s *sessionService) Bootstrap(ctx context.Context, studentID, unitID, category string) (*SessionView, error) {
	quiz, err := s.repo.Quiz().GetByKey(ctx, nil, unitID, category)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		s.logger.Error("failed to fetch quiz config",
			"unit_id", unitID,
			"category", category,
			"error", err)
		return s.fetchFailedView(unitID, category), nil
	}

	pool, err := s.repo.Question().GetPool(ctx, nil, unitID, category)
	if err != nil {
		s.logger.Error("failed to fetch question pool",
			"unit_id", unitID,
			"category", category,
			"error", err)
		return s.fetchFailedView(unitID, category), nil
	}

	session := engine.Bootstrap(ctx, engine.Params{
		Config: engine.Config{
			Active:           quiz.Active,
			QuestionCount:    quiz.QuestionCount,
			TimeLimitSeconds: quiz.TimeLimitSeconds,
			AllowRetake:      quiz.AllowRetake,
			CooldownMinutes:  quiz.CooldownMinutes,
			HintLimit:        quiz.HintLimit,
			RandomOrder:      quiz.RandomOrder,
		},
		Pool:     toEnginePool(pool),
		Identity: studentID,
		QuizKey:  quiz.Key(),
		ExamPrep: category == models.CategoryExamPrep,
		Recorder: newAttemptRecorder(s.repo, s.publisher, s.logger, unitID, category),
		Logger:   s.logger,
	})

	entry := &sessionEntry{
		session:   session,
		token:     uuid.New().String(),
		studentID: studentID,
		unitID:    unitID,
		category:  category,
		touched:   time.Now(),
	}
	s.register(entry)

	s.logger.Info("session bootstrapped",
		"student_id", studentID,
		"quiz_key", quiz.Key(),
		"token", entry.token)

	return s.buildView(entry), nil
}

func toEnginePool(pool []*models.Question) []engine.Question {
	out := make([]engine.Question, 0, len(pool))
	for _, q := range pool {
		out = append(out, engine.Question{
			ID:          q.ID,
			Type:        engine.QuestionType(q.Type),
			Prompt:      q.Prompt,
			Options:     q.OptionList(),
			Answer:      q.Answer,
			Hint:        q.Hint,
			HintEnabled: q.HintEnabled,
		})
	}
	return out
}

// fetchFailedView is the intro view for a session that could not resolve its
// inputs. It carries no token; the student retries by bootstrapping again.
func (s *sessionService) fetchFailedView(unitID, category string) *SessionView {
	return &SessionView{
		UnitID:   unitID,
		Category: category,
		Snapshot: engine.Snapshot{
			Phase:       engine.PhaseIntro,
			Eligibility: engine.Eligibility{Reason: engine.RejectFetchFailed},
		},
	}
}

func (s *sessionService) register(entry *sessionEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ownerKey := entry.ownerKey()
	if oldToken, ok := s.owners[ownerKey]; ok {
		if old, ok := s.sessions[oldToken]; ok {
			old.session.Close()
			delete(s.sessions, oldToken)
		}
	}

	s.sessions[entry.token] = entry
	s.owners[ownerKey] = entry.token
}

// ===== SESSION ACTIONS =====

func (s *sessionService) Start(ctx context.Context, token, studentID string) (*SessionView, error) {
	entry, err := s.lookup(token, studentID)
	if err != nil {
		return nil, err
	}
	if err := entry.session.Start(); err != nil {
		return nil, err
	}
	return s.buildView(entry), nil
}

func (s *sessionService) Answer(ctx context.Context, token, studentID, answer string) (*SessionView, error) {
	entry, err := s.lookup(token, studentID)
	if err != nil {
		return nil, err
	}
	if err := entry.session.Answer(answer); err != nil {
		return nil, err
	}
	return s.buildView(entry), nil
}

func (s *sessionService) Next(ctx context.Context, token, studentID string) (*SessionView, error) {
	entry, err := s.lookup(token, studentID)
	if err != nil {
		return nil, err
	}
	if _, err := entry.session.Next(); err != nil {
		return nil, err
	}
	return s.buildView(entry), nil
}

func (s *sessionService) Prev(ctx context.Context, token, studentID string) (*SessionView, error) {
	entry, err := s.lookup(token, studentID)
	if err != nil {
		return nil, err
	}
	if err := entry.session.Prev(); err != nil {
		return nil, err
	}
	return s.buildView(entry), nil
}

func (s *sessionService) Hint(ctx context.Context, token, studentID string) (string, error) {
	entry, err := s.lookup(token, studentID)
	if err != nil {
		return "", err
	}
	return entry.session.RevealHint()
}

func (s *sessionService) Finish(ctx context.Context, token, studentID string) (*engine.Result, error) {
	entry, err := s.lookup(token, studentID)
	if err != nil {
		return nil, err
	}
	if err := entry.session.Finish(); err != nil {
		return nil, err
	}
	return entry.session.Result()
}

func (s *sessionService) Snapshot(ctx context.Context, token, studentID string) (*SessionView, error) {
	entry, err := s.lookup(token, studentID)
	if err != nil {
		return nil, err
	}
	return s.buildView(entry), nil
}

func (s *sessionService) Result(ctx context.Context, token, studentID string) (*engine.Result, error) {
	entry, err := s.lookup(token, studentID)
	if err != nil {
		return nil, err
	}
	return entry.session.Result()
}

// ===== REGISTRY INTERNALS =====

func (s *sessionService) lookup(token, studentID string) (*sessionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if entry.studentID != studentID {
		return nil, ErrSessionNotOwned
	}

	entry.touched = time.Now()
	return entry, nil
}

func (s *sessionService) buildView(entry *sessionEntry) *SessionView {
	snap := entry.session.Snapshot()
	view := &SessionView{
		Token:    entry.token,
		UnitID:   entry.unitID,
		Category: entry.category,
		Snapshot: snap,
	}

	if snap.Phase == engine.PhaseActive {
		if q, err := entry.session.Current(); err == nil {
			view.Question = &q
		}
	}

	return view
}

// sweep evicts sessions idle past the TTL. Finished sessions stay readable
// until they age out so the student can still fetch the result.
func (s *sessionService) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *sessionService) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for token, entry := range s.sessions {
		if now.Sub(entry.touched) < s.ttl {
			continue
		}
		entry.session.Close()
		delete(s.sessions, token)
		if s.owners[entry.ownerKey()] == token {
			delete(s.owners, entry.ownerKey())
		}
		s.logger.Info("session evicted",
			"token", token,
			"student_id", entry.studentID,
			"quiz_key", models.QuizKey(entry.unitID, entry.category))
	}
}

// Shutdown closes all live sessions and stops the sweeper.
func (s *sessionService) Shutdown() {
	close(s.stop)

	s.mu.Lock()
	defer s.mu.Unlock()

	for token, entry := range s.sessions {
		entry.session.Close()
		delete(s.sessions, token)
	}
	s.owners = make(map[string]string)
}
