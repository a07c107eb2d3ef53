package engine

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"
)

type Phase string

const (
	PhaseLoading  Phase = "loading"
	PhaseIntro    Phase = "intro"
	PhaseActive   Phase = "active"
	PhaseFinished Phase = "finished"
	PhaseClosed   Phase = "closed"
)

// Params carries everything a session needs at bootstrap. Config and Pool are
// fetched by the caller; history is fetched through the Recorder. ExamPrep
// pools bypass the Active gate but no other eligibility check.
type Params struct {
	Config   Config
	Pool     []Question
	Identity string
	QuizKey  string
	ExamPrep bool
	Recorder AttemptRecorder
	Logger   *slog.Logger
	Rand     *rand.Rand
	Clock    func() time.Time
}

// Session drives one attempt through loading, intro, active and finished.
// All mutation happens under a single mutex; the 1 Hz countdown is the only
// autonomous activity and is owned by the session. A generation counter
// invalidates stale timer callbacks so a manual finish and a timeout firing
// in the same tick can never double-submit.
type Session struct {
	mu sync.Mutex

	cfg      Config
	identity string
	quizKey  string
	rec      AttemptRecorder
	logger   *slog.Logger
	clock    func() time.Time

	phase        Phase
	elig         Eligibility
	attemptCount int

	workingSet  []Question
	optionOrder map[uint][]string

	current       int
	answers       map[uint]string
	hintsRevealed map[uint]bool
	remaining     int

	timerGen int
	result   *Result

	persistDone chan struct{}
}

// Bootstrap creates a session, resolves the attempt history through the
// recorder, computes eligibility and the working set, and leaves the session
// in the intro phase. A rejected session still reaches intro; it is flagged
// non-startable and the reason is available from Snapshot.
func Bootstrap(ctx context.Context, p Params) *Session {
	s := &Session{
		cfg:           p.Config,
		identity:      p.Identity,
		quizKey:       p.QuizKey,
		rec:           p.Recorder,
		logger:        p.Logger,
		clock:         p.Clock,
		phase:         PhaseLoading,
		answers:       make(map[uint]string),
		hintsRevealed: make(map[uint]bool),
		optionOrder:   make(map[uint][]string),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	rng := p.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(s.clock().UnixNano()))
	}

	history, err := s.rec.FetchHistory(ctx, p.Identity, p.QuizKey)
	if err != nil {
		s.logger.Error("failed to fetch attempt history",
			"identity", p.Identity,
			"quiz_key", p.QuizKey,
			"error", err)
		s.elig = Eligibility{Reason: RejectFetchFailed}
		s.phase = PhaseIntro
		return s
	}
	s.attemptCount = len(history)

	s.elig = s.checkEligibility(p, history)
	if s.elig.Startable {
		sel := Select(p.Pool, history.SolvedIDs(), p.Config.QuestionCount, p.Config.RandomOrder, rng)
		s.workingSet = sel.Questions
		s.optionOrder = sel.OptionOrder
	}
	s.phase = PhaseIntro

	return s
}

// checkEligibility applies the rejection checks in precedence order.
func (s *Session) checkEligibility(p Params, history History) Eligibility {
	if !p.Config.Active && !p.ExamPrep {
		return Eligibility{Reason: RejectDisabled}
	}

	validCount := 0
	for _, q := range p.Pool {
		if q.Valid() {
			validCount++
		}
	}
	if validCount == 0 {
		return Eligibility{Reason: RejectEmptyPool}
	}

	if !p.Config.AllowRetake && len(history) > 0 {
		return Eligibility{Reason: RejectRetakeBlocked}
	}

	if p.Config.AllowRetake && p.Config.CooldownMinutes > 0 && len(history) > 0 {
		if last, ok := history.MostRecent(); ok {
			elapsed := s.clock().Sub(last).Minutes()
			if elapsed < float64(p.Config.CooldownMinutes) {
				remaining := int(math.Ceil(float64(p.Config.CooldownMinutes) - elapsed))
				return Eligibility{Reason: RejectCooldown, CooldownRemaining: remaining}
			}
		}
	}

	return Eligibility{Startable: true}
}

// ===== STATE TRANSITIONS =====

// Start moves the session from intro to active, resets all per-attempt state
// and starts the countdown.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseIntro {
		return ErrWrongPhase
	}
	if !s.elig.Startable {
		return ErrNotStartable
	}

	s.current = 0
	s.answers = make(map[uint]string)
	s.hintsRevealed = make(map[uint]bool)
	s.remaining = s.cfg.TimeLimitSeconds
	s.phase = PhaseActive
	s.startCountdownLocked()

	return nil
}

// Answer records or overwrites the submission for the current question. It
// does not advance the index.
func (s *Session) Answer(raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive {
		return ErrWrongPhase
	}
	s.answers[s.workingSet[s.current].ID] = raw
	return nil
}

// Next advances to the following question, or submits the attempt when called
// on the last index. It reports whether the session finished.
func (s *Session) Next() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive {
		return false, ErrWrongPhase
	}
	if s.current < len(s.workingSet)-1 {
		s.current++
		return false, nil
	}
	s.finishLocked(ReasonCompleted)
	return true, nil
}

// Prev moves back one question. Calling it on the first question is a no-op.
func (s *Session) Prev() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive {
		return ErrWrongPhase
	}
	if s.current > 0 {
		s.current--
	}
	return nil
}

// Finish submits the attempt explicitly regardless of position.
func (s *Session) Finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive {
		return ErrWrongPhase
	}
	s.finishLocked(ReasonCompleted)
	return nil
}

// RevealHint returns the current question's hint and counts it against the
// session hint limit. Once the limit is reached further requests are a no-op:
// they return an empty hint and no error, and the used count never exceeds
// the limit. Re-revealing an already revealed hint is free.
func (s *Session) RevealHint() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive {
		return "", ErrWrongPhase
	}

	q := s.workingSet[s.current]
	if !q.HintEnabled || q.Hint == "" {
		return "", nil
	}
	if s.hintsRevealed[q.ID] {
		return q.Hint, nil
	}
	if len(s.hintsRevealed) >= s.cfg.HintLimit {
		return "", nil
	}
	s.hintsRevealed[q.ID] = true
	return q.Hint, nil
}

// Close cancels the countdown and invalidates the session. In-memory state is
// discarded; partial attempts are never persisted. An already finished session
// keeps its phase so the graded result stays readable.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timerGen++
	if s.phase != PhaseFinished {
		s.phase = PhaseClosed
	}
}

// finishLocked grades the attempt, stops the countdown and hands the result
// to the recorder without blocking the transition to finished.
func (s *Session) finishLocked(reason CompletionReason) {
	s.timerGen++ // cancel countdown, invalidate in-flight ticks

	res := Grade(s.workingSet, s.answers)
	res.Reason = reason
	res.CompletedAt = s.clock()
	s.result = &res
	s.phase = PhaseFinished

	s.persistDone = make(chan struct{})
	go s.persist(&res, s.persistDone)
}

func (s *Session) persist(res *Result, done chan struct{}) {
	defer close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.rec.Persist(ctx, s.identity, s.quizKey, res); err != nil {
		s.logger.Error("failed to persist attempt",
			"identity", s.identity,
			"quiz_key", s.quizKey,
			"score", res.Score,
			"error", err)
	}
}

// ===== COUNTDOWN =====

func (s *Session) startCountdownLocked() {
	s.timerGen++
	go s.runCountdown(s.timerGen)
}

func (s *Session) runCountdown(gen int) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if !s.tick(gen) {
			return
		}
	}
}

// tick decrements the countdown and reports whether the timer should keep
// running. Ticks from a superseded generation are ignored.
func (s *Session) tick(gen int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.timerGen || s.phase != PhaseActive {
		return false
	}
	s.remaining--
	if s.remaining <= 0 {
		s.remaining = 0
		s.finishLocked(ReasonTimedOut)
		return false
	}
	return true
}

// ===== READ ACCESS =====

// Snapshot is a point-in-time read of the session for display.
type Snapshot struct {
	Phase            Phase       `json:"phase"`
	Eligibility      Eligibility `json:"eligibility"`
	AttemptCount     int         `json:"attempt_count"`
	QuestionCount    int         `json:"question_count"`
	TimeLimitSeconds int         `json:"time_limit_seconds"`
	CurrentIndex     int         `json:"current_index"`
	RemainingSeconds int         `json:"remaining_seconds"`
	AnsweredCount    int         `json:"answered_count"`
	HintsUsed        int         `json:"hints_used"`
	HintLimit        int         `json:"hint_limit"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Phase:            s.phase,
		Eligibility:      s.elig,
		AttemptCount:     s.attemptCount,
		QuestionCount:    len(s.workingSet),
		TimeLimitSeconds: s.cfg.TimeLimitSeconds,
		CurrentIndex:     s.current,
		RemainingSeconds: s.remaining,
		AnsweredCount:    len(s.answers),
		HintsUsed:        len(s.hintsRevealed),
		HintLimit:        s.cfg.HintLimit,
	}
}

// QuestionView is the current question as presented to the test-taker: no
// canonical answer, ordering options in their fixed per-session permutation,
// and the hint only once revealed.
type QuestionView struct {
	ID            uint         `json:"id"`
	Type          QuestionType `json:"type"`
	Prompt        string       `json:"prompt"`
	Options       []string     `json:"options,omitempty"`
	Index         int          `json:"index"`
	Total         int          `json:"total"`
	First         bool         `json:"first"`
	Last          bool         `json:"last"`
	Submitted     string       `json:"submitted,omitempty"`
	HintAvailable bool         `json:"hint_available"`
	Hint          string       `json:"hint,omitempty"`
}

func (s *Session) Current() (QuestionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive {
		return QuestionView{}, ErrWrongPhase
	}

	q := s.workingSet[s.current]
	options := q.Options
	if q.Type == Ordering {
		options = s.optionOrder[q.ID]
	}

	view := QuestionView{
		ID:            q.ID,
		Type:          q.Type,
		Prompt:        q.Prompt,
		Options:       options,
		Index:         s.current,
		Total:         len(s.workingSet),
		First:         s.current == 0,
		Last:          s.current == len(s.workingSet)-1,
		Submitted:     s.answers[q.ID],
		HintAvailable: q.HintEnabled && q.Hint != "" && (s.hintsRevealed[q.ID] || len(s.hintsRevealed) < s.cfg.HintLimit),
	}
	if s.hintsRevealed[q.ID] {
		view.Hint = q.Hint
	}

	return view, nil
}

// Result returns the graded outcome once the session has finished.
func (s *Session) Result() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result == nil {
		return nil, ErrNotFinished
	}
	return s.result, nil
}

// Phase returns the current lifecycle phase.
func (s *Session) CurrentPhase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}
