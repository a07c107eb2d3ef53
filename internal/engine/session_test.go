package engine

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"
)

type stubRecorder struct {
	mu         sync.Mutex
	history    History
	fetchErr   error
	persistErr error
	persisted  []*Result
}

func (r *stubRecorder) FetchHistory(ctx context.Context, identity, quizKey string) (History, error) {
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	return r.history, nil
}

func (r *stubRecorder) Persist(ctx context.Context, identity, quizKey string, result *Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.persistErr != nil {
		return r.persistErr
	}
	r.persisted = append(r.persisted, result)
	return nil
}

func (r *stubRecorder) persistedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.persisted)
}

func testParams(rec *stubRecorder) Params {
	return Params{
		Config: Config{
			Active:           true,
			QuestionCount:    3,
			TimeLimitSeconds: 300,
			AllowRetake:      true,
			HintLimit:        1,
		},
		Pool: []Question{
			{ID: 1, Type: Choice, Prompt: "q1", Options: []string{"a", "b"}, Answer: "a", Hint: "first hint", HintEnabled: true},
			{ID: 2, Type: Choice, Prompt: "q2", Options: []string{"a", "b"}, Answer: "b", Hint: "second hint", HintEnabled: true},
			{ID: 3, Type: ShortAnswer, Prompt: "q3", Answer: "three"},
		},
		Identity: "student-1",
		QuizKey:  "unit7_vocabulary",
		Recorder: rec,
		Rand:     rand.New(rand.NewSource(1)),
	}
}

// waitPersist blocks until the fire-and-forget persist goroutine finished.
func waitPersist(t *testing.T, s *Session) {
	t.Helper()
	s.mu.Lock()
	done := s.persistDone
	s.mu.Unlock()
	if done == nil {
		t.Fatal("no persist in flight")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("persist did not complete")
	}
}

// forceTick delivers one countdown tick from the current timer generation.
func forceTick(s *Session) {
	s.mu.Lock()
	gen := s.timerGen
	s.mu.Unlock()
	s.tick(gen)
}

func TestSessionLifecycle(t *testing.T) {
	rec := &stubRecorder{}
	s := Bootstrap(context.Background(), testParams(rec))

	snap := s.Snapshot()
	if snap.Phase != PhaseIntro {
		t.Fatalf("expected intro after bootstrap, got %s", snap.Phase)
	}
	if !snap.Eligibility.Startable {
		t.Fatalf("expected startable session, got %s", snap.Eligibility.Reason)
	}
	if snap.QuestionCount != 3 {
		t.Fatalf("expected working set of 3, got %d", snap.QuestionCount)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Answer("a"); err != nil {
		t.Fatalf("answer: %v", err)
	}

	if finished, _ := s.Next(); finished {
		t.Fatal("should not finish before the last question")
	}
	if err := s.Answer("b"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if _, err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	if err := s.Answer("three"); err != nil {
		t.Fatalf("answer: %v", err)
	}

	finished, err := s.Next()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !finished {
		t.Fatal("next on the last question must finish the session")
	}

	res, err := s.Result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if res.Score != 100 {
		t.Errorf("expected 100, got %d", res.Score)
	}
	if res.Reason != ReasonCompleted {
		t.Errorf("expected completed, got %s", res.Reason)
	}

	waitPersist(t, s)
	if rec.persistedCount() != 1 {
		t.Errorf("expected 1 persisted attempt, got %d", rec.persistedCount())
	}
}

func TestSessionNavigation(t *testing.T) {
	rec := &stubRecorder{}
	s := Bootstrap(context.Background(), testParams(rec))
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	// Prev on the first question is a no-op.
	if err := s.Prev(); err != nil {
		t.Fatalf("prev: %v", err)
	}
	if snap := s.Snapshot(); snap.CurrentIndex != 0 {
		t.Errorf("expected index 0, got %d", snap.CurrentIndex)
	}

	if _, err := s.Next(); err != nil {
		t.Fatal(err)
	}
	if err := s.Prev(); err != nil {
		t.Fatal(err)
	}
	if snap := s.Snapshot(); snap.CurrentIndex != 0 {
		t.Errorf("expected index 0 after next+prev, got %d", snap.CurrentIndex)
	}
}

func TestEligibilityDisabled(t *testing.T) {
	rec := &stubRecorder{}
	p := testParams(rec)
	p.Config.Active = false

	s := Bootstrap(context.Background(), p)

	snap := s.Snapshot()
	if snap.Eligibility.Startable {
		t.Fatal("inactive quiz must not be startable")
	}
	if snap.Eligibility.Reason != RejectDisabled {
		t.Errorf("expected disabled, got %s", snap.Eligibility.Reason)
	}
	if err := s.Start(); !errors.Is(err, ErrNotStartable) {
		t.Errorf("expected ErrNotStartable, got %v", err)
	}
}

func TestEligibilityExamPrepBypassesActiveGate(t *testing.T) {
	rec := &stubRecorder{}
	p := testParams(rec)
	p.Config.Active = false
	p.ExamPrep = true

	s := Bootstrap(context.Background(), p)

	if !s.Snapshot().Eligibility.Startable {
		t.Error("exam-prep pools should be startable even when inactive")
	}
}

func TestEligibilityEmptyPool(t *testing.T) {
	rec := &stubRecorder{}
	p := testParams(rec)
	p.Pool = []Question{{ID: 1, Type: Choice, Prompt: "broken", Options: []string{"a"}}} // no canonical answer

	s := Bootstrap(context.Background(), p)

	if got := s.Snapshot().Eligibility.Reason; got != RejectEmptyPool {
		t.Errorf("expected empty_pool, got %s", got)
	}
}

func TestEligibilityRetakeBlocked(t *testing.T) {
	rec := &stubRecorder{
		history: History{{CompletedAt: time.Now().Add(-time.Hour)}},
	}
	p := testParams(rec)
	p.Config.AllowRetake = false

	s := Bootstrap(context.Background(), p)

	if got := s.Snapshot().Eligibility.Reason; got != RejectRetakeBlocked {
		t.Errorf("expected retake_blocked, got %s", got)
	}
}

func TestEligibilityCooldown(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name          string
		lastAttempt   time.Time
		wantStartable bool
		wantRemaining int
	}{
		{"mid cooldown", now.Add(-4 * time.Minute), false, 6},
		{"just under boundary", now.Add(-9*time.Minute - 30*time.Second), false, 1},
		{"exactly at boundary", now.Add(-10 * time.Minute), true, 0},
		{"past cooldown", now.Add(-11 * time.Minute), true, 0},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			rec := &stubRecorder{history: History{{CompletedAt: tt.lastAttempt}}}
			p := testParams(rec)
			p.Config.CooldownMinutes = 10
			p.Clock = func() time.Time { return now }

			s := Bootstrap(context.Background(), p)

			elig := s.Snapshot().Eligibility
			if elig.Startable != tt.wantStartable {
				t.Fatalf("startable = %v, want %v", elig.Startable, tt.wantStartable)
			}
			if !tt.wantStartable {
				if elig.Reason != RejectCooldown {
					t.Errorf("expected cooldown_active, got %s", elig.Reason)
				}
				if elig.CooldownRemaining != tt.wantRemaining {
					t.Errorf("remaining = %d, want %d", elig.CooldownRemaining, tt.wantRemaining)
				}
			}
		})
	}
}

func TestFetchFailureReachesIntro(t *testing.T) {
	rec := &stubRecorder{fetchErr: errors.New("store unavailable")}
	s := Bootstrap(context.Background(), testParams(rec))

	snap := s.Snapshot()
	if snap.Phase != PhaseIntro {
		t.Fatalf("expected intro, got %s", snap.Phase)
	}
	if snap.Eligibility.Reason != RejectFetchFailed {
		t.Errorf("expected fetch_failed, got %s", snap.Eligibility.Reason)
	}
}

func TestHintLimitEnforced(t *testing.T) {
	rec := &stubRecorder{}
	s := Bootstrap(context.Background(), testParams(rec)) // HintLimit = 1
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	hint, err := s.RevealHint()
	if err != nil || hint != "first hint" {
		t.Fatalf("expected first hint, got %q (%v)", hint, err)
	}

	// Re-revealing the same hint is free.
	if hint, _ := s.RevealHint(); hint != "first hint" {
		t.Errorf("re-reveal should return the hint again, got %q", hint)
	}

	if _, err := s.Next(); err != nil {
		t.Fatal(err)
	}

	// Limit reached: further reveals are a silent no-op.
	hint, err = s.RevealHint()
	if err != nil {
		t.Fatalf("reveal past limit must not error, got %v", err)
	}
	if hint != "" {
		t.Errorf("reveal past limit must return nothing, got %q", hint)
	}
	if used := s.Snapshot().HintsUsed; used != 1 {
		t.Errorf("hint count must never exceed the limit, got %d", used)
	}
}

func TestTimeoutAutoSubmits(t *testing.T) {
	rec := &stubRecorder{}
	s := Bootstrap(context.Background(), testParams(rec))
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Answer("a"); err != nil {
		t.Fatal(err)
	}

	// Drain the countdown to its final tick mid-set.
	s.mu.Lock()
	s.remaining = 1
	s.mu.Unlock()
	forceTick(s)

	res, err := s.Result()
	if err != nil {
		t.Fatalf("expected finished session, got %v", err)
	}
	if res.Reason != ReasonTimedOut {
		t.Errorf("expected timed_out, got %s", res.Reason)
	}
	// Only the first question was answered; the rest grade as incorrect.
	if res.Score != 33 {
		t.Errorf("expected 33, got %d", res.Score)
	}

	waitPersist(t, s)
	if rec.persistedCount() != 1 {
		t.Errorf("expected 1 persisted attempt, got %d", rec.persistedCount())
	}
}

func TestStaleTickAfterFinishIgnored(t *testing.T) {
	rec := &stubRecorder{}
	s := Bootstrap(context.Background(), testParams(rec))
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	s.mu.Lock()
	staleGen := s.timerGen
	s.mu.Unlock()

	if err := s.Finish(); err != nil {
		t.Fatal(err)
	}
	waitPersist(t, s)

	// A timer callback from before the finish must not fire a second submit.
	if alive := s.tick(staleGen); alive {
		t.Error("stale tick should report the timer as stopped")
	}

	res, _ := s.Result()
	if res.Reason != ReasonCompleted {
		t.Errorf("stale tick must not overwrite the completion reason, got %s", res.Reason)
	}
	if rec.persistedCount() != 1 {
		t.Errorf("expected exactly 1 persisted attempt, got %d", rec.persistedCount())
	}
}

func TestPersistFailureDoesNotBlockFinish(t *testing.T) {
	rec := &stubRecorder{persistErr: errors.New("write refused")}
	s := Bootstrap(context.Background(), testParams(rec))
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Finish(); err != nil {
		t.Fatal(err)
	}
	waitPersist(t, s)

	if s.CurrentPhase() != PhaseFinished {
		t.Error("session must reach finished even when persistence fails")
	}
	if _, err := s.Result(); err != nil {
		t.Errorf("result must remain readable, got %v", err)
	}
}

func TestFinishedSessionRejectsMutation(t *testing.T) {
	rec := &stubRecorder{}
	s := Bootstrap(context.Background(), testParams(rec))
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Finish(); err != nil {
		t.Fatal(err)
	}
	waitPersist(t, s)

	if err := s.Answer("x"); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("answer after finish: expected ErrWrongPhase, got %v", err)
	}
	if _, err := s.Next(); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("next after finish: expected ErrWrongPhase, got %v", err)
	}
	if _, err := s.RevealHint(); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("hint after finish: expected ErrWrongPhase, got %v", err)
	}
}

func TestCloseDiscardsActiveAttempt(t *testing.T) {
	rec := &stubRecorder{}
	s := Bootstrap(context.Background(), testParams(rec))
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Answer("a"); err != nil {
		t.Fatal(err)
	}

	s.Close()

	if s.CurrentPhase() != PhaseClosed {
		t.Errorf("expected closed, got %s", s.CurrentPhase())
	}
	if _, err := s.Result(); !errors.Is(err, ErrNotFinished) {
		t.Errorf("result on a closed session: expected ErrNotFinished, got %v", err)
	}
	if err := s.Answer("b"); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("answer after close: expected ErrWrongPhase, got %v", err)
	}
	if rec.persistedCount() != 0 {
		t.Errorf("closing must not persist a partial attempt, got %d", rec.persistedCount())
	}
}

func TestCloseKeepsFinishedResultReadable(t *testing.T) {
	rec := &stubRecorder{}
	s := Bootstrap(context.Background(), testParams(rec))
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Finish(); err != nil {
		t.Fatal(err)
	}
	waitPersist(t, s)

	s.Close()

	if s.CurrentPhase() != PhaseFinished {
		t.Errorf("expected finished, got %s", s.CurrentPhase())
	}
	if _, err := s.Result(); err != nil {
		t.Errorf("result must remain readable after close, got %v", err)
	}
}

func TestOrderingOptionsStableAcrossNavigation(t *testing.T) {
	rec := &stubRecorder{}
	p := testParams(rec)
	p.Config.QuestionCount = 2
	p.Config.RandomOrder = false
	p.Pool = []Question{
		{ID: 1, Type: Ordering, Prompt: "arrange", Options: []string{"A", "B", "C", "D"}, Answer: "A||B||C||D"},
		{ID: 2, Type: ShortAnswer, Prompt: "q2", Answer: "x"},
	}

	s := Bootstrap(context.Background(), p)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	first, err := s.Current()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Next(); err != nil {
		t.Fatal(err)
	}
	if err := s.Prev(); err != nil {
		t.Fatal(err)
	}
	again, err := s.Current()
	if err != nil {
		t.Fatal(err)
	}

	if len(first.Options) != len(again.Options) {
		t.Fatal("option count changed across navigation")
	}
	for i := range first.Options {
		if first.Options[i] != again.Options[i] {
			t.Fatal("ordering options must not re-shuffle when navigating back")
		}
	}
}
