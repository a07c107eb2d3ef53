package engine

import (
	"context"
	"time"
)

type QuestionType string

const (
	Choice      QuestionType = "choice"
	TrueFalse   QuestionType = "true_false"
	ShortAnswer QuestionType = "short_answer"
	Ordering    QuestionType = "ordering"
)

// OrderingDelimiter joins ordering tokens into the canonical answer string.
const OrderingDelimiter = "||"

// Question is one assessment item as seen by the engine. Options are only
// meaningful for choice and ordering types.
type Question struct {
	ID          uint
	Type        QuestionType
	Prompt      string
	Options     []string
	Answer      string // canonical answer; delimiter-joined for ordering
	Hint        string
	HintEnabled bool
}

// Valid reports whether the question is well-formed enough to grade.
// Malformed items are filtered out of the pool rather than failing mid-session.
func (q Question) Valid() bool {
	if q.Answer == "" {
		return false
	}
	if (q.Type == Choice || q.Type == Ordering) && len(q.Options) == 0 {
		return false
	}
	return true
}

// Config is the policy for one assessment instance.
type Config struct {
	Active           bool
	QuestionCount    int
	TimeLimitSeconds int
	AllowRetake      bool
	CooldownMinutes  int
	HintLimit        int
	RandomOrder      bool
}

type CompletionReason string

const (
	ReasonCompleted CompletionReason = "completed"
	ReasonTimedOut  CompletionReason = "timed_out"
)

// Outcome is the graded record of one question within an attempt.
type Outcome struct {
	QuestionID uint   `json:"question_id"`
	Submitted  string `json:"submitted"`
	Canonical  string `json:"canonical"`
	Correct    bool   `json:"correct"`
}

// Attempt is one completed prior attempt as reported by the recorder.
type Attempt struct {
	CompletedAt time.Time
	Outcomes    []Outcome
}

// History is all prior completed attempts by one identity for one quiz key,
// most recent last ordering is not assumed.
type History []Attempt

// SolvedIDs returns the union of all question IDs ever answered across the
// history, correct or not.
func (h History) SolvedIDs() map[uint]bool {
	solved := make(map[uint]bool)
	for _, a := range h {
		for _, o := range a.Outcomes {
			solved[o.QuestionID] = true
		}
	}
	return solved
}

// MostRecent returns the latest completion time in the history and false when
// the history is empty.
func (h History) MostRecent() (time.Time, bool) {
	var latest time.Time
	for _, a := range h {
		if a.CompletedAt.After(latest) {
			latest = a.CompletedAt
		}
	}
	return latest, !latest.IsZero()
}

// Result is the graded outcome of a finished session.
type Result struct {
	Score       int              `json:"score"`
	PerQuestion []Outcome        `json:"per_question"`
	Reason      CompletionReason `json:"reason"`
	CompletedAt time.Time        `json:"completed_at"`
}

// AttemptRecorder is the persistence boundary the engine calls out to.
// FetchHistory runs once at bootstrap and must tolerate zero results.
// Persist is fire-and-forget from the engine's perspective: a failure is
// logged and the session still reaches its finished state.
type AttemptRecorder interface {
	FetchHistory(ctx context.Context, identity, quizKey string) (History, error)
	Persist(ctx context.Context, identity, quizKey string, result *Result) error
}
