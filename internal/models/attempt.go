package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type CompletionReason string

const (
	AttemptCompleted CompletionReason = "completed"
	AttemptTimedOut  CompletionReason = "timed_out"
)

// AnswerOutcome is one element of the JSONB outcomes column: what the student
// submitted for a question and whether it graded correct.
type AnswerOutcome struct {
	QuestionID uint   `json:"question_id"`
	Submitted  string `json:"submitted,omitempty"`
	Correct    bool   `json:"correct"`
}

// QuizAttempt is one finished attempt. Rows are immutable once written;
// partial attempts are never persisted.
type QuizAttempt struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	StudentID string `json:"student_id" gorm:"not null;size:255;index:idx_attempt_student_quiz"`
	UnitID    string `json:"unit_id" gorm:"not null;size:100;index:idx_attempt_student_quiz"`
	Category  string `json:"category" gorm:"not null;size:100;index:idx_attempt_student_quiz"`

	Score            int              `json:"score" gorm:"not null"`
	CompletionReason CompletionReason `json:"completion_reason" gorm:"not null;size:20"`

	StartedAt   *time.Time `json:"started_at"`
	CompletedAt time.Time  `json:"completed_at" gorm:"not null;index"`

	Outcomes datatypes.JSON `json:"outcomes" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// QuizKey returns the composite key the attempt belongs to.
func (a *QuizAttempt) QuizKey() string {
	return QuizKey(a.UnitID, a.Category)
}

// OutcomeList decodes the JSONB outcomes column.
func (a *QuizAttempt) OutcomeList() []AnswerOutcome {
	if len(a.Outcomes) == 0 {
		return nil
	}
	var outcomes []AnswerOutcome
	if err := json.Unmarshal(a.Outcomes, &outcomes); err != nil {
		return nil
	}
	return outcomes
}

// SetOutcomeList encodes per-question outcomes into the JSONB column.
func (a *QuizAttempt) SetOutcomeList(outcomes []AnswerOutcome) error {
	data, err := json.Marshal(outcomes)
	if err != nil {
		return err
	}
	a.Outcomes = data
	return nil
}
