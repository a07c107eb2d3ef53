package events

import (
	"context"
	"time"
)

const (
	// EventSource identifies this service in every published envelope.
	EventSource = "quiz-service"

	// EventVersion is the envelope schema version.
	EventVersion = "1.0"
)

// Event types published by this service.
const (
	EventAttemptCompleted = "attempt.completed"
	EventQuizUpdated      = "quiz.config_updated"
)

// Event is the envelope every published message is wrapped in.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// AttemptCompletedEvent is the payload for EventAttemptCompleted.
type AttemptCompletedEvent struct {
	StudentID        string    `json:"student_id"`
	UnitID           string    `json:"unit_id"`
	Category         string    `json:"category"`
	Score            int       `json:"score"`
	CompletionReason string    `json:"completion_reason"`
	CompletedAt      time.Time `json:"completed_at"`
}

// QuizUpdatedEvent is the payload for EventQuizUpdated.
type QuizUpdatedEvent struct {
	UnitID    string `json:"unit_id"`
	Category  string `json:"category"`
	Active    bool   `json:"active"`
	UpdatedBy string `json:"updated_by"`
}

// EventPublisher abstracts the message broker. Publishing is best-effort for
// callers; implementations must not be given veto power over domain state.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
