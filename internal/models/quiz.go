package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// CategoryExamPrep marks revision pools that stay startable even when the
// quiz config is inactive.
const CategoryExamPrep = "exam_prep"

// Quiz is the per-(unit, category) session configuration a teacher controls.
type Quiz struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	UnitID   string `json:"unit_id" gorm:"not null;size:100;uniqueIndex:idx_quiz_unit_category"`
	Category string `json:"category" gorm:"not null;size:100;uniqueIndex:idx_quiz_unit_category"`

	Active           bool `json:"active" gorm:"default:true"`
	QuestionCount    int  `json:"question_count" gorm:"not null"`
	TimeLimitSeconds int  `json:"time_limit_seconds" gorm:"not null"`
	AllowRetake      bool `json:"allow_retake" gorm:"default:true"`
	CooldownMinutes  int  `json:"cooldown_minutes" gorm:"default:0"`
	HintLimit        int  `json:"hint_limit" gorm:"default:0"`
	RandomOrder      bool `json:"random_order" gorm:"default:true"`

	CreatedBy string `json:"created_by" gorm:"size:255"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// Key returns the composite identifier used for cache keys, attempt rows and
// the session registry.
func (q *Quiz) Key() string {
	return QuizKey(q.UnitID, q.Category)
}

// QuizKey builds the "{unitID}_{category}" composite key.
func QuizKey(unitID, category string) string {
	return fmt.Sprintf("%s_%s", unitID, category)
}
