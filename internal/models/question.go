package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionChoice      QuestionType = "choice"
	QuestionTrueFalse   QuestionType = "true_false"
	QuestionShortAnswer QuestionType = "short_answer"
	QuestionOrdering    QuestionType = "ordering"
)

// ValidQuestionTypes is used by the validator's question_type rule.
var ValidQuestionTypes = []QuestionType{
	QuestionChoice,
	QuestionTrueFalse,
	QuestionShortAnswer,
	QuestionOrdering,
}

// Question is one pool entry for a (unit, category) pair. Options is a JSONB
// []string; for ordering questions Answer is the canonical sequence joined
// with the "||" delimiter.
type Question struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	UnitID   string `json:"unit_id" gorm:"not null;size:100;index:idx_question_unit_category"`
	Category string `json:"category" gorm:"not null;size:100;index:idx_question_unit_category"`

	Type    QuestionType   `json:"type" gorm:"not null;size:20"`
	Prompt  string         `json:"prompt" gorm:"not null;type:text"`
	Options datatypes.JSON `json:"options" gorm:"type:jsonb"`
	Answer  string         `json:"answer" gorm:"not null;type:text"`

	Hint        string `json:"hint" gorm:"type:text"`
	HintEnabled bool   `json:"hint_enabled" gorm:"default:false"`

	CreatedBy string `json:"created_by" gorm:"size:255"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Question) TableName() string {
	return "questions"
}

// OptionList decodes the JSONB options column. A missing or malformed column
// decodes to nil; the selector filters such questions downstream.
func (q *Question) OptionList() []string {
	if len(q.Options) == 0 {
		return nil
	}
	var opts []string
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil
	}
	return opts
}

// SetOptionList encodes options into the JSONB column.
func (q *Question) SetOptionList(opts []string) error {
	data, err := json.Marshal(opts)
	if err != nil {
		return err
	}
	q.Options = data
	return nil
}
