package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/classhub/quiz-service/internal/models"
)

// Validator wraps go-playground/validator with the quiz-domain rules.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with all custom rules registered.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	v := &Validator{validate: validate}
	v.registerRules()

	return v
}

// Validate validates a struct and converts failures to ValidationErrors.
// A nil return means the struct passed.
func (v *Validator) Validate(s interface{}) ValidationErrors {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// Var validates a single value against a rule expression.
func (v *Validator) Var(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

func (v *Validator) registerRules() {
	// question_type: one of the supported question kinds
	v.validate.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		value := models.QuestionType(fl.Field().String())
		for _, t := range models.ValidQuestionTypes {
			if value == t {
				return true
			}
		}
		return false
	})

	// question_count: working-set size a quiz may request
	v.validate.RegisterValidation("question_count", func(fl validator.FieldLevel) bool {
		n := fl.Field().Int()
		return n >= 1 && n <= 100
	})

	// time_limit: session countdown in seconds
	v.validate.RegisterValidation("time_limit", func(fl validator.FieldLevel) bool {
		n := fl.Field().Int()
		return n >= 10 && n <= 7200
	})

	// cooldown_range: minutes between retakes, up to one week
	v.validate.RegisterValidation("cooldown_range", func(fl validator.FieldLevel) bool {
		n := fl.Field().Int()
		return n >= 0 && n <= 10080
	})

	// hint_limit: hints per session
	v.validate.RegisterValidation("hint_limit", func(fl validator.FieldLevel) bool {
		n := fl.Field().Int()
		return n >= 0 && n <= 50
	})

	// no_delimiter: ordering option tokens must not contain the join
	// delimiter, or grading comparisons would be ambiguous
	v.validate.RegisterValidation("no_delimiter", func(fl validator.FieldLevel) bool {
		return !strings.Contains(fl.Field().String(), "||")
	})
}

// ===== ERROR REPORTING =====

// ValidationError describes one failed rule on one field.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// HasErrors reports whether any rule failed.
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// ToValidationErrors converts validator.ValidationErrors into the service's
// error shape.
func ToValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{
			Field:   "",
			Message: err.Error(),
			Rule:    "struct",
		}}
	}

	out := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: messageForRule(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func messageForRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "question_type":
		return "must be one of: choice, true_false, short_answer, ordering"
	case "question_count":
		return "must be between 1 and 100"
	case "time_limit":
		return "must be between 10 and 7200 seconds"
	case "cooldown_range":
		return "must be between 0 and 10080 minutes"
	case "hint_limit":
		return "must be between 0 and 50"
	case "no_delimiter":
		return "must not contain the sequence delimiter"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed rule %q", fe.Tag())
	}
}
