package validator

import "testing"

type quizConfigRequest struct {
	QuestionCount    int `validate:"required,question_count"`
	TimeLimitSeconds int `validate:"required,time_limit"`
	CooldownMinutes  int `validate:"cooldown_range"`
	HintLimit        int `validate:"hint_limit"`
}

func TestQuizConfigRules(t *testing.T) {
	v := New()

	cases := []struct {
		name    string
		req     quizConfigRequest
		wantErr bool
	}{
		{"valid", quizConfigRequest{QuestionCount: 10, TimeLimitSeconds: 300, CooldownMinutes: 60, HintLimit: 3}, false},
		{"question count too high", quizConfigRequest{QuestionCount: 101, TimeLimitSeconds: 300}, true},
		{"time limit too short", quizConfigRequest{QuestionCount: 10, TimeLimitSeconds: 5}, true},
		{"cooldown over a week", quizConfigRequest{QuestionCount: 10, TimeLimitSeconds: 300, CooldownMinutes: 20000}, true},
		{"negative hint limit", quizConfigRequest{QuestionCount: 10, TimeLimitSeconds: 300, HintLimit: -1}, true},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.Validate(tt.req)
			if tt.wantErr != errs.HasErrors() {
				t.Errorf("got errors %v, wantErr %v", errs, tt.wantErr)
			}
		})
	}
}

func TestQuestionTypeRule(t *testing.T) {
	v := New()

	type req struct {
		Type string `validate:"required,question_type"`
	}

	if errs := v.Validate(req{Type: "ordering"}); errs.HasErrors() {
		t.Errorf("ordering should pass: %v", errs)
	}
	if errs := v.Validate(req{Type: "essay"}); !errs.HasErrors() {
		t.Error("essay is not a supported type")
	}
}

func TestNoDelimiterRule(t *testing.T) {
	v := New()

	type req struct {
		Option string `validate:"required,no_delimiter"`
	}

	if errs := v.Validate(req{Option: "carbon dioxide"}); errs.HasErrors() {
		t.Errorf("plain token should pass: %v", errs)
	}
	if errs := v.Validate(req{Option: "a||b"}); !errs.HasErrors() {
		t.Error("token containing the delimiter must fail")
	}
}
