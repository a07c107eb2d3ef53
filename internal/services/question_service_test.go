package services

import (
	"context"
	"errors"
	"testing"

	"github.com/classhub/quiz-service/internal/models"
	"github.com/classhub/quiz-service/internal/validator"
)

func newTestQuestionService(repo *fakeRepository) QuestionService {
	return NewQuestionService(repo, validator.New(), testLogger())
}

func TestCreateQuestionAnswerShape(t *testing.T) {
	cases := []struct {
		name    string
		req     QuestionCreateRequest
		wantErr bool
	}{
		{
			name: "choice with answer among options",
			req: QuestionCreateRequest{
				UnitID: "bio101", Category: "practice",
				Type: models.QuestionChoice, Prompt: "pick one",
				Options: []string{"xylem", "phloem"}, Answer: "xylem",
			},
		},
		{
			name: "choice with answer outside options",
			req: QuestionCreateRequest{
				UnitID: "bio101", Category: "practice",
				Type: models.QuestionChoice, Prompt: "pick one",
				Options: []string{"xylem", "phloem"}, Answer: "cambium",
			},
			wantErr: true,
		},
		{
			name: "choice with single option",
			req: QuestionCreateRequest{
				UnitID: "bio101", Category: "practice",
				Type: models.QuestionChoice, Prompt: "pick one",
				Options: []string{"xylem"}, Answer: "xylem",
			},
			wantErr: true,
		},
		{
			name: "true false",
			req: QuestionCreateRequest{
				UnitID: "bio101", Category: "practice",
				Type: models.QuestionTrueFalse, Prompt: "water boils at 100C",
				Answer: "true",
			},
		},
		{
			name: "true false with free text answer",
			req: QuestionCreateRequest{
				UnitID: "bio101", Category: "practice",
				Type: models.QuestionTrueFalse, Prompt: "water boils at 100C",
				Answer: "yes",
			},
			wantErr: true,
		},
		{
			name: "ordering with canonical join",
			req: QuestionCreateRequest{
				UnitID: "bio101", Category: "practice",
				Type: models.QuestionOrdering, Prompt: "order the phases",
				Options: []string{"prophase", "metaphase", "anaphase"},
				Answer:  "prophase||metaphase||anaphase",
			},
		},
		{
			name: "ordering with wrong join",
			req: QuestionCreateRequest{
				UnitID: "bio101", Category: "practice",
				Type: models.QuestionOrdering, Prompt: "order the phases",
				Options: []string{"prophase", "metaphase", "anaphase"},
				Answer:  "metaphase||prophase||anaphase",
			},
			wantErr: true,
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestQuestionService(newFakeRepository())
			_, err := svc.Create(context.Background(), &tt.req, "teacher-1")
			if tt.wantErr && err == nil {
				t.Fatal("expected an error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Create: %v", err)
			}
		})
	}
}

func TestCreateQuestionRejectsDelimiterInOptions(t *testing.T) {
	svc := newTestQuestionService(newFakeRepository())

	_, err := svc.Create(context.Background(), &QuestionCreateRequest{
		UnitID: "bio101", Category: "practice",
		Type: models.QuestionChoice, Prompt: "pick one",
		Options: []string{"a||b", "c"}, Answer: "c",
	}, "teacher-1")
	if !IsValidationError(err) {
		t.Fatalf("error = %v, want validation error", err)
	}
}

func TestUpdateQuestionKeepsShapeConsistent(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestQuestionService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, &QuestionCreateRequest{
		UnitID: "bio101", Category: "practice",
		Type: models.QuestionChoice, Prompt: "pick one",
		Options: []string{"xylem", "phloem"}, Answer: "xylem",
	}, "teacher-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Changing just the answer to something outside the options must fail.
	bad := "cambium"
	if _, err := svc.Update(ctx, created.ID, &QuestionUpdateRequest{Answer: &bad}); err == nil {
		t.Fatal("expected shape validation to reject the merged update")
	}

	// Replacing options and answer together is fine.
	good := "phloem"
	updated, err := svc.Update(ctx, created.ID, &QuestionUpdateRequest{Answer: &good})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Answer != "phloem" {
		t.Errorf("answer = %q, want phloem", updated.Answer)
	}
}

func TestCreateBatchAllOrNothing(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestQuestionService(repo)

	reqs := []QuestionCreateRequest{
		{
			UnitID: "bio101", Category: "practice",
			Type: models.QuestionTrueFalse, Prompt: "p1", Answer: "true",
		},
		{
			UnitID: "bio101", Category: "practice",
			Type: models.QuestionChoice, Prompt: "p2",
			Options: []string{"a", "b"}, Answer: "z",
		},
	}

	if _, err := svc.CreateBatch(context.Background(), reqs, "teacher-1"); err == nil {
		t.Fatal("expected batch to fail on the malformed question")
	}
	if n, _ := repo.question.CountByKey(context.Background(), nil, "bio101", "practice"); n != 0 {
		t.Errorf("questions persisted = %d, want 0", n)
	}
}

func TestDeleteQuestionNotFound(t *testing.T) {
	svc := newTestQuestionService(newFakeRepository())

	if err := svc.Delete(context.Background(), 42); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("error = %v, want ErrQuestionNotFound", err)
	}
}
