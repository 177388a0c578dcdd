package app_test

import (
	"reflect"
	"testing"

	"learnhub-service/internal/app"
	"learnhub-service/internal/domain"
)

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID: 1,
		Questions: []domain.Question{
			{ID: 10, Text: "2 + 2?", Answers: []domain.Answer{
				{ID: 100, Text: "3"},
				{ID: 101, Text: "4", IsCorrect: true},
			}},
			{ID: 11, Text: "Pick a prime", Answers: []domain.Answer{
				{ID: 110, Text: "2", IsCorrect: true},
				{ID: 111, Text: "3", IsCorrect: true},
				{ID: 112, Text: "4"},
			}},
			{ID: 12, Text: "Capital of France?", Answers: []domain.Answer{
				{ID: 120, Text: "Paris", IsCorrect: true},
			}},
		},
	}
}

func TestGradeScoresCorrectChoices(t *testing.T) {
	res := app.Grade(sampleQuiz(), map[int64]int64{10: 101, 11: 111, 12: 999})

	if res.Score != 2 || res.Total != 3 {
		t.Fatalf("expected 2/3, got %d/%d", res.Score, res.Total)
	}
	if len(res.Failed) != 1 {
		t.Fatalf("expected one failed question, got %+v", res.Failed)
	}
	failed := res.Failed[0]
	if failed.QuestionID != 12 || failed.Submitted != 999 || !reflect.DeepEqual(failed.CorrectAnswers, []string{"Paris"}) {
		t.Fatalf("unexpected failed question %+v", failed)
	}
}

func TestGradeUnansweredIsWrong(t *testing.T) {
	res := app.Grade(sampleQuiz(), nil)
	if res.Score != 0 || len(res.Failed) != 3 {
		t.Fatalf("expected every question failed, got score=%d failed=%d", res.Score, len(res.Failed))
	}
	if res.Failed[1].Submitted != 0 {
		t.Fatalf("expected no submitted choice, got %d", res.Failed[1].Submitted)
	}
	if !reflect.DeepEqual(res.Failed[1].CorrectAnswers, []string{"2", "3"}) {
		t.Fatalf("expected both correct answers listed, got %v", res.Failed[1].CorrectAnswers)
	}
	if len(res.Submitted) != 0 {
		t.Fatalf("expected empty submitted map, got %v", res.Submitted)
	}
}

func TestGradeIsDeterministic(t *testing.T) {
	subs := map[int64]int64{10: 100, 11: 110, 12: 120}
	first := app.Grade(sampleQuiz(), subs)
	for i := 0; i < 20; i++ {
		if again := app.Grade(sampleQuiz(), subs); !reflect.DeepEqual(first, again) {
			t.Fatalf("grade changed between runs: %+v vs %+v", first, again)
		}
	}
}

func TestGradeZeroQuestions(t *testing.T) {
	res := app.Grade(domain.Quiz{ID: 5}, map[int64]int64{1: 2})
	if res.Score != 0 || res.Total != 0 || len(res.Failed) != 0 {
		t.Fatalf("expected 0 of 0, got %+v", res)
	}
}

func TestGradeQuestionWithoutCorrectAnswer(t *testing.T) {
	quiz := domain.Quiz{Questions: []domain.Question{{ID: 1, Answers: []domain.Answer{{ID: 2, Text: "nope"}}}}}
	res := app.Grade(quiz, map[int64]int64{1: 2})
	if res.Score != 0 || len(res.Failed[0].CorrectAnswers) != 0 {
		t.Fatalf("expected unanswerable question to be wrong, got %+v", res)
	}
}
