package app

import "learnhub-service/internal/domain"

// FailedQuestion describes a question answered wrongly or not at all.
type FailedQuestion struct {
	QuestionID     int64    `json:"questionId"`
	Question       string   `json:"question"`
	Submitted      int64    `json:"submitted,omitempty"`
	CorrectAnswers []string `json:"correctAnswers"`
}

// GradeResult is the outcome of grading one attempt.
type GradeResult struct {
	Score     int              `json:"score"`
	Total     int              `json:"totalQuestions"`
	Submitted map[int64]int64  `json:"userAnswers"`
	Failed    []FailedQuestion `json:"failedQuestions"`
}

// Grade scores submissions (question id to chosen answer id) against quiz.
// A question counts when the chosen answer is one of its correct answers; missing
// or unknown choices count as wrong.
func Grade(quiz domain.Quiz, submissions map[int64]int64) GradeResult {
	result := GradeResult{
		Total:     len(quiz.Questions),
		Submitted: make(map[int64]int64, len(quiz.Questions)),
		Failed:    []FailedQuestion{},
	}
	for _, q := range quiz.Questions {
		choice, answered := submissions[q.ID]
		if answered {
			result.Submitted[q.ID] = choice
		}

		correct := make([]string, 0, 1)
		hit := false
		for _, a := range q.Answers {
			if !a.IsCorrect {
				continue
			}
			correct = append(correct, a.Text)
			if answered && a.ID == choice {
				hit = true
			}
		}
		if hit {
			result.Score++
			continue
		}
		result.Failed = append(result.Failed, FailedQuestion{
			QuestionID:     q.ID,
			Question:       q.Text,
			Submitted:      choice,
			CorrectAnswers: correct,
		})
	}
	return result
}
