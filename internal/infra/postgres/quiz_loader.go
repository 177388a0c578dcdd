package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"learnhub-service/internal/domain"
)

// QuizLoader reads a quiz with its questions and answers over pgx.
// Grading and the quiz page are read paths, so they bypass bun.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

const quizAnswersQuery = `
SELECT qn.id, qn.text, qn.position, a.id, a.text, a.is_correct
FROM questions AS qn
LEFT JOIN answers AS a ON a.question_id = qn.id
WHERE qn.quiz_id = $1
ORDER BY qn.position, qn.id, a.id`

// Quiz loads questions ordered by position; a question without answers is
// kept with an empty answer list.
func (l *QuizLoader) Quiz(ctx context.Context, id int64) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := l.pool.QueryRow(ctx,
		`SELECT id, title, course_id, is_premium FROM quizzes WHERE id = $1`, id,
	).Scan(&quiz.ID, &quiz.Title, &quiz.CourseID, &quiz.IsPremium)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}

	rows, err := l.pool.Query(ctx, quizAnswersQuery, id)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	quiz.Questions = []domain.Question{}
	for rows.Next() {
		var (
			qID       int64
			qText     string
			position  int
			aID       *int64
			aText     *string
			isCorrect *bool
		)
		if err := rows.Scan(&qID, &qText, &position, &aID, &aText, &isCorrect); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan question: %w", err)
		}
		n := len(quiz.Questions)
		if n == 0 || quiz.Questions[n-1].ID != qID {
			quiz.Questions = append(quiz.Questions, domain.Question{ID: qID, Text: qText, Position: position, Answers: []domain.Answer{}})
			n++
		}
		if aID != nil {
			q := &quiz.Questions[n-1]
			q.Answers = append(q.Answers, domain.Answer{ID: *aID, Text: *aText, IsCorrect: *isCorrect})
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("read questions: %w", err)
	}
	return quiz, nil
}
