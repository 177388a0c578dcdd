package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"learnhub-service/internal/domain"
	"learnhub-service/internal/logging"
)

var tracer = otel.Tracer("learnhub-service/app")

// Choice is an answer option as shown to the quiz taker.
type Choice struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

type QuestionView struct {
	ID       int64    `json:"id"`
	Text     string   `json:"text"`
	Position int      `json:"position"`
	Choices  []Choice `json:"choices"`
}

// QuizView is a quiz with correct flags stripped.
type QuizView struct {
	ID        int64          `json:"id"`
	Title     string         `json:"title"`
	CourseID  *int64         `json:"courseId,omitempty"`
	IsPremium bool           `json:"isPremium"`
	Questions []QuestionView `json:"questions"`
}

func newQuizView(q domain.Quiz) QuizView {
	view := QuizView{
		ID:        q.ID,
		Title:     q.Title,
		CourseID:  q.CourseID,
		IsPremium: q.IsPremium,
		Questions: make([]QuestionView, 0, len(q.Questions)),
	}
	for _, question := range q.Questions {
		qv := QuestionView{ID: question.ID, Text: question.Text, Position: question.Position}
		for _, a := range question.Answers {
			qv.Choices = append(qv.Choices, Choice{ID: a.ID, Text: a.Text})
		}
		view.Questions = append(view.Questions, qv)
	}
	return view
}

// QuizService contains the quiz use cases: viewing and submitting attempts.
type QuizService struct {
	quizzes  QuizReader
	results  QuizStore
	access   *AccessService
	notifier Notifier
	clock    func() time.Time
	log      *logging.Logger
}

func NewQuizService(quizzes QuizReader, results QuizStore, access *AccessService, notifier Notifier, log *logging.Logger) *QuizService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &QuizService{
		quizzes:  quizzes,
		results:  results,
		access:   access,
		notifier: notifier,
		clock:    time.Now,
		log:      log,
	}
}

// View returns the quiz for answering when the caller may access it.
func (s *QuizService) View(ctx context.Context, p Principal, quizID int64) (QuizView, Decision, error) {
	quiz, err := s.quizzes.Quiz(ctx, quizID)
	if err != nil {
		return QuizView{}, Decision{}, err
	}
	_, decision, err := s.access.Check(ctx, p, quiz)
	if err != nil || !decision.Allowed {
		return QuizView{}, decision, err
	}
	return newQuizView(quiz), decision, nil
}

// Submit grades an attempt and stores it as the caller's result for the quiz.
func (s *QuizService) Submit(ctx context.Context, p Principal, quizID int64, submissions map[int64]int64) (GradeResult, Decision, error) {
	ctx, span := tracer.Start(ctx, "quiz.submit", trace.WithAttributes(
		attribute.Int64("quiz.id", quizID),
		attribute.Int64("user.id", p.UserID),
	))
	defer span.End()

	quiz, err := s.quizzes.Quiz(ctx, quizID)
	if err != nil {
		return GradeResult{}, Decision{}, err
	}
	_, decision, err := s.access.Check(ctx, p, quiz)
	if err != nil || !decision.Allowed {
		return GradeResult{}, decision, err
	}

	result := Grade(quiz, submissions)
	span.SetAttributes(attribute.Int("quiz.score", result.Score))

	if _, err := s.results.UpsertResult(ctx, domain.QuizResult{
		UserID:      p.UserID,
		QuizID:      quiz.ID,
		Score:       result.Score,
		CompletedAt: s.clock(),
	}); err != nil {
		return GradeResult{}, decision, err
	}
	s.log.Info("quiz graded", "quiz", quiz.ID, "user", p.UserID, "score", result.Score, "total", result.Total)
	s.notifier.LeaderboardChanged(ctx)
	return result, decision, nil
}

// Create stores a new quiz. Every question needs text and at least one correct
// answer; positions default to submission order.
func (s *QuizService) Create(ctx context.Context, q domain.Quiz) (domain.Quiz, error) {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(q.Title) == "" {
		verr.Add("title", "title is required")
	}
	for i := range q.Questions {
		question := &q.Questions[i]
		field := fmt.Sprintf("questions[%d]", i)
		if strings.TrimSpace(question.Text) == "" {
			verr.Add(field, "question text is required")
		}
		hasCorrect := false
		for _, a := range question.Answers {
			hasCorrect = hasCorrect || a.IsCorrect
		}
		if !hasCorrect {
			verr.Add(field, "question needs a correct answer")
		}
		if question.Position == 0 {
			question.Position = i + 1
		}
	}
	if err := verr.OrNil(); err != nil {
		return domain.Quiz{}, err
	}
	if err := s.results.CreateQuiz(ctx, &q); err != nil {
		return domain.Quiz{}, err
	}
	s.log.Info("quiz created", "quiz", q.ID, "questions", len(q.Questions))
	return q, nil
}
