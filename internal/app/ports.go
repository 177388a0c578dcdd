package app

import (
	"context"
	"io"
	"time"

	"learnhub-service/internal/domain"
)

// TxRunner executes fn inside one storage transaction. Stores reached through the
// ctx passed to fn join that transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, u domain.User) error
	UserByID(ctx context.Context, id int64) (domain.User, error)
	UserByUsername(ctx context.Context, username string) (domain.User, error)
}

// ProfileStore owns profile rows. ProfileByUserID returns domain.ErrProfileMissing
// when the user has none.
type ProfileStore interface {
	CreateProfile(ctx context.Context, p *domain.Profile) error
	ProfileByUserID(ctx context.Context, userID int64) (domain.Profile, error)
	// AddPoints increments points atomically and returns the new total.
	AddPoints(ctx context.Context, userID int64, n int) (int, error)
	ActivateSubscription(ctx context.Context, userID int64, start, end time.Time) (domain.Profile, error)
	// ExpireSubscriptions clears subscription_status for every subscription ended before now.
	ExpireSubscriptions(ctx context.Context, now time.Time) (int, error)
}

type CatalogStore interface {
	CreateCategory(ctx context.Context, c *domain.Category) error
	CreateCourse(ctx context.Context, c *domain.Course) error
	ListCourses(ctx context.Context) ([]domain.Course, error)
	// SearchCourses matches a case-insensitive substring of the title.
	SearchCourses(ctx context.Context, query string) ([]domain.Course, error)
	CourseBySlug(ctx context.Context, slug string) (domain.Course, error)
}

type EnrollmentStore interface {
	// Enroll creates the (user, course) enrollment unless it already exists and
	// returns the stored row either way.
	Enroll(ctx context.Context, userID, courseID int64) (domain.Enrollment, error)
	IsEnrolled(ctx context.Context, userID, courseID int64) (bool, error)
	EnrollmentsByUser(ctx context.Context, userID int64) ([]domain.Enrollment, error)
}

type ProgressStore interface {
	// GetOrCreateProgress returns the (user, course) row, inserting a zero row if absent.
	GetOrCreateProgress(ctx context.Context, userID, courseID int64) (domain.Progress, error)
	// LockProgress is GetOrCreateProgress plus a row lock held until the surrounding
	// transaction ends.
	LockProgress(ctx context.Context, userID, courseID int64) (domain.Progress, error)
	SaveProgress(ctx context.Context, p domain.Progress) error
}

// QuizReader loads a quiz with its ordered questions and answers.
type QuizReader interface {
	Quiz(ctx context.Context, id int64) (domain.Quiz, error)
}

type QuizStore interface {
	CreateQuiz(ctx context.Context, q *domain.Quiz) error
	// QuizzesByCourse lists quizzes of a course without their questions.
	QuizzesByCourse(ctx context.Context, courseID int64) ([]domain.Quiz, error)
	// UpsertResult stores the last attempt of (user, quiz), replacing any earlier one.
	UpsertResult(ctx context.Context, r domain.QuizResult) (domain.QuizResult, error)
	ResultsByUser(ctx context.Context, userID int64, quizIDs []int64) ([]domain.QuizResult, error)
}

// StandingsReader returns the unsorted leaderboard aggregate of every profile.
type StandingsReader interface {
	Standings(ctx context.Context) ([]domain.Standing, error)
}

type ForumStore interface {
	CreateThread(ctx context.Context, t *domain.ForumThread) error
	ListThreads(ctx context.Context) ([]domain.ForumThread, error)
	Thread(ctx context.Context, id int64) (domain.ForumThread, error)
	AddComment(ctx context.Context, c *domain.ForumComment) error
	Comments(ctx context.Context, threadID int64) ([]domain.ForumComment, error)
}

type ArticleStore interface {
	CreateArticle(ctx context.Context, a *domain.Article) error
	ListArticles(ctx context.Context, includePremium bool) ([]domain.Article, error)
	Article(ctx context.Context, id int64) (domain.Article, error)
}

type BlogStore interface {
	CreatePost(ctx context.Context, p *domain.BlogPost) error
	UpdatePost(ctx context.Context, p domain.BlogPost) error
	Post(ctx context.Context, id int64) (domain.BlogPost, error)
	ListPosts(ctx context.Context, titleQuery string) ([]domain.BlogPost, error)
}

type BadgeStore interface {
	CreateBadge(ctx context.Context, b *domain.Badge) error
	Badge(ctx context.Context, id int64) (domain.Badge, error)
	// AwardBadge is idempotent per (user, badge).
	AwardBadge(ctx context.Context, userID, badgeID int64, at time.Time) (domain.UserBadge, error)
	BadgesByUser(ctx context.Context, userID int64) ([]domain.UserBadge, error)
}

// ResumeStore keeps one pending premium resource per session.
type ResumeStore interface {
	Remember(ctx context.Context, sessionID string, p domain.PendingResource) error
	// Take returns and clears the slot.
	Take(ctx context.Context, sessionID string) (domain.PendingResource, bool, error)
	Peek(ctx context.Context, sessionID string) (domain.PendingResource, bool, error)
}

// VideoSearcher looks up video ids for a query. Implementations may fail; callers
// treat failures as "no video".
type VideoSearcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// PaymentRequest is one charge for the premium plan.
type PaymentRequest struct {
	UserID         int64  `json:"userId"`
	AmountCents    int64  `json:"amountCents"`
	Currency       string `json:"currency"`
	IdempotencyKey string `json:"idempotencyKey"`
	Description    string `json:"description"`
}

// PaymentResult is the gateway's answer for a charge that reached it.
type PaymentResult struct {
	Approved      bool   `json:"approved"`
	TransactionID string `json:"transactionId"`
	Message       string `json:"message,omitempty"`
}

// PaymentGateway charges a user. A transport failure is returned as an error
// wrapping domain.ErrPaymentUnavailable.
type PaymentGateway interface {
	Charge(ctx context.Context, req PaymentRequest) (PaymentResult, error)
}

// ObjectStore keeps binary blobs such as badge images.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Notifier is told whenever the leaderboard inputs changed.
type Notifier interface {
	LeaderboardChanged(ctx context.Context)
}

type nopNotifier struct{}

func (nopNotifier) LeaderboardChanged(context.Context) {}

// Principal is the authenticated caller of a use case.
type Principal struct {
	UserID    int64
	SessionID string
}
