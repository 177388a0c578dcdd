package domain

import "time"

// Role is the coarse account tier shown on a profile.
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleFree      Role = "free"
	RolePremium   Role = "premium"
)

// Difficulty grades a course.
type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

// Valid reports whether d is one of the known difficulty levels.
func (d Difficulty) Valid() bool {
	switch d {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

// User is the authenticated principal.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsStaff      bool      `json:"isStaff"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Profile extends a user with subscription state and leaderboard points.
type Profile struct {
	ID                 int64      `json:"id"`
	UserID             int64      `json:"userId"`
	Username           string     `json:"username"`
	Role               Role       `json:"role"`
	SubscriptionStatus bool       `json:"subscriptionStatus"`
	SubscriptionStart  *time.Time `json:"subscriptionStart,omitempty"`
	SubscriptionEnd    *time.Time `json:"subscriptionEnd,omitempty"`
	Points             int        `json:"points"`
}

// HasPremiumAccess is the single source of truth for premium recognition.
// An active subscription whose end date (when set) has not passed grants access.
func (p Profile) HasPremiumAccess(now time.Time) bool {
	if !p.SubscriptionStatus {
		return false
	}
	if p.SubscriptionEnd != nil && !p.SubscriptionEnd.After(now) {
		return false
	}
	return true
}

// Category groups courses and articles.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Course is a video course, optionally premium.
type Course struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	VideoURL    string     `json:"videoUrl"`
	Difficulty  Difficulty `json:"difficulty"`
	IsPremium   bool       `json:"isPremium"`
	CategoryID  int64      `json:"categoryId"`
	Slug        string     `json:"slug"`
}

// Enrollment records that a user joined a course.
type Enrollment struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	CourseID   int64     `json:"courseId"`
	CourseSlug string    `json:"courseSlug,omitempty"`
	EnrolledAt time.Time `json:"enrolledAt"`
}

// Progress tracks how far a user is through a course.
type Progress struct {
	ID        int64 `json:"id"`
	UserID    int64 `json:"userId"`
	CourseID  int64 `json:"courseId"`
	Percent   int   `json:"percent"`
	Completed bool  `json:"completed"`
}

// Answer is one choice of a question.
type Answer struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question models a multiple-choice question; any number of answers may be correct.
type Question struct {
	ID       int64    `json:"id"`
	Text     string   `json:"text"`
	Position int      `json:"position"`
	Answers  []Answer `json:"answers"`
}

// Quiz is an ordered collection of questions, optionally attached to a course.
type Quiz struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	CourseID  *int64     `json:"courseId,omitempty"`
	IsPremium bool       `json:"isPremium"`
	Questions []Question `json:"questions"`
}

// QuizResult is the last graded attempt of a user on a quiz.
type QuizResult struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	QuizID      int64     `json:"quizId"`
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completedAt"`
}

// ForumThread is a discussion topic.
type ForumThread struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	AuthorID     int64     `json:"authorId"`
	CommentCount int       `json:"commentCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ForumComment is an append-only reply under a thread.
type ForumComment struct {
	ID        int64     `json:"id"`
	ThreadID  int64     `json:"threadId"`
	AuthorID  int64     `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Badge is an award users can earn.
type Badge struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageKey    string `json:"-"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// UserBadge links a badge to the user who earned it.
type UserBadge struct {
	UserID   int64     `json:"userId"`
	Badge    Badge     `json:"badge"`
	EarnedAt time.Time `json:"earnedAt"`
}

// Article is editorial content, optionally premium.
type Article struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	AuthorID   int64     `json:"authorId"`
	CategoryID int64     `json:"categoryId"`
	IsPremium  bool      `json:"isPremium"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// BlogPost is a user-authored post.
type BlogPost struct {
	ID       int64     `json:"id"`
	AuthorID int64     `json:"authorId"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	PubDate  time.Time `json:"pubDate"`
}

// Standing is the leaderboard aggregate of one profile.
type Standing struct {
	Profile        Profile  `json:"profile"`
	AvgScore       *float64 `json:"avgScore"`
	CompletedCount int      `json:"completedCount"`
}

// Leaderboard is a ranked snapshot.
type Leaderboard struct {
	Entries   []Standing `json:"entries"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
