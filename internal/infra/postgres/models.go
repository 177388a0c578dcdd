package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"learnhub-service/internal/domain"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Username     string    `bun:"username,notnull"`
	Email        string    `bun:"email,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	IsStaff      bool      `bun:"is_staff,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		IsStaff:      r.IsStaff,
		CreatedAt:    r.CreatedAt,
	}
}

type profileRow struct {
	bun.BaseModel `bun:"table:profiles,alias:p"`

	ID                 int64      `bun:"id,pk,autoincrement"`
	UserID             int64      `bun:"user_id,notnull"`
	Role               string     `bun:"role,notnull"`
	SubscriptionStatus bool       `bun:"subscription_status,notnull"`
	SubscriptionStart  *time.Time `bun:"subscription_start"`
	SubscriptionEnd    *time.Time `bun:"subscription_end"`
	Points             int        `bun:"points,notnull"`
	Username           string     `bun:"username,scanonly"`
}

func (r profileRow) toDomain() domain.Profile {
	return domain.Profile{
		ID:                 r.ID,
		UserID:             r.UserID,
		Username:           r.Username,
		Role:               domain.Role(r.Role),
		SubscriptionStatus: r.SubscriptionStatus,
		SubscriptionStart:  r.SubscriptionStart,
		SubscriptionEnd:    r.SubscriptionEnd,
		Points:             r.Points,
	}
}

type categoryRow struct {
	bun.BaseModel `bun:"table:categories,alias:cat"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull"`
	Slug string `bun:"slug,notnull"`
}

type courseRow struct {
	bun.BaseModel `bun:"table:courses,alias:c"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Title       string `bun:"title,notnull"`
	Description string `bun:"description,notnull"`
	VideoURL    string `bun:"video_url,notnull"`
	Difficulty  string `bun:"difficulty,notnull"`
	IsPremium   bool   `bun:"is_premium,notnull"`
	CategoryID  int64  `bun:"category_id,nullzero"`
	Slug        string `bun:"slug,notnull"`
}

func newCourseRow(c domain.Course) courseRow {
	return courseRow{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		VideoURL:    c.VideoURL,
		Difficulty:  string(c.Difficulty),
		IsPremium:   c.IsPremium,
		CategoryID:  c.CategoryID,
		Slug:        c.Slug,
	}
}

func (r courseRow) toDomain() domain.Course {
	return domain.Course{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		VideoURL:    r.VideoURL,
		Difficulty:  domain.Difficulty(r.Difficulty),
		IsPremium:   r.IsPremium,
		CategoryID:  r.CategoryID,
		Slug:        r.Slug,
	}
}

type enrollmentRow struct {
	bun.BaseModel `bun:"table:enrollments,alias:e"`

	ID         int64     `bun:"id,pk,autoincrement"`
	UserID     int64     `bun:"user_id,notnull"`
	CourseID   int64     `bun:"course_id,notnull"`
	EnrolledAt time.Time `bun:"enrolled_at,notnull"`
	CourseSlug string    `bun:"course_slug,scanonly"`
}

func (r enrollmentRow) toDomain() domain.Enrollment {
	return domain.Enrollment{ID: r.ID, UserID: r.UserID, CourseID: r.CourseID, CourseSlug: r.CourseSlug, EnrolledAt: r.EnrolledAt}
}

type progressRow struct {
	bun.BaseModel `bun:"table:progress,alias:g"`

	ID        int64 `bun:"id,pk,autoincrement"`
	UserID    int64 `bun:"user_id,notnull"`
	CourseID  int64 `bun:"course_id,notnull"`
	Percent   int   `bun:"percent,notnull"`
	Completed bool  `bun:"completed,notnull"`
}

func (r progressRow) toDomain() domain.Progress {
	return domain.Progress{ID: r.ID, UserID: r.UserID, CourseID: r.CourseID, Percent: r.Percent, Completed: r.Completed}
}

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes,alias:q"`

	ID        int64  `bun:"id,pk,autoincrement"`
	Title     string `bun:"title,notnull"`
	CourseID  *int64 `bun:"course_id"`
	IsPremium bool   `bun:"is_premium,notnull"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:qn"`

	ID       int64  `bun:"id,pk,autoincrement"`
	QuizID   int64  `bun:"quiz_id,notnull"`
	Text     string `bun:"text,notnull"`
	Position int    `bun:"position,notnull"`
}

type answerRow struct {
	bun.BaseModel `bun:"table:answers,alias:a"`

	ID         int64  `bun:"id,pk,autoincrement"`
	QuestionID int64  `bun:"question_id,notnull"`
	Text       string `bun:"text,notnull"`
	IsCorrect  bool   `bun:"is_correct,notnull"`
}

type resultRow struct {
	bun.BaseModel `bun:"table:quiz_results,alias:r"`

	ID          int64     `bun:"id,pk,autoincrement"`
	UserID      int64     `bun:"user_id,notnull"`
	QuizID      int64     `bun:"quiz_id,notnull"`
	Score       int       `bun:"score,notnull"`
	CompletedAt time.Time `bun:"completed_at,notnull"`
}

func (r resultRow) toDomain() domain.QuizResult {
	return domain.QuizResult{ID: r.ID, UserID: r.UserID, QuizID: r.QuizID, Score: r.Score, CompletedAt: r.CompletedAt}
}

type threadRow struct {
	bun.BaseModel `bun:"table:forum_threads,alias:t"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Title        string    `bun:"title,notnull"`
	Content      string    `bun:"content,notnull"`
	AuthorID     int64     `bun:"author_id,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
	CommentCount int       `bun:"comment_count,scanonly"`
}

func (r threadRow) toDomain() domain.ForumThread {
	return domain.ForumThread{
		ID:           r.ID,
		Title:        r.Title,
		Content:      r.Content,
		AuthorID:     r.AuthorID,
		CommentCount: r.CommentCount,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type commentRow struct {
	bun.BaseModel `bun:"table:forum_comments,alias:fc"`

	ID        int64     `bun:"id,pk,autoincrement"`
	ThreadID  int64     `bun:"thread_id,notnull"`
	AuthorID  int64     `bun:"author_id,notnull"`
	Content   string    `bun:"content,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func (r commentRow) toDomain() domain.ForumComment {
	return domain.ForumComment{ID: r.ID, ThreadID: r.ThreadID, AuthorID: r.AuthorID, Content: r.Content, CreatedAt: r.CreatedAt}
}

type articleRow struct {
	bun.BaseModel `bun:"table:articles,alias:art"`

	ID         int64     `bun:"id,pk,autoincrement"`
	Title      string    `bun:"title,notnull"`
	Content    string    `bun:"content,notnull"`
	AuthorID   int64     `bun:"author_id,notnull"`
	CategoryID int64     `bun:"category_id,nullzero"`
	IsPremium  bool      `bun:"is_premium,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

func (r articleRow) toDomain() domain.Article {
	return domain.Article{
		ID:         r.ID,
		Title:      r.Title,
		Content:    r.Content,
		AuthorID:   r.AuthorID,
		CategoryID: r.CategoryID,
		IsPremium:  r.IsPremium,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type postRow struct {
	bun.BaseModel `bun:"table:blog_posts,alias:bp"`

	ID       int64     `bun:"id,pk,autoincrement"`
	AuthorID int64     `bun:"author_id,notnull"`
	Title    string    `bun:"title,notnull"`
	Content  string    `bun:"content,notnull"`
	PubDate  time.Time `bun:"pub_date,notnull"`
}

func (r postRow) toDomain() domain.BlogPost {
	return domain.BlogPost{ID: r.ID, AuthorID: r.AuthorID, Title: r.Title, Content: r.Content, PubDate: r.PubDate}
}

type badgeRow struct {
	bun.BaseModel `bun:"table:badges,alias:b"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Name        string `bun:"name,notnull"`
	Description string `bun:"description,notnull"`
	ImageKey    string `bun:"image_key,notnull"`
}

func (r badgeRow) toDomain() domain.Badge {
	return domain.Badge{ID: r.ID, Name: r.Name, Description: r.Description, ImageKey: r.ImageKey}
}

type userBadgeRow struct {
	bun.BaseModel `bun:"table:user_badges,alias:ub"`

	UserID   int64     `bun:"user_id,pk"`
	BadgeID  int64     `bun:"badge_id,pk"`
	EarnedAt time.Time `bun:"earned_at,notnull"`
	Badge    *badgeRow `bun:"rel:belongs-to,join:badge_id=id"`
}

func (r userBadgeRow) toDomain() domain.UserBadge {
	ub := domain.UserBadge{UserID: r.UserID, EarnedAt: r.EarnedAt}
	if r.Badge != nil {
		ub.Badge = r.Badge.toDomain()
	}
	return ub
}
