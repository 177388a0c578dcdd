package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"learnhub-service/internal/domain"
)

// Store is the bun-backed entity store. Methods called with a context produced
// by InTx run on that transaction.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// Open connects bun to Postgres using the pgdriver connector.
func Open(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

type txKey struct{}

func (s *Store) conn(ctx context.Context) bun.IDB {
	if tx, ok := ctx.Value(txKey{}).(bun.Tx); ok {
		return tx
	}
	return s.db
}

// InTx runs fn in a transaction, committing when it returns nil. Nested calls
// join the outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(bun.Tx); ok {
		return fn(ctx)
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

func pgCode(err error) string {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C')
	}
	return ""
}

// translate maps "no rows" onto notFound and wraps everything else.
func translate(err error, notFound error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

// Users

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	row := userRow{
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		IsStaff:      u.IsStaff,
		CreatedAt:    u.CreatedAt,
	}
	if _, err := s.conn(ctx).NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		if pgCode(err) == codeUniqueViolation {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = row.ID
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u domain.User) error {
	res, err := s.conn(ctx).NewUpdate().
		Model(&userRow{ID: u.ID, Email: u.Email, PasswordHash: u.PasswordHash, IsStaff: u.IsStaff}).
		Column("email", "password_hash", "is_staff").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (domain.User, error) {
	var row userRow
	err := s.conn(ctx).NewSelect().Model(&row).Where("u.id = ?", id).Scan(ctx)
	if err != nil {
		return domain.User{}, translate(err, domain.ErrUserNotFound, "select user")
	}
	return row.toDomain(), nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (domain.User, error) {
	var row userRow
	err := s.conn(ctx).NewSelect().Model(&row).Where("u.username = ?", username).Scan(ctx)
	if err != nil {
		return domain.User{}, translate(err, domain.ErrUserNotFound, "select user")
	}
	return row.toDomain(), nil
}

// Profiles

func (s *Store) CreateProfile(ctx context.Context, p *domain.Profile) error {
	role := p.Role
	if role == "" {
		role = domain.RoleFree
	}
	row := profileRow{
		UserID:             p.UserID,
		Role:               string(role),
		SubscriptionStatus: p.SubscriptionStatus,
		SubscriptionStart:  p.SubscriptionStart,
		SubscriptionEnd:    p.SubscriptionEnd,
		Points:             p.Points,
	}
	if _, err := s.conn(ctx).NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	p.ID, p.Role = row.ID, role
	return nil
}

func (s *Store) ProfileByUserID(ctx context.Context, userID int64) (domain.Profile, error) {
	var row profileRow
	err := s.conn(ctx).NewSelect().
		Model(&row).
		ColumnExpr("p.*").
		ColumnExpr("u.username AS username").
		Join("JOIN users AS u ON u.id = p.user_id").
		Where("p.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return domain.Profile{}, translate(err, domain.ErrProfileMissing, "select profile")
	}
	return row.toDomain(), nil
}

// AddPoints increments in the database so concurrent awards never lose updates.
func (s *Store) AddPoints(ctx context.Context, userID int64, n int) (int, error) {
	var points int
	err := s.conn(ctx).NewUpdate().
		Model((*profileRow)(nil)).
		Set("points = points + ?", n).
		Where("user_id = ?", userID).
		Returning("points").
		Scan(ctx, &points)
	if err != nil {
		return 0, translate(err, domain.ErrProfileMissing, "add points")
	}
	return points, nil
}

func (s *Store) ActivateSubscription(ctx context.Context, userID int64, start, end time.Time) (domain.Profile, error) {
	res, err := s.conn(ctx).NewUpdate().
		Model((*profileRow)(nil)).
		Set("subscription_status = TRUE").
		Set("subscription_start = ?", start).
		Set("subscription_end = ?", end).
		Set("role = ?", string(domain.RolePremium)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("activate subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Profile{}, domain.ErrProfileMissing
	}
	return s.ProfileByUserID(ctx, userID)
}

func (s *Store) ExpireSubscriptions(ctx context.Context, now time.Time) (int, error) {
	res, err := s.conn(ctx).NewUpdate().
		Model((*profileRow)(nil)).
		Set("subscription_status = FALSE").
		Set("role = ?", string(domain.RoleFree)).
		Where("subscription_status").
		Where("subscription_end IS NOT NULL").
		Where("subscription_end <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("expire subscriptions: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Catalogue

func (s *Store) CreateCategory(ctx context.Context, c *domain.Category) error {
	row := categoryRow{Name: c.Name, Slug: c.Slug}
	if _, err := s.conn(ctx).NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		if pgCode(err) == codeUniqueViolation {
			return domain.ErrSlugTaken
		}
		return fmt.Errorf("insert category: %w", err)
	}
	c.ID = row.ID
	return nil
}

func (s *Store) CreateCourse(ctx context.Context, c *domain.Course) error {
	row := newCourseRow(*c)
	if _, err := s.conn(ctx).NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		switch pgCode(err) {
		case codeUniqueViolation:
			return domain.ErrSlugTaken
		case codeForeignKeyViolation:
			return domain.ErrCategoryNotFound
		}
		return fmt.Errorf("insert course: %w", err)
	}
	c.ID = row.ID
	return nil
}

func (s *Store) ListCourses(ctx context.Context) ([]domain.Course, error) {
	return s.selectCourses(ctx, func(q *bun.SelectQuery) *bun.SelectQuery { return q })
}

func (s *Store) SearchCourses(ctx context.Context, query string) ([]domain.Course, error) {
	return s.selectCourses(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("c.title ILIKE ?", likePattern(query))
	})
}

func (s *Store) selectCourses(ctx context.Context, filter func(*bun.SelectQuery) *bun.SelectQuery) ([]domain.Course, error) {
	var rows []courseRow
	if err := filter(s.conn(ctx).NewSelect().Model(&rows)).Order("c.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select courses: %w", err)
	}
	out := make([]domain.Course, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) CourseBySlug(ctx context.Context, slug string) (domain.Course, error) {
	var row courseRow
	if err := s.conn(ctx).NewSelect().Model(&row).Where("c.slug = ?", slug).Scan(ctx); err != nil {
		return domain.Course{}, translate(err, domain.ErrCourseNotFound, "select course")
	}
	return row.toDomain(), nil
}

// Enrollments

// Enroll relies on the (user_id, course_id) unique constraint: concurrent calls
// insert at most one row and all read it back.
func (s *Store) Enroll(ctx context.Context, userID, courseID int64) (domain.Enrollment, error) {
	row := enrollmentRow{UserID: userID, CourseID: courseID, EnrolledAt: time.Now().UTC()}
	_, err := s.conn(ctx).NewInsert().
		Model(&row).
		On("CONFLICT (user_id, course_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return domain.Enrollment{}, domain.ErrCourseNotFound
		}
		return domain.Enrollment{}, fmt.Errorf("insert enrollment: %w", err)
	}

	var stored enrollmentRow
	err = s.conn(ctx).NewSelect().
		Model(&stored).
		Where("e.user_id = ? AND e.course_id = ?", userID, courseID).
		Scan(ctx)
	if err != nil {
		return domain.Enrollment{}, fmt.Errorf("select enrollment: %w", err)
	}
	return stored.toDomain(), nil
}

func (s *Store) IsEnrolled(ctx context.Context, userID, courseID int64) (bool, error) {
	ok, err := s.conn(ctx).NewSelect().
		Model((*enrollmentRow)(nil)).
		Where("e.user_id = ? AND e.course_id = ?", userID, courseID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return ok, nil
}

func (s *Store) EnrollmentsByUser(ctx context.Context, userID int64) ([]domain.Enrollment, error) {
	var rows []enrollmentRow
	err := s.conn(ctx).NewSelect().
		Model(&rows).
		ColumnExpr("e.*").
		ColumnExpr("c.slug AS course_slug").
		Join("JOIN courses AS c ON c.id = e.course_id").
		Where("e.user_id = ?", userID).
		Order("e.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select enrollments: %w", err)
	}
	out := make([]domain.Enrollment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// Progress

func (s *Store) GetOrCreateProgress(ctx context.Context, userID, courseID int64) (domain.Progress, error) {
	return s.progressRow(ctx, userID, courseID, false)
}

// LockProgress must run inside InTx; the row lock is released at commit.
func (s *Store) LockProgress(ctx context.Context, userID, courseID int64) (domain.Progress, error) {
	return s.progressRow(ctx, userID, courseID, true)
}

func (s *Store) progressRow(ctx context.Context, userID, courseID int64, lock bool) (domain.Progress, error) {
	db := s.conn(ctx)
	_, err := db.NewInsert().
		Model(&progressRow{UserID: userID, CourseID: courseID}).
		On("CONFLICT (user_id, course_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return domain.Progress{}, domain.ErrCourseNotFound
		}
		return domain.Progress{}, fmt.Errorf("insert progress: %w", err)
	}

	var row progressRow
	q := db.NewSelect().Model(&row).Where("g.user_id = ? AND g.course_id = ?", userID, courseID)
	if lock {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		return domain.Progress{}, fmt.Errorf("select progress: %w", err)
	}
	return row.toDomain(), nil
}

// SaveProgress never moves percent backwards.
func (s *Store) SaveProgress(ctx context.Context, p domain.Progress) error {
	res, err := s.conn(ctx).NewUpdate().
		Model((*progressRow)(nil)).
		Set("percent = ?", p.Percent).
		Set("completed = ?", p.Completed).
		Where("user_id = ? AND course_id = ?", p.UserID, p.CourseID).
		Where("percent <= ?", p.Percent).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update progress: no row for user %d course %d at or below %d%%", p.UserID, p.CourseID, p.Percent)
	}
	return nil
}

// Quizzes

// CreateQuiz inserts the quiz with its questions and answers atomically.
func (s *Store) CreateQuiz(ctx context.Context, q *domain.Quiz) error {
	return s.InTx(ctx, func(ctx context.Context) error {
		db := s.conn(ctx)
		row := quizRow{Title: q.Title, CourseID: q.CourseID, IsPremium: q.IsPremium}
		if _, err := db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
			if pgCode(err) == codeForeignKeyViolation {
				return domain.ErrCourseNotFound
			}
			return fmt.Errorf("insert quiz: %w", err)
		}
		q.ID = row.ID

		for i := range q.Questions {
			question := &q.Questions[i]
			qr := questionRow{QuizID: q.ID, Text: question.Text, Position: question.Position}
			if _, err := db.NewInsert().Model(&qr).Returning("id").Exec(ctx); err != nil {
				return fmt.Errorf("insert question: %w", err)
			}
			question.ID = qr.ID
			if len(question.Answers) == 0 {
				continue
			}
			answers := make([]answerRow, len(question.Answers))
			for j, a := range question.Answers {
				answers[j] = answerRow{QuestionID: qr.ID, Text: a.Text, IsCorrect: a.IsCorrect}
			}
			if _, err := db.NewInsert().Model(&answers).Returning("id").Exec(ctx); err != nil {
				return fmt.Errorf("insert answers: %w", err)
			}
			for j := range answers {
				question.Answers[j].ID = answers[j].ID
			}
		}
		return nil
	})
}

func (s *Store) QuizzesByCourse(ctx context.Context, courseID int64) ([]domain.Quiz, error) {
	var rows []quizRow
	err := s.conn(ctx).NewSelect().Model(&rows).Where("q.course_id = ?", courseID).Order("q.id ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select quizzes: %w", err)
	}
	out := make([]domain.Quiz, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Quiz{ID: r.ID, Title: r.Title, CourseID: r.CourseID, IsPremium: r.IsPremium})
	}
	return out, nil
}

// UpsertResult keeps one row per (user, quiz); a retake overwrites score and time.
func (s *Store) UpsertResult(ctx context.Context, r domain.QuizResult) (domain.QuizResult, error) {
	row := resultRow{UserID: r.UserID, QuizID: r.QuizID, Score: r.Score, CompletedAt: r.CompletedAt}
	_, err := s.conn(ctx).NewInsert().
		Model(&row).
		On("CONFLICT (user_id, quiz_id) DO UPDATE").
		Set("score = EXCLUDED.score").
		Set("completed_at = EXCLUDED.completed_at").
		Returning("id").
		Exec(ctx)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return domain.QuizResult{}, domain.ErrQuizNotFound
		}
		return domain.QuizResult{}, fmt.Errorf("upsert quiz result: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) ResultsByUser(ctx context.Context, userID int64, quizIDs []int64) ([]domain.QuizResult, error) {
	if len(quizIDs) == 0 {
		return []domain.QuizResult{}, nil
	}
	var rows []resultRow
	err := s.conn(ctx).NewSelect().
		Model(&rows).
		Where("r.user_id = ?", userID).
		Where("r.quiz_id IN (?)", bun.In(quizIDs)).
		Order("r.quiz_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select quiz results: %w", err)
	}
	out := make([]domain.QuizResult, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// Forum

func (s *Store) CreateThread(ctx context.Context, t *domain.ForumThread) error {
	row := threadRow{Title: t.Title, Content: t.Content, AuthorID: t.AuthorID, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt}
	if _, err := s.conn(ctx).NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("insert thread: %w", err)
	}
	t.ID = row.ID
	return nil
}

func (s *Store) threadQuery(ctx context.Context, model interface{}) *bun.SelectQuery {
	return s.conn(ctx).NewSelect().
		Model(model).
		ColumnExpr("t.*").
		ColumnExpr("(SELECT count(*) FROM forum_comments AS fc WHERE fc.thread_id = t.id) AS comment_count")
}

func (s *Store) ListThreads(ctx context.Context) ([]domain.ForumThread, error) {
	var rows []threadRow
	if err := s.threadQuery(ctx, &rows).Order("t.created_at DESC", "t.id DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select threads: %w", err)
	}
	out := make([]domain.ForumThread, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) Thread(ctx context.Context, id int64) (domain.ForumThread, error) {
	var row threadRow
	if err := s.threadQuery(ctx, &row).Where("t.id = ?", id).Scan(ctx); err != nil {
		return domain.ForumThread{}, translate(err, domain.ErrThreadNotFound, "select thread")
	}
	return row.toDomain(), nil
}

func (s *Store) AddComment(ctx context.Context, c *domain.ForumComment) error {
	return s.InTx(ctx, func(ctx context.Context) error {
		row := commentRow{ThreadID: c.ThreadID, AuthorID: c.AuthorID, Content: c.Content, CreatedAt: c.CreatedAt}
		if _, err := s.conn(ctx).NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
			if pgCode(err) == codeForeignKeyViolation {
				return domain.ErrThreadNotFound
			}
			return fmt.Errorf("insert comment: %w", err)
		}
		c.ID = row.ID
		_, err := s.conn(ctx).NewUpdate().
			Model((*threadRow)(nil)).
			Set("updated_at = ?", c.CreatedAt).
			Where("id = ?", c.ThreadID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("touch thread: %w", err)
		}
		return nil
	})
}

func (s *Store) Comments(ctx context.Context, threadID int64) ([]domain.ForumComment, error) {
	var rows []commentRow
	err := s.conn(ctx).NewSelect().Model(&rows).Where("fc.thread_id = ?", threadID).Order("fc.id ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select comments: %w", err)
	}
	out := make([]domain.ForumComment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// Articles

func (s *Store) CreateArticle(ctx context.Context, a *domain.Article) error {
	row := articleRow{
		Title:      a.Title,
		Content:    a.Content,
		AuthorID:   a.AuthorID,
		CategoryID: a.CategoryID,
		IsPremium:  a.IsPremium,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if _, err := s.conn(ctx).NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	a.ID = row.ID
	return nil
}

func (s *Store) ListArticles(ctx context.Context, includePremium bool) ([]domain.Article, error) {
	var rows []articleRow
	q := s.conn(ctx).NewSelect().Model(&rows).Order("art.id DESC")
	if !includePremium {
		q = q.Where("NOT art.is_premium")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select articles: %w", err)
	}
	out := make([]domain.Article, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) Article(ctx context.Context, id int64) (domain.Article, error) {
	var row articleRow
	if err := s.conn(ctx).NewSelect().Model(&row).Where("art.id = ?", id).Scan(ctx); err != nil {
		return domain.Article{}, translate(err, domain.ErrArticleNotFound, "select article")
	}
	return row.toDomain(), nil
}

// Blog

func (s *Store) CreatePost(ctx context.Context, p *domain.BlogPost) error {
	row := postRow{AuthorID: p.AuthorID, Title: p.Title, Content: p.Content, PubDate: p.PubDate}
	if _, err := s.conn(ctx).NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	p.ID = row.ID
	return nil
}

func (s *Store) UpdatePost(ctx context.Context, p domain.BlogPost) error {
	res, err := s.conn(ctx).NewUpdate().
		Model(&postRow{ID: p.ID, Title: p.Title, Content: p.Content}).
		Column("title", "content").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrBlogPostNotFound
	}
	return nil
}

func (s *Store) Post(ctx context.Context, id int64) (domain.BlogPost, error) {
	var row postRow
	if err := s.conn(ctx).NewSelect().Model(&row).Where("bp.id = ?", id).Scan(ctx); err != nil {
		return domain.BlogPost{}, translate(err, domain.ErrBlogPostNotFound, "select post")
	}
	return row.toDomain(), nil
}

func (s *Store) ListPosts(ctx context.Context, titleQuery string) ([]domain.BlogPost, error) {
	var rows []postRow
	q := s.conn(ctx).NewSelect().Model(&rows).Order("bp.pub_date DESC", "bp.id DESC")
	if titleQuery != "" {
		q = q.Where("bp.title ILIKE ?", likePattern(titleQuery))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select posts: %w", err)
	}
	out := make([]domain.BlogPost, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// Badges

func (s *Store) CreateBadge(ctx context.Context, b *domain.Badge) error {
	row := badgeRow{Name: b.Name, Description: b.Description, ImageKey: b.ImageKey}
	if _, err := s.conn(ctx).NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("insert badge: %w", err)
	}
	b.ID = row.ID
	return nil
}

func (s *Store) Badge(ctx context.Context, id int64) (domain.Badge, error) {
	var row badgeRow
	if err := s.conn(ctx).NewSelect().Model(&row).Where("b.id = ?", id).Scan(ctx); err != nil {
		return domain.Badge{}, translate(err, domain.ErrBadgeNotFound, "select badge")
	}
	return row.toDomain(), nil
}

func (s *Store) AwardBadge(ctx context.Context, userID, badgeID int64, at time.Time) (domain.UserBadge, error) {
	_, err := s.conn(ctx).NewInsert().
		Model(&userBadgeRow{UserID: userID, BadgeID: badgeID, EarnedAt: at}).
		On("CONFLICT (user_id, badge_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return domain.UserBadge{}, domain.ErrUserNotFound
		}
		return domain.UserBadge{}, fmt.Errorf("award badge: %w", err)
	}
	var row userBadgeRow
	err = s.conn(ctx).NewSelect().
		Model(&row).
		Relation("Badge").
		Where("ub.user_id = ? AND ub.badge_id = ?", userID, badgeID).
		Scan(ctx)
	if err != nil {
		return domain.UserBadge{}, fmt.Errorf("select user badge: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) BadgesByUser(ctx context.Context, userID int64) ([]domain.UserBadge, error) {
	var rows []userBadgeRow
	err := s.conn(ctx).NewSelect().
		Model(&rows).
		Relation("Badge").
		Where("ub.user_id = ?", userID).
		Order("ub.earned_at ASC", "ub.badge_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select user badges: %w", err)
	}
	out := make([]domain.UserBadge, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}
