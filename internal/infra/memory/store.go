package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"learnhub-service/internal/domain"
)

// Store is an in-process implementation of every app store. It is meant for
// development and tests: transactions and standalone writes serialize on txMu,
// and a failed transaction rolls back by restoring its starting snapshot.
// Reads do not wait for open transactions.
type Store struct {
	txMu sync.Mutex

	mu sync.RWMutex
	s  state
}

type pair struct{ a, b int64 }

type state struct {
	seq         int64
	users       map[int64]domain.User
	profiles    map[int64]domain.Profile // keyed by user id
	categories  map[int64]domain.Category
	courses     map[int64]domain.Course
	enrollments map[pair]domain.Enrollment
	progress    map[pair]domain.Progress
	quizzes     map[int64]domain.Quiz
	results     map[pair]domain.QuizResult
	threads     map[int64]domain.ForumThread
	comments    []domain.ForumComment
	articles    map[int64]domain.Article
	posts       map[int64]domain.BlogPost
	badges      map[int64]domain.Badge
	userBadges  map[pair]domain.UserBadge
}

func NewStore() *Store {
	return &Store{s: state{
		users:       map[int64]domain.User{},
		profiles:    map[int64]domain.Profile{},
		categories:  map[int64]domain.Category{},
		courses:     map[int64]domain.Course{},
		enrollments: map[pair]domain.Enrollment{},
		progress:    map[pair]domain.Progress{},
		quizzes:     map[int64]domain.Quiz{},
		results:     map[pair]domain.QuizResult{},
		threads:     map[int64]domain.ForumThread{},
		articles:    map[int64]domain.Article{},
		posts:       map[int64]domain.BlogPost{},
		badges:      map[int64]domain.Badge{},
		userBadges:  map[pair]domain.UserBadge{},
	}}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (st state) clone() state {
	return state{
		seq:         st.seq,
		users:       cloneMap(st.users),
		profiles:    cloneMap(st.profiles),
		categories:  cloneMap(st.categories),
		courses:     cloneMap(st.courses),
		enrollments: cloneMap(st.enrollments),
		progress:    cloneMap(st.progress),
		quizzes:     cloneMap(st.quizzes),
		results:     cloneMap(st.results),
		threads:     cloneMap(st.threads),
		comments:    append([]domain.ForumComment(nil), st.comments...),
		articles:    cloneMap(st.articles),
		posts:       cloneMap(st.posts),
		badges:      cloneMap(st.badges),
		userBadges:  cloneMap(st.userBadges),
	}
}

type txKey struct{}

// InTx runs fn serialized against other transactions and undoes its writes when
// fn fails. Nested calls join the outer transaction.
func (m *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	snapshot := m.s.clone()
	m.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.mu.Lock()
		m.s = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

// write holds txMu for a write made outside a transaction so a rollback cannot
// discard it. Inside a transaction the lock is already held.
func (m *Store) write(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	m.txMu.Lock()
	return m.txMu.Unlock
}

func (m *Store) nextID() int64 {
	m.s.seq++
	return m.s.seq
}

// Users

func (m *Store) CreateUser(ctx context.Context, u *domain.User) error {
	defer m.write(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.s.users {
		if existing.Username == u.Username {
			return domain.ErrUsernameTaken
		}
	}
	u.ID = m.nextID()
	m.s.users[u.ID] = *u
	return nil
}

func (m *Store) UpdateUser(ctx context.Context, u domain.User) error {
	defer m.write(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.s.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	m.s.users[u.ID] = u
	return nil
}

func (m *Store) UserByID(_ context.Context, id int64) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (m *Store) UserByUsername(_ context.Context, username string) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

// Profiles

func (m *Store) CreateProfile(ctx context.Context, p *domain.Profile) error {
	defer m.write(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.s.profiles[p.UserID]; ok {
		return fmt.Errorf("profile for user %d already exists", p.UserID)
	}
	if p.Role == "" {
		p.Role = domain.RoleFree
	}
	p.ID = m.nextID()
	m.s.profiles[p.UserID] = *p
	return nil
}

func (m *Store) ProfileByUserID(_ context.Context, userID int64) (domain.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.s.profiles[userID]
	if !ok {
		return domain.Profile{}, domain.ErrProfileMissing
	}
	return p, nil
}

func (m *Store) AddPoints(ctx context.Context, userID int64, n int) (int, error) {
	defer m.write(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.s.profiles[userID]
	if !ok {
		return 0, domain.ErrProfileMissing
	}
	p.Points += n
	m.s.profiles[userID] = p
	return p.Points, nil
}

func (m *Store) ActivateSubscription(ctx context.Context, userID int64, start, end time.Time) (domain.Profile, error) {
	defer m.write(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.s.profiles[userID]
	if !ok {
		return domain.Profile{}, domain.ErrProfileMissing
	}
	p.SubscriptionStatus = true
	p.SubscriptionStart = &start
	p.SubscriptionEnd = &end
	p.Role = domain.RolePremium
	m.s.profiles[userID] = p
	return p, nil
}

func (m *Store) ExpireSubscriptions(ctx context.Context, now time.Time) (int, error) {
	defer m.write(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, p := range m.s.profiles {
		if p.SubscriptionStatus && p.SubscriptionEnd != nil && !p.SubscriptionEnd.After(now) {
			p.SubscriptionStatus = false
			p.Role = domain.RoleFree
			m.s.profiles[id] = p
			n++
		}
	}
	return n, nil
}

// Catalogue

func (m *Store) CreateCategory(ctx context.Context, c *domain.Category) error {
	defer m.write(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.s.categories {
		if existing.Slug == c.Slug {
			return domain.ErrSlugTaken
		}
	}
	c.ID = m.nextID()
	m.s.categories[c.ID] = *c
	return nil
}

func (m *Store) CreateCourse(ctx context.Context, c *domain.Course) error {
	defer m.write(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.s.courses {
		if existing.Slug == c.Slug {
			return domain.ErrSlugTaken
		}
	}
	c.ID = m.nextID()
	m.s.courses[c.ID] = *c
	return nil
}

func (m *Store) ListCourses(_ context.Context) ([]domain.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.coursesWhere(func(domain.Course) bool { return true }), nil
}

func (m *Store) SearchCourses(_ context.Context, query string) ([]domain.Course, error) {
	q := strings.ToLower(query)
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.coursesWhere(func(c domain.Course) bool {
		return strings.Contains(strings.ToLower(c.Title), q)
	}), nil
}

func (m *Store) coursesWhere(keep func(domain.Course) bool) []domain.Course {
	out := []domain.Course{}
	for _, c := range m.s.courses {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Store) CourseBySlug(_ context.Context, slug string) (domain.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.s.courses {
		if c.Slug == slug {
			return c, nil
		}
	}
	return domain.Course{}, domain.ErrCourseNotFound
}

// Enrollments

func (m *Store) Enroll(ctx context.Context, userID, courseID int64) (domain.Enrollment, error) {
	defer m.write(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.s.courses[courseID]; !ok {
		return domain.Enrollment{}, domain.ErrCourseNotFound
	}
	key := pair{userID, courseID}
	if e, ok := m.s.enrollments[key]; ok {
		return e, nil
	}
	e := domain.Enrollment{ID: m.nextID(), UserID: userID, CourseID: courseID, EnrolledAt: time.Now().UTC()}
	m.s.enrollments[key] = e
	return e, nil
}

func (m *Store) IsEnrolled(_ context.Context, userID, courseID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.s.enrollments[pair{userID, courseID}]
	return ok, nil
}

func (m *Store) EnrollmentsByUser(_ context.Context, userID int64) ([]domain.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.Enrollment{}
	for k, e := range m.s.enrollments {
		if k.a == userID {
			e.CourseSlug = m.s.courses[e.CourseID].Slug
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Progress

func (m *Store) GetOrCreateProgress(ctx context.Context, userID, courseID int64) (domain.Progress, error) {
	defer m.write(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pair{userID, courseID}
	if p, ok := m.s.progress[key]; ok {
		return p, nil
	}
	p := domain.Progress{ID: m.nextID(), UserID: userID, CourseID: courseID}
	m.s.progress[key] = p
	return p, nil
}

// LockProgress relies on InTx for exclusion.
func (m *Store) LockProgress(ctx context.Context, userID, courseID int64) (domain.Progress, error) {
	return m.GetOrCreateProgress(ctx, userID, courseID)
}

func (m *Store) SaveProgress(ctx context.Context, p domain.Progress) error {
	defer m.write(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pair{p.UserID, p.CourseID}
	if _, ok := m.s.progress[key]; !ok {
		return fmt.Errorf("progress for user %d course %d does not exist", p.UserID, p.CourseID)
	}
	m.s.progress[key] = p
	return nil
}

// Quizzes

func (m *Store) CreateQuiz(ctx context.Context, q *domain.Quiz) error {
	defer m.write(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	q.ID = m.nextID()
	questions := make([]domain.Question, len(q.Questions))
	for i, question := range q.Questions {
		question.ID = m.nextID()
		answers := make([]domain.Answer, len(question.Answers))
		for j, a := range question.Answers {
			a.ID = m.nextID()
			answers[j] = a
		}
		question.Answers = answers
		questions[i] = question
	}
	q.Questions = questions
	m.s.quizzes[q.ID] = *q
	return nil
}

func (m *Store) Quiz(_ context.Context, id int64) (domain.Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.s.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	questions := append([]domain.Question(nil), q.Questions...)
	sort.SliceStable(questions, func(i, j int) bool {
		if questions[i].Position != questions[j].Position {
			return questions[i].Position < questions[j].Position
		}
		return questions[i].ID < questions[j].ID
	})
	q.Questions = questions
	return q, nil
}

func (m *Store) QuizzesByCourse(_ context.Context, courseID int64) ([]domain.Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.Quiz{}
	for _, q := range m.s.quizzes {
		if q.CourseID != nil && *q.CourseID == courseID {
			q.Questions = nil
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Store) UpsertResult(ctx context.Context, r domain.QuizResult) (domain.QuizResult, error) {
	defer m.write(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.s.quizzes[r.QuizID]; !ok {
		return domain.QuizResult{}, domain.ErrQuizNotFound
	}
	key := pair{r.UserID, r.QuizID}
	if existing, ok := m.s.results[key]; ok {
		r.ID = existing.ID
	} else {
		r.ID = m.nextID()
	}
	m.s.results[key] = r
	return r, nil
}

func (m *Store) ResultsByUser(_ context.Context, userID int64, quizIDs []int64) ([]domain.QuizResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.QuizResult{}
	for _, id := range quizIDs {
		if r, ok := m.s.results[pair{userID, id}]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// Standings aggregates every profile's quiz average and completed-course count.
func (m *Store) Standings(_ context.Context) ([]domain.Standing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type agg struct {
		sum, n int
	}
	scores := map[int64]agg{}
	for k, r := range m.s.results {
		a := scores[k.a]
		a.sum += r.Score
		a.n++
		scores[k.a] = a
	}
	completed := map[int64]int{}
	for k, p := range m.s.progress {
		if p.Percent == 100 {
			completed[k.a]++
		}
	}

	out := make([]domain.Standing, 0, len(m.s.profiles))
	for userID, p := range m.s.profiles {
		st := domain.Standing{Profile: p, CompletedCount: completed[userID]}
		if a := scores[userID]; a.n > 0 {
			avg := float64(a.sum) / float64(a.n)
			st.AvgScore = &avg
		}
		out = append(out, st)
	}
	return out, nil
}

// Forum

func (m *Store) CreateThread(ctx context.Context, t *domain.ForumThread) error {
	defer m.write(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.nextID()
	m.s.threads[t.ID] = *t
	return nil
}

func (m *Store) ListThreads(_ context.Context) ([]domain.ForumThread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := map[int64]int{}
	for _, c := range m.s.comments {
		counts[c.ThreadID]++
	}
	out := make([]domain.ForumThread, 0, len(m.s.threads))
	for _, t := range m.s.threads {
		t.CommentCount = counts[t.ID]
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Store) Thread(_ context.Context, id int64) (domain.ForumThread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.s.threads[id]
	if !ok {
		return domain.ForumThread{}, domain.ErrThreadNotFound
	}
	for _, c := range m.s.comments {
		if c.ThreadID == id {
			t.CommentCount++
		}
	}
	return t, nil
}

func (m *Store) AddComment(ctx context.Context, c *domain.ForumComment) error {
	defer m.write(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.s.threads[c.ThreadID]
	if !ok {
		return domain.ErrThreadNotFound
	}
	c.ID = m.nextID()
	m.s.comments = append(m.s.comments, *c)
	t.UpdatedAt = c.CreatedAt
	m.s.threads[t.ID] = t
	return nil
}

func (m *Store) Comments(_ context.Context, threadID int64) ([]domain.ForumComment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.ForumComment{}
	for _, c := range m.s.comments {
		if c.ThreadID == threadID {
			out = append(out, c)
		}
	}
	return out, nil
}

// Articles

func (m *Store) CreateArticle(ctx context.Context, a *domain.Article) error {
	defer m.write(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.nextID()
	m.s.articles[a.ID] = *a
	return nil
}

func (m *Store) ListArticles(_ context.Context, includePremium bool) ([]domain.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.Article{}
	for _, a := range m.s.articles {
		if a.IsPremium && !includePremium {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Store) Article(_ context.Context, id int64) (domain.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.s.articles[id]
	if !ok {
		return domain.Article{}, domain.ErrArticleNotFound
	}
	return a, nil
}

// Blog

func (m *Store) CreatePost(ctx context.Context, p *domain.BlogPost) error {
	defer m.write(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextID()
	m.s.posts[p.ID] = *p
	return nil
}

func (m *Store) UpdatePost(ctx context.Context, p domain.BlogPost) error {
	defer m.write(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.s.posts[p.ID]; !ok {
		return domain.ErrBlogPostNotFound
	}
	m.s.posts[p.ID] = p
	return nil
}

func (m *Store) Post(_ context.Context, id int64) (domain.BlogPost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.s.posts[id]
	if !ok {
		return domain.BlogPost{}, domain.ErrBlogPostNotFound
	}
	return p, nil
}

func (m *Store) ListPosts(_ context.Context, titleQuery string) ([]domain.BlogPost, error) {
	q := strings.ToLower(titleQuery)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.BlogPost{}
	for _, p := range m.s.posts {
		if q != "" && !strings.Contains(strings.ToLower(p.Title), q) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PubDate.Equal(out[j].PubDate) {
			return out[i].PubDate.After(out[j].PubDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Badges

func (m *Store) CreateBadge(ctx context.Context, b *domain.Badge) error {
	defer m.write(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.nextID()
	m.s.badges[b.ID] = *b
	return nil
}

func (m *Store) Badge(_ context.Context, id int64) (domain.Badge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.s.badges[id]
	if !ok {
		return domain.Badge{}, domain.ErrBadgeNotFound
	}
	return b, nil
}

func (m *Store) AwardBadge(ctx context.Context, userID, badgeID int64, at time.Time) (domain.UserBadge, error) {
	defer m.write(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.s.badges[badgeID]
	if !ok {
		return domain.UserBadge{}, domain.ErrBadgeNotFound
	}
	if _, ok := m.s.users[userID]; !ok {
		return domain.UserBadge{}, domain.ErrUserNotFound
	}
	key := pair{userID, badgeID}
	if ub, ok := m.s.userBadges[key]; ok {
		return ub, nil
	}
	ub := domain.UserBadge{UserID: userID, Badge: b, EarnedAt: at}
	m.s.userBadges[key] = ub
	return ub, nil
}

func (m *Store) BadgesByUser(_ context.Context, userID int64) ([]domain.UserBadge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.UserBadge{}
	for k, ub := range m.s.userBadges {
		if k.a == userID {
			out = append(out, ub)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EarnedAt.Equal(out[j].EarnedAt) {
			return out[i].EarnedAt.Before(out[j].EarnedAt)
		}
		return out[i].Badge.ID < out[j].Badge.ID
	})
	return out, nil
}
