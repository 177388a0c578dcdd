package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"learnhub-service/internal/domain"
	"learnhub-service/internal/logging"
)

// Catalog is the course list split by tier, plus the caller's enrollments.
type Catalog struct {
	Premium     []domain.Course     `json:"premiumCourses"`
	Regular     []domain.Course     `json:"regularCourses"`
	Enrollments []domain.Enrollment `json:"enrollments"`
}

// CourseDetail bundles everything the course page shows.
type CourseDetail struct {
	Course   domain.Course       `json:"course"`
	Progress domain.Progress     `json:"progress"`
	Enrolled bool                `json:"isEnrolled"`
	Quizzes  []domain.Quiz       `json:"quizzes"`
	Results  []domain.QuizResult `json:"quizResults"`
	VideoID  string              `json:"firstVideoId,omitempty"`
}

// CourseService serves the catalogue and per-user course state.
type CourseService struct {
	catalog      CatalogStore
	enrollments  EnrollmentStore
	progress     ProgressStore
	quizzes      QuizStore
	access       *AccessService
	advancer     *ProgressService
	videos       VideoSearcher
	videoTimeout time.Duration
	log          *logging.Logger
}

type CourseDeps struct {
	Catalog      CatalogStore
	Enrollments  EnrollmentStore
	Progress     ProgressStore
	Quizzes      QuizStore
	Access       *AccessService
	Advancer     *ProgressService
	Videos       VideoSearcher
	VideoTimeout time.Duration
	Log          *logging.Logger
}

func NewCourseService(d CourseDeps) *CourseService {
	if d.VideoTimeout <= 0 {
		d.VideoTimeout = 3 * time.Second
	}
	return &CourseService{
		catalog:      d.Catalog,
		enrollments:  d.Enrollments,
		progress:     d.Progress,
		quizzes:      d.Quizzes,
		access:       d.Access,
		advancer:     d.Advancer,
		videos:       d.Videos,
		videoTimeout: d.VideoTimeout,
		log:          d.Log,
	}
}

// Create stores a course, deriving its slug from the title once.
func (s *CourseService) Create(ctx context.Context, c domain.Course) (domain.Course, error) {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(c.Title) == "" {
		verr.Add("title", "title is required")
	}
	if c.Difficulty == "" {
		c.Difficulty = domain.Beginner
	}
	if !c.Difficulty.Valid() {
		verr.Add("difficulty", "difficulty must be beginner, intermediate or advanced")
	}
	c.Slug = domain.Slugify(c.Title)
	if c.Slug == "" && c.Title != "" {
		verr.Add("title", "title must contain letters or digits")
	}
	if err := verr.OrNil(); err != nil {
		return domain.Course{}, err
	}
	if err := s.catalog.CreateCourse(ctx, &c); err != nil {
		return domain.Course{}, err
	}
	return c, nil
}

func (s *CourseService) List(ctx context.Context, userID int64) (Catalog, error) {
	courses, err := s.catalog.ListCourses(ctx)
	if err != nil {
		return Catalog{}, err
	}
	out := Catalog{Premium: []domain.Course{}, Regular: []domain.Course{}}
	for _, c := range courses {
		if c.IsPremium {
			out.Premium = append(out.Premium, c)
		} else {
			out.Regular = append(out.Regular, c)
		}
	}
	out.Enrollments, err = s.enrollments.EnrollmentsByUser(ctx, userID)
	if err != nil {
		return Catalog{}, err
	}
	return out, nil
}

// Search returns nothing for a blank query.
func (s *CourseService) Search(ctx context.Context, query string) ([]domain.Course, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Course{}, nil
	}
	return s.catalog.SearchCourses(ctx, query)
}

// Detail gates the course, then assembles its page for the caller.
func (s *CourseService) Detail(ctx context.Context, p Principal, slug string) (CourseDetail, Decision, error) {
	course, err := s.catalog.CourseBySlug(ctx, slug)
	if err != nil {
		return CourseDetail{}, Decision{}, err
	}
	_, decision, err := s.access.Check(ctx, p, course)
	if err != nil || !decision.Allowed {
		return CourseDetail{}, decision, err
	}

	progress, err := s.progress.GetOrCreateProgress(ctx, p.UserID, course.ID)
	if err != nil {
		return CourseDetail{}, decision, err
	}
	enrolled, err := s.enrollments.IsEnrolled(ctx, p.UserID, course.ID)
	if err != nil {
		return CourseDetail{}, decision, err
	}
	quizzes, err := s.quizzes.QuizzesByCourse(ctx, course.ID)
	if err != nil {
		return CourseDetail{}, decision, err
	}
	ids := make([]int64, 0, len(quizzes))
	for _, q := range quizzes {
		ids = append(ids, q.ID)
	}
	results, err := s.quizzes.ResultsByUser(ctx, p.UserID, ids)
	if err != nil {
		return CourseDetail{}, decision, err
	}

	return CourseDetail{
		Course:   course,
		Progress: progress,
		Enrolled: enrolled,
		Quizzes:  quizzes,
		Results:  results,
		VideoID:  s.firstVideo(ctx, course.Title),
	}, decision, nil
}

// firstVideo is best-effort: lookup failures are logged and yield "".
func (s *CourseService) firstVideo(ctx context.Context, title string) string {
	if s.videos == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, s.videoTimeout)
	defer cancel()

	ids, err := s.videos.Search(ctx, title)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return ""
		}
		s.log.Warn("video lookup failed", "query", title, "err", err)
		return ""
	}
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// Enroll joins the caller to a course. Existing progress is kept as is.
func (s *CourseService) Enroll(ctx context.Context, p Principal, slug string) (domain.Enrollment, Decision, error) {
	course, err := s.catalog.CourseBySlug(ctx, slug)
	if err != nil {
		return domain.Enrollment{}, Decision{}, err
	}
	_, decision, err := s.access.Check(ctx, p, course)
	if err != nil || !decision.Allowed {
		return domain.Enrollment{}, decision, err
	}
	enrollment, err := s.enrollments.Enroll(ctx, p.UserID, course.ID)
	if err != nil {
		return domain.Enrollment{}, decision, err
	}
	enrollment.CourseSlug = course.Slug
	return enrollment, decision, nil
}

// Advance resolves the course by slug, gates it, and moves progress one step.
func (s *CourseService) Advance(ctx context.Context, p Principal, slug string) (domain.Progress, Decision, error) {
	course, err := s.catalog.CourseBySlug(ctx, slug)
	if err != nil {
		return domain.Progress{}, Decision{}, err
	}
	_, decision, err := s.access.Check(ctx, p, course)
	if err != nil || !decision.Allowed {
		return domain.Progress{}, decision, err
	}
	progress, err := s.advancer.Advance(ctx, p.UserID, course.ID)
	return progress, decision, err
}

// CreateCategory stores a category, deriving its slug from the name.
func (s *CourseService) CreateCategory(ctx context.Context, name string) (domain.Category, error) {
	c := domain.Category{Name: strings.TrimSpace(name), Slug: domain.Slugify(name)}
	if c.Name == "" {
		verr := &domain.ValidationError{}
		verr.Add("name", "name is required")
		return domain.Category{}, verr
	}
	if err := s.catalog.CreateCategory(ctx, &c); err != nil {
		return domain.Category{}, err
	}
	return c, nil
}
