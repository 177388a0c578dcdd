package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"learnhub-service/internal/app"
	"learnhub-service/internal/auth"
	"learnhub-service/internal/domain"
	"learnhub-service/internal/infra/memory"
	"learnhub-service/internal/infra/payment"
	"learnhub-service/internal/logging"
)

type testAPI struct {
	t       *testing.T
	router  *gin.Engine
	store   *memory.Store
	courses *app.CourseService
	quizzes *app.QuizService
	access  *app.AccessService
}

func newTestAPI(t *testing.T, sandbox string) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logging.NewNop()
	store := memory.NewStore()
	resume := memory.NewSessionStore(time.Hour)

	access := app.NewAccessService(store, resume, log)
	board := app.NewLeaderboardService(store, 10)
	hub := app.NewHub(board, log)
	progress := app.NewProgressService(store, store, store, hub, log)
	badges := app.NewBadgeService(store, nil, time.Minute, log)
	svc := Services{
		Accounts: app.NewAccountService(store, store, store, store, badges, log).WithHashCost(bcrypt.MinCost),
		Courses: app.NewCourseService(app.CourseDeps{
			Catalog: store, Enrollments: store, Progress: store, Quizzes: store,
			Access: access, Advancer: progress,
			Videos: memory.NewStaticVideoSearcher(map[string][]string{"Go Basics": {"yt-1"}}),
			Log:    log,
		}),
		Quizzes:       app.NewQuizService(store, store, access, hub, log),
		Leaderboard:   board,
		Hub:           hub,
		Articles:      app.NewArticleService(store, access),
		Blog:          app.NewBlogService(store),
		Forum:         app.NewForumService(store),
		Subscriptions: app.NewSubscriptionService(store, resume, payment.NewSandboxGateway(sandbox), app.Plan{PriceCents: 4999, Currency: "usd"}, log),
		Badges:        badges,
	}
	router := NewRouter(RouterConfig{
		Services:    svc,
		Tokens:      auth.NewIssuer("test-secret", time.Hour),
		Log:         log,
		ServiceName: "learnhub-test",
	})
	return &testAPI{t: t, router: router, store: store, courses: svc.Courses, quizzes: svc.Quizzes, access: access}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) register(name string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/register", "", app.RegisterInput{
		Username: name, Email: name + "@example.com", Password: "s3cret!pass", ConfirmPassword: "s3cret!pass",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var out tokenResponse
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t, "approve")
	rec := api.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRegisterLoginProfile(t *testing.T) {
	api := newTestAPI(t, "approve")
	api.register("alice")

	rec := api.do(http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "wrong-pass!"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "s3cret!pass"})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[tokenResponse](t, rec).Token

	rec = api.do(http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[app.ProfilePage](t, rec)
	require.Equal(t, "alice", page.User.Username)
	require.Equal(t, domain.RoleFree, page.Profile.Role)
	require.False(t, page.Premium)
}

func TestRegisterValidationAndConflict(t *testing.T) {
	api := newTestAPI(t, "approve")
	rec := api.do(http.MethodPost, "/api/register", "", app.RegisterInput{Username: "1bob", Email: "x", Password: "short", ConfirmPassword: "other"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode[errorEnvelope](t, rec)
	require.Equal(t, "validation_failed", env.Error.Code)
	require.Contains(t, env.Error.Fields, "username")
	require.Contains(t, env.Error.Fields, "password")

	api.register("bob")
	rec = api.do(http.MethodPost, "/api/register", "", app.RegisterInput{
		Username: "bob", Email: "b@example.com", Password: "s3cret!pass", ConfirmPassword: "s3cret!pass",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	api := newTestAPI(t, "approve")
	require.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/courses", "", nil).Code)
	require.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/courses", "garbage", nil).Code)
}

func TestPremiumGateResumesAfterUpgrade(t *testing.T) {
	api := newTestAPI(t, "approve")
	ctx := context.Background()
	course, err := api.courses.Create(ctx, domain.Course{Title: "Go Basics", IsPremium: true})
	require.NoError(t, err)
	token := api.register("carol")

	rec := api.do(http.MethodGet, "/api/courses/"+course.Slug, token, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	denied := decode[deniedEnvelope](t, rec)
	require.Equal(t, "subscription_required", denied.Error.Code)
	require.Equal(t, subscriptionRequiredPath, denied.Redirect)
	require.Equal(t, domain.PendingResource{Kind: domain.KindCourse, ID: "go-basics"}, denied.Pending)

	rec = api.do(http.MethodGet, "/api/subscription/required", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[app.RequiredPage](t, rec)
	require.NotNil(t, page.Pending)
	require.Equal(t, int64(4999), page.Plan.PriceCents)

	rec = api.do(http.MethodPost, "/api/subscription/upgrade", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	up := decode[app.UpgradeResult](t, rec)
	require.True(t, up.Profile.SubscriptionStatus)
	require.NotNil(t, up.Resume)
	require.Equal(t, "go-basics", up.Resume.ID)

	rec = api.do(http.MethodGet, "/api/courses/"+course.Slug, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[app.CourseDetail](t, rec)
	require.Equal(t, "yt-1", detail.VideoID)
	require.Equal(t, 0, detail.Progress.Percent)
}

func TestUpgradeDeclined(t *testing.T) {
	api := newTestAPI(t, "decline")
	token := api.register("dave")
	rec := api.do(http.MethodPost, "/api/subscription/upgrade", token, nil)
	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	rec = api.do(http.MethodGet, "/api/profile", token, nil)
	require.False(t, decode[app.ProfilePage](t, rec).Profile.SubscriptionStatus)
}

func TestEnrollAdvanceAndLeaderboard(t *testing.T) {
	api := newTestAPI(t, "approve")
	course, err := api.courses.Create(context.Background(), domain.Course{Title: "Free Course"})
	require.NoError(t, err)
	token := api.register("erin")

	rec := api.do(http.MethodPost, "/api/courses/"+course.Slug+"/enroll", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, course.Slug, decode[domain.Enrollment](t, rec).CourseSlug)

	var last domain.Progress
	for i := 0; i < 5; i++ {
		rec = api.do(http.MethodPost, "/api/courses/"+course.Slug+"/progress", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		last = decode[domain.Progress](t, rec)
	}
	require.Equal(t, 100, last.Percent)
	require.True(t, last.Completed)

	rec = api.do(http.MethodGet, "/api/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	lb := decode[domain.Leaderboard](t, rec)
	require.Len(t, lb.Entries, 1)
	require.Equal(t, 10, lb.Entries[0].Profile.Points)
	require.Equal(t, 1, lb.Entries[0].CompletedCount)

	require.Equal(t, http.StatusNotFound, api.do(http.MethodPost, "/api/courses/missing/enroll", token, nil).Code)
}

func TestSubmitQuizToleratesMalformedAnswers(t *testing.T) {
	api := newTestAPI(t, "approve")
	quiz, err := api.quizzes.Create(context.Background(), domain.Quiz{Title: "Math", Questions: []domain.Question{
		{Text: "2+2", Answers: []domain.Answer{{Text: "3"}, {Text: "4", IsCorrect: true}}},
		{Text: "3+3", Answers: []domain.Answer{{Text: "6", IsCorrect: true}}},
	}})
	require.NoError(t, err)
	token := api.register("frank")

	rec := api.do(http.MethodGet, fmt.Sprintf("/api/quizzes/%d", quiz.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "isCorrect")

	q1, q2 := quiz.Questions[0], quiz.Questions[1]
	body := map[string]any{"answers": map[string]any{
		fmt.Sprint(q1.ID): q1.Answers[1].ID,
		fmt.Sprint(q2.ID): "not-an-id",
		"junk":            7,
	}}
	rec = api.do(http.MethodPost, fmt.Sprintf("/api/quizzes/%d/submit", quiz.ID), token, body)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[app.GradeResult](t, rec)
	require.Equal(t, 1, res.Score)
	require.Equal(t, 2, res.Total)
	require.Len(t, res.Failed, 1)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/quizzes/%d/submit", quiz.ID), strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+token)
	raw := httptest.NewRecorder()
	api.router.ServeHTTP(raw, req)
	require.Equal(t, http.StatusOK, raw.Code)
	require.Equal(t, 0, decode[app.GradeResult](t, raw).Score)

	require.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/quizzes/abc", token, nil).Code)
}

func TestBlogAuthorOnlyEdit(t *testing.T) {
	api := newTestAPI(t, "approve")
	alice := api.register("alice")
	bob := api.register("bob")

	rec := api.do(http.MethodPost, "/api/blog", alice, app.PostInput{Title: "Hello", Content: "First post"})
	require.Equal(t, http.StatusCreated, rec.Code)
	post := decode[domain.BlogPost](t, rec)

	path := fmt.Sprintf("/api/blog/%d", post.ID)
	require.Equal(t, http.StatusForbidden, api.do(http.MethodPut, path, bob, app.PostInput{Title: "Hijack", Content: "x"}).Code)
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, path, alice, app.PostInput{Title: "Hello again", Content: "Edited"}).Code)

	rec = api.do(http.MethodGet, "/api/blog?q=again", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]domain.BlogPost](t, rec), 1)
}

func TestForumThreadWithComments(t *testing.T) {
	api := newTestAPI(t, "approve")
	token := api.register("gina")

	rec := api.do(http.MethodPost, "/api/forum/threads", token, map[string]string{"title": "Help", "content": "Stuck on lesson 2"})
	require.Equal(t, http.StatusCreated, rec.Code)
	thread := decode[domain.ForumThread](t, rec)

	path := fmt.Sprintf("/api/forum/threads/%d", thread.ID)
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, path+"/comments", token, map[string]string{"content": "Me too"}).Code)
	require.Equal(t, http.StatusNotFound, api.do(http.MethodPost, "/api/forum/threads/999/comments", token, map[string]string{"content": "x"}).Code)

	rec = api.do(http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[app.ThreadPage](t, rec)
	require.Len(t, page.Comments, 1)

	rec = api.do(http.MethodGet, "/api/forum/threads", token, nil)
	require.Equal(t, 1, decode[[]domain.ForumThread](t, rec)[0].CommentCount)
}

func TestAdminRoutesRequireStaff(t *testing.T) {
	api := newTestAPI(t, "approve")
	token := api.register("henry")
	require.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/api/admin/categories", token, map[string]string{"name": "Go"}).Code)

	u, err := api.store.UserByUsername(context.Background(), "henry")
	require.NoError(t, err)
	u.IsStaff = true
	require.NoError(t, api.store.UpdateUser(context.Background(), u))

	rec := api.do(http.MethodPost, "/api/admin/categories", token, map[string]string{"name": "Go Lang"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "go-lang", decode[domain.Category](t, rec).Slug)

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	require.NoError(t, mw.WriteField("name", "Finisher"))
	require.NoError(t, mw.WriteField("description", "Completed a course"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/admin/badges", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	badge := decode[domain.Badge](t, rec)

	awardPath := fmt.Sprintf("/api/admin/badges/%d/award", badge.ID)
	rec = api.do(http.MethodPost, awardPath, token, map[string]int64{"userId": u.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/api/badges", token, nil)
	require.Len(t, decode[[]domain.UserBadge](t, rec), 1)
}

func TestRespondErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrCourseNotFound, http.StatusNotFound},
		{domain.ErrProfileMissing, http.StatusConflict},
		{domain.ErrSlugTaken, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", domain.ErrPaymentDeclined), http.StatusPaymentRequired},
		{fmt.Errorf("wrapped: %w", domain.ErrPaymentUnavailable), http.StatusBadGateway},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		respondError(c, tc.err)
		require.Equal(t, tc.want, rec.Code, tc.err.Error())
	}
}
