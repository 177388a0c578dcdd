package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"learnhub-service/internal/app"
	"learnhub-service/internal/auth"
	"learnhub-service/internal/logging"
)

// Services are the use cases the API exposes.
type Services struct {
	Accounts      *app.AccountService
	Courses       *app.CourseService
	Quizzes       *app.QuizService
	Leaderboard   *app.LeaderboardService
	Hub           *app.Hub
	Articles      *app.ArticleService
	Blog          *app.BlogService
	Forum         *app.ForumService
	Subscriptions *app.SubscriptionService
	Badges        *app.BadgeService
}

type RouterConfig struct {
	Services
	Tokens      *auth.Issuer
	Log         *logging.Logger
	ServiceName string
	CORSOrigins []string
}

// API holds the handlers; each handler binds input, calls one use case, and
// writes JSON.
type API struct {
	Services
	tokens *auth.Issuer
	log    *logging.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	a := &API{Services: cfg.Services, tokens: cfg.Tokens, log: cfg.Log}
	ws := NewWSHandler(cfg.Hub, cfg.Log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(RequestLogger(cfg.Log))
	r.Use(corsMiddleware(cfg.CORSOrigins))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/ws/leaderboard", gin.WrapF(ws.ServeWS))

	api := r.Group("/api")
	api.POST("/register", a.register)
	api.POST("/login", a.login)
	api.GET("/leaderboard", a.leaderboard)
	api.GET("/blog", a.listPosts)
	api.GET("/blog/:id", a.getPost)

	authed := api.Group("", Authenticate(cfg.Tokens))
	authed.GET("/profile", a.profile)

	authed.GET("/courses", a.listCourses)
	authed.GET("/courses/search", a.searchCourses)
	authed.GET("/courses/:slug", a.courseDetail)
	authed.POST("/courses/:slug/enroll", a.enroll)
	authed.POST("/courses/:slug/progress", a.advance)

	authed.GET("/quizzes/:id", a.viewQuiz)
	authed.POST("/quizzes/:id/submit", a.submitQuiz)

	authed.GET("/articles", a.listArticles)
	authed.GET("/articles/:id", a.articleDetail)

	authed.POST("/blog", a.createPost)
	authed.PUT("/blog/:id", a.updatePost)

	authed.GET("/forum/threads", a.listThreads)
	authed.POST("/forum/threads", a.createThread)
	authed.GET("/forum/threads/:id", a.threadDetail)
	authed.POST("/forum/threads/:id/comments", a.addComment)

	authed.GET("/subscription/required", a.subscriptionRequired)
	authed.POST("/subscription/upgrade", a.upgrade)

	authed.GET("/badges", a.myBadges)

	admin := authed.Group("/admin", RequireStaff(cfg.Accounts))
	admin.POST("/categories", a.createCategory)
	admin.POST("/courses", a.createCourse)
	admin.POST("/quizzes", a.createQuiz)
	admin.POST("/articles", a.createArticle)
	admin.POST("/badges", a.createBadge)
	admin.POST("/badges/:id/award", a.awardBadge)

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		abortWith(c, http.StatusBadRequest, "bad_request", "invalid "+name)
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortWith(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return false
	}
	return true
}
