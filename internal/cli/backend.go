package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"learnhub-service/internal/app"
	"learnhub-service/internal/config"
	"learnhub-service/internal/infra/memory"
	"learnhub-service/internal/infra/objectstore"
	"learnhub-service/internal/infra/payment"
	"learnhub-service/internal/infra/postgres"
	infraredis "learnhub-service/internal/infra/redis"
	"learnhub-service/internal/infra/youtube"
	"learnhub-service/internal/logging"
	transport "learnhub-service/internal/transport/http"
)

// storage is everything the use cases persist through. Both the Postgres and
// the in-memory store satisfy it.
type storage interface {
	app.TxRunner
	app.UserStore
	app.ProfileStore
	app.CatalogStore
	app.EnrollmentStore
	app.ProgressStore
	app.QuizStore
	app.ForumStore
	app.ArticleStore
	app.BlogStore
	app.BadgeStore
}

// backend is the wired application plus the resources it holds open.
type backend struct {
	services transport.Services
	store    storage
	feed     *infraredis.ChangeFeed
	closers  []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// buildBackend picks Postgres and Redis when configured and falls back to the
// in-memory adapters otherwise.
func buildBackend(ctx context.Context, cfg config.Config, log *logging.Logger) (*backend, error) {
	b := &backend{}
	ok := false
	defer func() {
		if !ok {
			b.Close()
		}
	}()

	var (
		store     storage
		quizzes   app.QuizReader
		standings app.StandingsReader
	)
	if cfg.Postgres.URL != "" {
		db := postgres.Open(cfg.Postgres.URL)
		b.closers = append(b.closers, func() { _ = db.Close() })
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		store = postgres.NewStore(db)
		quizzes = postgres.NewQuizLoader(pool)
		standings = postgres.NewStandingsReader(pool)
	} else {
		log.Warn("postgres not configured, using in-memory storage")
		mem := memory.NewStore()
		store, quizzes, standings = mem, mem, mem
	}
	b.store = store

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = redisClient.Close() })
	}

	sessionTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)
	var resume app.ResumeStore
	if redisClient != nil {
		resume = infraredis.NewSessionStore(redisClient, sessionTTL)
	} else {
		resume = memory.NewSessionStore(sessionTTL)
	}

	videos, err := buildVideoSearcher(ctx, cfg, redisClient, log)
	if err != nil {
		return nil, err
	}

	var gateway app.PaymentGateway
	if cfg.Payment.GatewayURL != "" {
		gateway = payment.NewHTTPGateway(cfg.Payment.GatewayURL, cfg.Payment.APIKey, config.TTLDuration(cfg.Payment.Timeout, 10*time.Second))
	} else {
		log.Warn("payment gateway not configured, using sandbox", "result", cfg.Payment.SandboxResult)
		gateway = payment.NewSandboxGateway(cfg.Payment.SandboxResult)
	}

	var objects app.ObjectStore
	if cfg.Storage.Bucket != "" {
		s3, err := objectstore.NewS3Store(ctx, objectstore.Options{
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		objects = s3
	}

	board := app.NewLeaderboardService(standings, cfg.Leaderboard.Limit)
	hub := app.NewHub(board, log)
	var notifier app.Notifier = hub
	if redisClient != nil {
		b.feed = infraredis.NewChangeFeed(redisClient, cfg.Redis.Channel, log)
		notifier = b.feed
	}

	access := app.NewAccessService(store, resume, log)
	progress := app.NewProgressService(store, store, store, notifier, log)
	badges := app.NewBadgeService(store, objects, config.TTLDuration(cfg.Storage.URLTTL, 15*time.Minute), log)
	b.services = transport.Services{
		Accounts: app.NewAccountService(store, store, store, store, badges, log),
		Courses: app.NewCourseService(app.CourseDeps{
			Catalog:      store,
			Enrollments:  store,
			Progress:     store,
			Quizzes:      store,
			Access:       access,
			Advancer:     progress,
			Videos:       videos,
			VideoTimeout: config.TTLDuration(cfg.YouTube.Timeout, 3*time.Second),
			Log:          log,
		}),
		Quizzes:     app.NewQuizService(quizzes, store, access, notifier, log),
		Leaderboard: board,
		Hub:         hub,
		Articles:    app.NewArticleService(store, access),
		Blog:        app.NewBlogService(store),
		Forum:       app.NewForumService(store),
		Subscriptions: app.NewSubscriptionService(store, resume, gateway, app.Plan{
			PriceCents: cfg.Payment.PriceCents,
			Currency:   cfg.Payment.Currency,
		}, log),
		Badges: badges,
	}
	ok = true
	return b, nil
}

// buildVideoSearcher returns nil when no API key is set; course pages then
// carry no video.
func buildVideoSearcher(ctx context.Context, cfg config.Config, client *redis.Client, log *logging.Logger) (app.VideoSearcher, error) {
	if cfg.YouTube.APIKey == "" {
		return nil, nil
	}
	searcher, err := youtube.NewSearcher(ctx, option.WithAPIKey(cfg.YouTube.APIKey))
	if err != nil {
		return nil, err
	}
	ttl := config.TTLDuration(cfg.YouTube.CacheTTL, 6*time.Hour)
	if client != nil {
		return infraredis.NewVideoCache(client, searcher, ttl, log), nil
	}
	return memory.NewVideoCache(searcher, ttl), nil
}
