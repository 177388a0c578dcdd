package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"learnhub-service/internal/domain"
	"learnhub-service/internal/logging"
	transport "learnhub-service/internal/transport/http"
)

// withBackend loads config, wires the backend and runs fn against it.
func withBackend(ctx context.Context, configPath string, fn func(ctx context.Context, b *backend, log *logging.Logger) error) error {
	cfg, log, err := loadRuntime(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}
	b, err := buildBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(ctx, b, log)
}

// NewCreateAdminCmd creates or updates the staff account named by ADMIN_USERNAME.
func NewCreateAdminCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "create-admin",
		Short: "Create or update a staff user from ADMIN_USERNAME, ADMIN_EMAIL and ADMIN_PASSWORD",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), *configPath, func(ctx context.Context, b *backend, log *logging.Logger) error {
				user, created, err := b.services.Accounts.EnsureAdmin(ctx,
					os.Getenv("ADMIN_USERNAME"), os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD"))
				if err != nil {
					return err
				}
				log.Info("admin ready", "user", user.ID, "username", user.Username, "created", created)
				return nil
			})
		},
	}
}

// NewSeedCmd loads a small sample catalogue.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load a sample catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), *configPath, func(ctx context.Context, b *backend, log *logging.Logger) error {
				var authorID int64
				if name := os.Getenv("ADMIN_USERNAME"); name != "" {
					user, err := b.store.UserByUsername(ctx, name)
					if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
						return err
					}
					authorID = user.ID
				}
				return seedCatalog(ctx, b.services, authorID, log)
			})
		},
	}
}

// NewExpireCmd runs one subscription expiry sweep.
func NewExpireCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "expire-subscriptions",
		Short: "Clear subscriptions past their end date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), *configPath, func(ctx context.Context, b *backend, log *logging.Logger) error {
				n, err := b.services.Subscriptions.ExpireSubscriptions(ctx)
				if err != nil {
					return err
				}
				log.Info("expiry sweep done", "expired", n)
				return nil
			})
		},
	}
}

type seedCourse struct {
	course domain.Course
	quiz   *domain.Quiz
}

func sampleCatalog() []seedCourse {
	return []seedCourse{
		{
			course: domain.Course{
				Title:       "Go Basics",
				Description: "Types, functions and packages.",
				Difficulty:  domain.Beginner,
			},
			quiz: &domain.Quiz{
				Title: "Go Basics Check",
				Questions: []domain.Question{
					{Text: "Which keyword declares a function?", Answers: []domain.Answer{
						{Text: "func", IsCorrect: true}, {Text: "def"}, {Text: "fn"},
					}},
					{Text: "What is the zero value of an int?", Answers: []domain.Answer{
						{Text: "nil"}, {Text: "0", IsCorrect: true}, {Text: "undefined"},
					}},
				},
			},
		},
		{
			course: domain.Course{
				Title:       "Concurrency in Go",
				Description: "Goroutines, channels and the sync package.",
				Difficulty:  domain.Intermediate,
			},
		},
		{
			course: domain.Course{
				Title:       "Production Go Services",
				Description: "Observability, graceful shutdown and deployment.",
				Difficulty:  domain.Advanced,
				IsPremium:   true,
			},
			quiz: &domain.Quiz{
				Title:     "Production Readiness",
				IsPremium: true,
				Questions: []domain.Question{
					{Text: "Which signal asks a process to shut down gracefully?", Answers: []domain.Answer{
						{Text: "SIGTERM", IsCorrect: true}, {Text: "SIGKILL"},
					}},
				},
			},
		},
	}
}

// seedCatalog is idempotent: courses whose slug already exists are skipped along
// with their quizzes. The welcome article needs an author and is skipped when
// authorID is zero.
func seedCatalog(ctx context.Context, svc transport.Services, authorID int64, log *logging.Logger) error {
	category, err := svc.Courses.CreateCategory(ctx, "Programming")
	switch {
	case errors.Is(err, domain.ErrSlugTaken):
		log.Info("category exists, skipping", "name", "Programming")
	case err != nil:
		return fmt.Errorf("seed category: %w", err)
	}

	created := 0
	for _, item := range sampleCatalog() {
		c := item.course
		c.CategoryID = category.ID
		course, err := svc.Courses.Create(ctx, c)
		if errors.Is(err, domain.ErrSlugTaken) {
			log.Info("course exists, skipping", "title", c.Title)
			continue
		}
		if err != nil {
			return fmt.Errorf("seed course %q: %w", c.Title, err)
		}
		created++
		if item.quiz == nil {
			continue
		}
		q := *item.quiz
		q.CourseID = &course.ID
		if _, err := svc.Quizzes.Create(ctx, q); err != nil {
			return fmt.Errorf("seed quiz %q: %w", q.Title, err)
		}
	}

	switch {
	case created == 0:
	case authorID == 0:
		log.Info("no admin user, skipping welcome article")
	default:
		if _, err := svc.Articles.Create(ctx, domain.Article{
			AuthorID:   authorID,
			Title:      "Welcome to LearnHub",
			Content:    "Start with Go Basics, then work through the concurrency course.",
			CategoryID: category.ID,
		}); err != nil {
			return fmt.Errorf("seed article: %w", err)
		}
	}
	log.Info("seed complete", "courses", created)
	return nil
}
