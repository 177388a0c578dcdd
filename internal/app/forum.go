package app

import (
	"context"
	"strings"
	"time"

	"learnhub-service/internal/domain"
)

// ThreadPage is a thread with its comments in posting order.
type ThreadPage struct {
	Thread   domain.ForumThread    `json:"thread"`
	Comments []domain.ForumComment `json:"comments"`
}

type ForumService struct {
	store ForumStore
	clock func() time.Time
}

func NewForumService(store ForumStore) *ForumService {
	return &ForumService{store: store, clock: time.Now}
}

func (s *ForumService) Threads(ctx context.Context) ([]domain.ForumThread, error) {
	return s.store.ListThreads(ctx)
}

func (s *ForumService) CreateThread(ctx context.Context, authorID int64, title, content string) (domain.ForumThread, error) {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(title) == "" {
		verr.Add("title", "title is required")
	}
	if strings.TrimSpace(content) == "" {
		verr.Add("content", "content is required")
	}
	if err := verr.OrNil(); err != nil {
		return domain.ForumThread{}, err
	}
	now := s.clock().UTC()
	t := domain.ForumThread{
		Title:     strings.TrimSpace(title),
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateThread(ctx, &t); err != nil {
		return domain.ForumThread{}, err
	}
	return t, nil
}

func (s *ForumService) Thread(ctx context.Context, id int64) (ThreadPage, error) {
	t, err := s.store.Thread(ctx, id)
	if err != nil {
		return ThreadPage{}, err
	}
	comments, err := s.store.Comments(ctx, id)
	if err != nil {
		return ThreadPage{}, err
	}
	return ThreadPage{Thread: t, Comments: comments}, nil
}

// Comment appends a reply to an existing thread.
func (s *ForumService) Comment(ctx context.Context, threadID, authorID int64, content string) (domain.ForumComment, error) {
	if strings.TrimSpace(content) == "" {
		verr := &domain.ValidationError{}
		verr.Add("content", "content is required")
		return domain.ForumComment{}, verr
	}
	if _, err := s.store.Thread(ctx, threadID); err != nil {
		return domain.ForumComment{}, err
	}
	c := domain.ForumComment{
		ThreadID:  threadID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.store.AddComment(ctx, &c); err != nil {
		return domain.ForumComment{}, err
	}
	return c, nil
}
