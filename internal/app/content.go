package app

import (
	"context"
	"strings"
	"time"

	"learnhub-service/internal/domain"
)

// ArticleService serves editorial articles behind the premium gate.
type ArticleService struct {
	store  ArticleStore
	access *AccessService
	clock  func() time.Time
}

func NewArticleService(store ArticleStore, access *AccessService) *ArticleService {
	return &ArticleService{store: store, access: access, clock: time.Now}
}

// List hides premium articles from callers without premium access.
func (s *ArticleService) List(ctx context.Context, userID int64) ([]domain.Article, error) {
	premium, err := s.access.HasPremium(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.ListArticles(ctx, premium)
}

func (s *ArticleService) Detail(ctx context.Context, p Principal, id int64) (domain.Article, Decision, error) {
	a, err := s.store.Article(ctx, id)
	if err != nil {
		return domain.Article{}, Decision{}, err
	}
	_, decision, err := s.access.Check(ctx, p, a)
	if err != nil || !decision.Allowed {
		return domain.Article{}, decision, err
	}
	return a, decision, nil
}

func (s *ArticleService) Create(ctx context.Context, a domain.Article) (domain.Article, error) {
	if strings.TrimSpace(a.Title) == "" {
		verr := &domain.ValidationError{}
		verr.Add("title", "title is required")
		return domain.Article{}, verr
	}
	now := s.clock().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	if err := s.store.CreateArticle(ctx, &a); err != nil {
		return domain.Article{}, err
	}
	return a, nil
}

// BlogService manages user-authored posts.
type BlogService struct {
	store BlogStore
	clock func() time.Time
}

func NewBlogService(store BlogStore) *BlogService {
	return &BlogService{store: store, clock: time.Now}
}

// PostInput is the editable part of a blog post.
type PostInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (in PostInput) validate() error {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(in.Title) == "" {
		verr.Add("title", "title is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		verr.Add("content", "content is required")
	}
	return verr.OrNil()
}

// List returns posts newest first, filtered by a title substring when query is set.
func (s *BlogService) List(ctx context.Context, query string) ([]domain.BlogPost, error) {
	return s.store.ListPosts(ctx, strings.TrimSpace(query))
}

func (s *BlogService) Get(ctx context.Context, id int64) (domain.BlogPost, error) {
	return s.store.Post(ctx, id)
}

func (s *BlogService) Create(ctx context.Context, authorID int64, in PostInput) (domain.BlogPost, error) {
	if err := in.validate(); err != nil {
		return domain.BlogPost{}, err
	}
	p := domain.BlogPost{
		AuthorID: authorID,
		Title:    strings.TrimSpace(in.Title),
		Content:  in.Content,
		PubDate:  s.clock().UTC(),
	}
	if err := s.store.CreatePost(ctx, &p); err != nil {
		return domain.BlogPost{}, err
	}
	return p, nil
}

// Update edits a post; only its author may do so.
func (s *BlogService) Update(ctx context.Context, authorID, id int64, in PostInput) (domain.BlogPost, error) {
	if err := in.validate(); err != nil {
		return domain.BlogPost{}, err
	}
	p, err := s.store.Post(ctx, id)
	if err != nil {
		return domain.BlogPost{}, err
	}
	if p.AuthorID != authorID {
		return domain.BlogPost{}, domain.ErrForbidden
	}
	p.Title = strings.TrimSpace(in.Title)
	p.Content = in.Content
	if err := s.store.UpdatePost(ctx, p); err != nil {
		return domain.BlogPost{}, err
	}
	return p, nil
}
