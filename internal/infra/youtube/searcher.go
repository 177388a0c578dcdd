package youtube

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

const (
	maxResults = 5
	// educationCategory is YouTube's "Education" video category.
	educationCategory = "27"
)

// Searcher finds tutorial videos for a course title through the YouTube Data API.
type Searcher struct {
	svc *yt.Service
}

// NewSearcher builds a Data API client. Pass option.WithAPIKey in production;
// tests pass option.WithEndpoint and option.WithHTTPClient.
func NewSearcher(ctx context.Context, opts ...option.ClientOption) (*Searcher, error) {
	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("youtube client: %w", err)
	}
	return &Searcher{svc: svc}, nil
}

// Search returns up to five educational video ids, in the API's relevance order.
func (s *Searcher) Search(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []string{}, nil
	}
	resp, err := s.svc.Search.List([]string{"id"}).
		Q(query + " tutorial").
		Type("video").
		MaxResults(maxResults).
		VideoCategoryId(educationCategory).
		SafeSearch("strict").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search %q: %w", query, err)
	}
	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}
	return ids, nil
}
