package app

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"learnhub-service/internal/domain"
	"learnhub-service/internal/logging"
)

// BadgeImage is an uploaded badge picture.
type BadgeImage struct {
	Body        io.Reader
	Size        int64
	Filename    string
	ContentType string
}

// BadgeService creates badges, stores their images, and awards them.
type BadgeService struct {
	store   BadgeStore
	objects ObjectStore
	urlTTL  time.Duration
	clock   func() time.Time
	log     *logging.Logger
}

func NewBadgeService(store BadgeStore, objects ObjectStore, urlTTL time.Duration, log *logging.Logger) *BadgeService {
	if urlTTL <= 0 {
		urlTTL = 15 * time.Minute
	}
	return &BadgeService{store: store, objects: objects, urlTTL: urlTTL, clock: time.Now, log: log}
}

// Create uploads the image first, then records the badge pointing at it.
func (s *BadgeService) Create(ctx context.Context, name, description string, img *BadgeImage) (domain.Badge, error) {
	if strings.TrimSpace(name) == "" {
		verr := &domain.ValidationError{}
		verr.Add("name", "name is required")
		return domain.Badge{}, verr
	}
	b := domain.Badge{Name: strings.TrimSpace(name), Description: description}
	if img != nil && s.objects != nil {
		key := fmt.Sprintf("badges/%s%s", uuid.NewString(), strings.ToLower(path.Ext(img.Filename)))
		if err := s.objects.Put(ctx, key, img.Body, img.Size, img.ContentType); err != nil {
			return domain.Badge{}, fmt.Errorf("upload badge image: %w", err)
		}
		b.ImageKey = key
	}
	if err := s.store.CreateBadge(ctx, &b); err != nil {
		return domain.Badge{}, err
	}
	return s.withURL(ctx, b), nil
}

// Award gives badgeID to userID; awarding twice keeps the first award.
func (s *BadgeService) Award(ctx context.Context, badgeID, userID int64) (domain.UserBadge, error) {
	if _, err := s.store.Badge(ctx, badgeID); err != nil {
		return domain.UserBadge{}, err
	}
	ub, err := s.store.AwardBadge(ctx, userID, badgeID, s.clock().UTC())
	if err != nil {
		return domain.UserBadge{}, err
	}
	ub.Badge = s.withURL(ctx, ub.Badge)
	return ub, nil
}

// ForUser lists the badges a user earned with short-lived image URLs.
func (s *BadgeService) ForUser(ctx context.Context, userID int64) ([]domain.UserBadge, error) {
	earned, err := s.store.BadgesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range earned {
		earned[i].Badge = s.withURL(ctx, earned[i].Badge)
	}
	return earned, nil
}

func (s *BadgeService) withURL(ctx context.Context, b domain.Badge) domain.Badge {
	if b.ImageKey == "" || s.objects == nil {
		return b
	}
	url, err := s.objects.PresignGet(ctx, b.ImageKey, s.urlTTL)
	if err != nil {
		s.log.Warn("presign badge image", "badge", b.ID, "err", err)
		return b
	}
	b.ImageURL = url
	return b
}
