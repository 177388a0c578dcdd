package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// ResourceKind names the kinds of content that can sit behind the premium gate.
type ResourceKind string

const (
	KindCourse  ResourceKind = "course"
	KindArticle ResourceKind = "article"
	KindQuiz    ResourceKind = "quiz"
)

// PendingResource identifies a premium resource a user asked for but could not open.
type PendingResource struct {
	Kind ResourceKind `json:"kind"`
	ID   string       `json:"id"`
}

// IsZero reports whether p refers to nothing.
func (p PendingResource) IsZero() bool {
	return p.Kind == "" && p.ID == ""
}

// Gated is implemented by every resource carrying an is_premium flag.
type Gated interface {
	PremiumOnly() bool
	Pending() PendingResource
}

func (c Course) PremiumOnly() bool { return c.IsPremium }

// Pending keys courses by slug so resuming lands on the course page.
func (c Course) Pending() PendingResource {
	return PendingResource{Kind: KindCourse, ID: c.Slug}
}

func (a Article) PremiumOnly() bool { return a.IsPremium }

func (a Article) Pending() PendingResource {
	return PendingResource{Kind: KindArticle, ID: strconv.FormatInt(a.ID, 10)}
}

func (q Quiz) PremiumOnly() bool { return q.IsPremium }

func (q Quiz) Pending() PendingResource {
	return PendingResource{Kind: KindQuiz, ID: strconv.FormatInt(q.ID, 10)}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and joins its alphanumeric runs with hyphens.
func Slugify(s string) string {
	slug := nonSlug.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return strings.Trim(slug, "-")
}
