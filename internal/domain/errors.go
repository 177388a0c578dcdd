package domain

import "errors"

var (
	// ErrNotFound is the root of every missing-entity error; match with errors.Is.
	ErrNotFound = errors.New("not found")
	// ErrCourseNotFound is returned when a course id or slug does not resolve.
	ErrCourseNotFound = notFound("course not found")
	// ErrQuizNotFound indicates the quiz could not be loaded.
	ErrQuizNotFound = notFound("quiz not found")
	// ErrQuestionNotFound indicates a question id is invalid.
	ErrQuestionNotFound = notFound("question not found")
	// ErrThreadNotFound is returned for unknown forum threads.
	ErrThreadNotFound = notFound("thread not found")
	// ErrArticleNotFound is returned for unknown articles.
	ErrArticleNotFound = notFound("article not found")
	// ErrBlogPostNotFound is returned for unknown blog posts.
	ErrBlogPostNotFound = notFound("blog post not found")
	// ErrBadgeNotFound is returned for unknown badges.
	ErrBadgeNotFound = notFound("badge not found")
	// ErrUserNotFound is returned when a username or id does not resolve.
	ErrUserNotFound = notFound("user not found")
	// ErrCategoryNotFound is returned for unknown categories.
	ErrCategoryNotFound = notFound("category not found")

	// ErrProfileMissing means an authenticated principal has no profile row.
	// It is a configuration problem, not a missing resource.
	ErrProfileMissing = errors.New("no user profile")

	// ErrUsernameTaken is returned on registration with an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrSlugTaken is returned when a course title slugifies onto an existing slug.
	ErrSlugTaken = errors.New("slug already taken")
	// ErrInvalidCredentials is returned by login for an unknown user or wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrForbidden is returned when the principal may not perform the action.
	ErrForbidden = errors.New("forbidden")

	// ErrPaymentDeclined means the gateway answered and refused the charge.
	ErrPaymentDeclined = errors.New("payment declined")
	// ErrPaymentUnavailable means the gateway could not be reached or answered garbage.
	ErrPaymentUnavailable = errors.New("payment gateway unavailable")
)

// ValidationError carries per-field messages for rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// Add records a message for field, keeping the first one.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// OrNil returns e when at least one field failed.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

type notFoundError struct {
	msg string
}

func notFound(msg string) error {
	return &notFoundError{msg: msg}
}

func (e *notFoundError) Error() string { return e.msg }

func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }
