package app

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"learnhub-service/internal/domain"
	"learnhub-service/internal/logging"
)

const (
	// MinPasswordLength is the shortest password registration accepts.
	MinPasswordLength = 8
	// MaxPasswordBytes is bcrypt's input limit.
	MaxPasswordBytes = 72
)

// RegisterInput is a sign-up form.
type RegisterInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate checks the sign-up rules and returns a *domain.ValidationError.
func (in RegisterInput) Validate() error {
	verr := &domain.ValidationError{}

	username := strings.TrimSpace(in.Username)
	switch {
	case username == "":
		verr.Add("username", "username is required")
	case !unicode.IsLetter([]rune(username)[0]):
		verr.Add("username", "username must start with a letter")
	}

	if !strings.Contains(in.Email, "@") {
		verr.Add("email", "a valid email is required")
	}

	var hasLetter, hasSpecial bool
	for _, r := range in.Password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case !unicode.IsDigit(r):
			hasSpecial = true
		}
	}
	switch {
	case len([]rune(in.Password)) < MinPasswordLength:
		verr.Add("password", "password must be at least 8 characters long")
	case len(in.Password) > MaxPasswordBytes:
		verr.Add("password", "password must be at most 72 bytes long")
	case !hasLetter:
		verr.Add("password", "password must contain at least one letter")
	case !hasSpecial:
		verr.Add("password", "password must contain at least one special character")
	}
	if in.Password != in.ConfirmPassword {
		verr.Add("confirmPassword", "passwords do not match")
	}
	return verr.OrNil()
}

// ProfilePage is the caller's own account overview.
type ProfilePage struct {
	User        domain.User         `json:"user"`
	Profile     domain.Profile      `json:"profile"`
	Premium     bool                `json:"hasPremiumAccess"`
	Enrollments []domain.Enrollment `json:"enrollments"`
	Badges      []domain.UserBadge  `json:"badges"`
}

// AccountService registers users and verifies their credentials.
type AccountService struct {
	tx          TxRunner
	users       UserStore
	profiles    ProfileStore
	enrollments EnrollmentStore
	badges      *BadgeService
	cost        int
	clock       func() time.Time
	log         *logging.Logger
}

func NewAccountService(tx TxRunner, users UserStore, profiles ProfileStore, enrollments EnrollmentStore, badges *BadgeService, log *logging.Logger) *AccountService {
	return &AccountService{
		tx:          tx,
		users:       users,
		profiles:    profiles,
		enrollments: enrollments,
		badges:      badges,
		cost:        bcrypt.DefaultCost,
		clock:       time.Now,
		log:         log,
	}
}

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (s *AccountService) WithHashCost(cost int) *AccountService {
	s.cost = cost
	return s
}

// Register creates the user and its free profile in one transaction.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	if err := in.Validate(); err != nil {
		return domain.User{}, err
	}
	return s.create(ctx, strings.TrimSpace(in.Username), strings.TrimSpace(in.Email), in.Password, false)
}

func (s *AccountService) create(ctx context.Context, username, email, password string, staff bool) (domain.User, error) {
	hash, err := s.hash(password)
	if err != nil {
		return domain.User{}, err
	}
	user := domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsStaff:      staff,
		CreatedAt:    s.clock().UTC(),
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.users.CreateUser(ctx, &user); err != nil {
			return err
		}
		return s.profiles.CreateProfile(ctx, &domain.Profile{
			UserID:   user.ID,
			Username: user.Username,
			Role:     domain.RoleFree,
		})
	})
	if err != nil {
		return domain.User{}, err
	}
	s.log.Info("user registered", "user", user.ID, "username", user.Username, "staff", staff)
	return user, nil
}

// hash reports an over-long password as a validation error.
func (s *AccountService) hash(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		verr := &domain.ValidationError{}
		verr.Add("password", "password must be at most 72 bytes long")
		return nil, verr
	}
	return hash, err
}

// Login returns the user whose password matches.
func (s *AccountService) Login(ctx context.Context, username, password string) (domain.User, error) {
	user, err := s.users.UserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return user, nil
}

// EnsureAdmin creates a staff user or promotes and re-keys an existing one.
// It reports whether the user was newly created.
func (s *AccountService) EnsureAdmin(ctx context.Context, username, email, password string) (domain.User, bool, error) {
	if username == "" || password == "" {
		verr := &domain.ValidationError{}
		verr.Add("username", "admin username and password are required")
		return domain.User{}, false, verr
	}
	existing, err := s.users.UserByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		user, err := s.create(ctx, username, email, password, true)
		return user, err == nil, err
	}
	if err != nil {
		return domain.User{}, false, err
	}

	hash, err := s.hash(password)
	if err != nil {
		return domain.User{}, false, err
	}
	existing.PasswordHash = string(hash)
	existing.IsStaff = true
	if email != "" {
		existing.Email = email
	}
	if err := s.users.UpdateUser(ctx, existing); err != nil {
		return domain.User{}, false, err
	}
	s.log.Info("admin updated", "user", existing.ID, "username", existing.Username)
	return existing, false, nil
}

func (s *AccountService) User(ctx context.Context, userID int64) (domain.User, error) {
	return s.users.UserByID(ctx, userID)
}

// Profile assembles the caller's profile page.
func (s *AccountService) Profile(ctx context.Context, userID int64) (ProfilePage, error) {
	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return ProfilePage{}, err
	}
	profile, err := s.profiles.ProfileByUserID(ctx, userID)
	if err != nil {
		return ProfilePage{}, err
	}
	enrollments, err := s.enrollments.EnrollmentsByUser(ctx, userID)
	if err != nil {
		return ProfilePage{}, err
	}
	page := ProfilePage{
		User:        user,
		Profile:     profile,
		Premium:     profile.HasPremiumAccess(s.clock()),
		Enrollments: enrollments,
		Badges:      []domain.UserBadge{},
	}
	if s.badges != nil {
		if page.Badges, err = s.badges.ForUser(ctx, userID); err != nil {
			return ProfilePage{}, err
		}
	}
	return page, nil
}
