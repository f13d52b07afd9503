package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/repository"
)

// DefaultAvatarBaseURL serves generated placeholder avatars.
const DefaultAvatarBaseURL = "https://avatar.iran.liara.run/public"

// SignUpInput carries the fields collected by the registration form.
type SignUpInput struct {
	Username string `validate:"required"`
	Name     string `validate:"required"`
	Password string `validate:"required"`
	Gender   string `validate:"required"`
}

// UserService describes user lifecycle operations.
type UserService interface {
	SignUp(ctx context.Context, in SignUpInput) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

type UserOptions struct {
	AvatarBaseURL string
	// BcryptCost falls back to bcrypt.DefaultCost when zero.
	BcryptCost int
}

type userService struct {
	users      repository.UserRepository
	avatarBase string
	cost       int
}

func NewUserService(users repository.UserRepository, opts UserOptions) UserService {
	base := strings.TrimRight(strings.TrimSpace(opts.AvatarBaseURL), "/")
	if base == "" {
		base = DefaultAvatarBaseURL
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &userService{
		users:      users,
		avatarBase: base,
		cost:       cost,
	}
}

func (s *userService) SignUp(ctx context.Context, in SignUpInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)
	in.Gender = strings.TrimSpace(in.Gender)
	if err := checkRequired(in); err != nil {
		return nil, err
	}

	gender, err := domain.ParseGender(in.Gender)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:       in.Username,
		Name:           in.Name,
		PasswordHash:   string(hash),
		Gender:         gender,
		ProfilePicture: s.profilePicture(in.Username, gender),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i] = *sanitizeUser(&users[i])
	}
	return users, nil
}

func (s *userService) profilePicture(username string, gender domain.Gender) string {
	kind := "boy"
	if gender == domain.GenderFemale {
		kind = "girl"
	}
	return fmt.Sprintf("%s/%s?username=%s", s.avatarBase, kind, url.QueryEscape(username))
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	clean := *user
	clean.PasswordHash = ""
	return &clean
}
