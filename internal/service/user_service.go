package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"account-server/internal/domain"
	"account-server/internal/repository"
	"account-server/internal/token"
)

var (
	// ErrInvalidInput indicates missing or blank required fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUserExists is returned when the username or email is already taken.
	ErrUserExists = errors.New("user with email or username already exists")
	// ErrUserNotFound indicates no account matches the given identifier.
	ErrUserNotFound = errors.New("user does not exist")
	// ErrUnauthorized covers bad credentials and invalid, expired or
	// mismatched session tokens.
	ErrUnauthorized = errors.New("unauthorized")
)

// TokenPair is one issued access/refresh token pairing.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResult is the sanitized user plus the session tokens issued for it.
type LoginResult struct {
	User   *domain.User
	Tokens TokenPair
}

// RegisterInput holds the four required registration fields.
type RegisterInput struct {
	FullName string
	Email    string
	Username string
	Password string
}

// LoginInput requires a password plus at least one of username or email.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// UserService describes the account and session lifecycle operations.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	GetCurrentUser(ctx context.Context, userID string) (*domain.User, error)
	UpdateAccount(ctx context.Context, userID, fullName, email string) (*domain.User, error)
}

type userService struct {
	users      repository.UserRepository
	tokens     *token.Issuer
	bcryptCost int
}

func NewUserService(users repository.UserRepository, tokens *token.Issuer, bcryptCost int) UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &userService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Password = strings.TrimSpace(in.Password)

	if in.FullName == "" || in.Email == "" || in.Username == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: all fields are required", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username: in.Username,
		Email:    in.Email,
		FullName: in.FullName,
		Password: string(hash),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	// Re-fetch so the returned projection reflects what was actually stored.
	created, err := s.users.GetByID(ctx, user.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("fetch registered user: %w", err)
	}

	return created.Sanitized(), nil
}

func (s *userService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = strings.TrimSpace(in.Email)
	in.Password = strings.TrimSpace(in.Password)

	identifier := in.Username
	if identifier == "" {
		identifier = in.Email
	}
	if identifier == "" {
		return nil, fmt.Errorf("%w: username or email is required", ErrInvalidInput)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	pair, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: user.Sanitized(), Tokens: pair}, nil
}

// Logout clears the persisted refresh token. Calling it twice leaves the
// same end state.
func (s *userService) Logout(ctx context.Context, userID string) error {
	if err := s.users.UpdateRefreshToken(ctx, userID, nil); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

func (s *userService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return TokenPair{}, fmt.Errorf("%w: refresh token is required", ErrUnauthorized)
	}

	// Expired and malformed tokens surface identically here.
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	}

	// Rotation check: only the most recently issued refresh token is live.
	if user.RefreshToken != refreshToken {
		return TokenPair{}, fmt.Errorf("%w: refresh token is expired or already used", ErrUnauthorized)
	}

	return s.issueSession(ctx, user)
}

func (s *userService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	oldPassword = strings.TrimSpace(oldPassword)
	newPassword = strings.TrimSpace(newPassword)
	if oldPassword == "" || newPassword == "" {
		return fmt.Errorf("%w: old and new passwords are required", ErrInvalidInput)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return fmt.Errorf("%w: incorrect old password", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.users.UpdatePassword(ctx, userID, string(hash))
}

func (s *userService) GetCurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user.Sanitized(), nil
}

func (s *userService) UpdateAccount(ctx context.Context, userID, fullName, email string) (*domain.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)
	if fullName == "" && email == "" {
		return nil, fmt.Errorf("%w: at least one of fullName or email is required", ErrInvalidInput)
	}

	var update repository.ProfileUpdate
	if fullName != "" {
		update.FullName = &fullName
	}
	if email != "" {
		update.Email = &email
	}

	if err := s.users.UpdateProfile(ctx, userID, update); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyExists):
			return nil, ErrUserExists
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// issueSession creates a fresh token pair and persists the refresh token,
// invalidating whichever one was stored before (the rotation point).
func (s *userService) issueSession(ctx context.Context, user *domain.User) (TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.users.UpdateRefreshToken(ctx, user.ID.Hex(), &refresh); err != nil {
		return TokenPair{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
