package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cvforge/cvforge-api/internal/crypto"
	"github.com/cvforge/cvforge-api/internal/model"
	"github.com/cvforge/cvforge-api/internal/repository"
)

const tokenType = "bearer"

// UserStore is the credential store used by AuthService.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// AuthService handles registration, login and token authentication.
type AuthService struct {
	users  UserStore
	hasher *crypto.Hasher
	tokens *crypto.TokenService
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, hasher *crypto.Hasher, tokens *crypto.TokenService) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		now:    utcNow,
	}
}

// Register creates a new user account and returns an auth token.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error) {
	req.Email = model.NormalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return model.AuthResponse{}, err
	}

	_, err := s.users.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return model.AuthResponse{}, ErrEmailTaken
	case !errors.Is(err, repository.ErrUserNotFound):
		return model.AuthResponse{}, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.AuthResponse{}, err
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		CreatedAt:    s.now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.AuthResponse{}, ErrEmailTaken
		}
		return model.AuthResponse{}, err
	}

	slog.Info("user registered", "user_id", user.ID)
	return s.respond(user)
}

// Login authenticates a user by email and password and returns a fresh token.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	if err := validateStruct(req); err != nil {
		return model.AuthResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, model.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Burn the same hashing cost as a real verify.
			_, _ = s.hasher.Verify(req.Password, s.dummy())
			return model.AuthResponse{}, ErrInvalidCredentials
		}
		return model.AuthResponse{}, err
	}

	match, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return model.AuthResponse{}, fmt.Errorf("verify password for user %s: %w", user.ID, err)
	}
	if !match {
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	return s.respond(user)
}

// Authenticate verifies a bearer token and loads the user it was issued to.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	return user, nil
}

func (s *AuthService) respond(user *model.User) (model.AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{
		AccessToken: token,
		TokenType:   tokenType,
		User:        user.Public(),
	}, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			slog.Error("failed to prepare dummy hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
