package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ganaa/loantrack/internal/auth"
	"github.com/ganaa/loantrack/internal/domain"
	"github.com/ganaa/loantrack/internal/repository"
	apperrors "github.com/ganaa/loantrack/pkg/errors"
)

// AuthService is the identity collaborator: it establishes who the owner is,
// everything downstream trusts the id it issues.
type AuthService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
}

func NewAuthService(userRepo repository.UserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

func (s *AuthService) Register(ctx context.Context, request *domain.RegisterRequest) (*domain.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(request.Email))

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.WrapEmailTaken(email)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.WrapDatabaseError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         request.Name,
		PasswordHash: string(hash),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	return s.issueToken(user)
}

func (s *AuthService) Login(ctx context.Context, request *domain.LoginRequest) (*domain.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(request.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WrapInvalidCredentials()
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(request.Password)) != nil {
		return nil, apperrors.WrapInvalidCredentials()
	}

	return s.issueToken(user)
}

func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WrapUserNotFound()
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	return user, nil
}

func (s *AuthService) issueToken(user *domain.User) (*domain.AuthResponse, error) {
	token, err := s.tokens.Generate(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, apperrors.NewBusinessError(
			apperrors.ErrCodeTokenError, "could not issue token", err)
	}

	return &domain.AuthResponse{Token: token, User: user}, nil
}
